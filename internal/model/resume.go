package model

import (
	"bytes"
	"encoding/json"
)

// ResumeAnalysis is the detailed resume breakdown used for personalized
// questions. A zero value means the analysis failed.
type ResumeAnalysis struct {
	Education               Education       `json:"education"`
	SemiconductorExperience []Experience    `json:"semiconductor_experience"`
	TechnicalSkills         TechnicalSkills `json:"technical_skills"`
	Interests               FlexStrings     `json:"interests"`
	Achievements            FlexStrings     `json:"achievements"`
	Strengths               FlexStrings     `json:"strengths"`
	AreasToImprove          FlexStrings     `json:"areas_to_improve"`
}

type Education struct {
	Major           FlexString  `json:"major"`
	Year            FlexString  `json:"year"`
	GPA             FlexString  `json:"gpa"`
	RelevantCourses FlexStrings `json:"relevant_courses"`
}

// UnmarshalJSON also accepts a plain string, which is kept as the major.
func (e *Education) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var s FlexString
		if err := s.UnmarshalJSON(data); err != nil {
			return err
		}
		*e = Education{Major: s}
		return nil
	}
	type plain Education
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = Education(p)
	return nil
}

func (e Education) Empty() bool {
	return e.Major == "" && e.Year == "" && e.GPA == "" && len(e.RelevantCourses) == 0
}

// Experience is one project, internship or lab activity.
type Experience struct {
	Title         FlexString  `json:"title"`
	Description   FlexString  `json:"description"`
	Duration      FlexString  `json:"duration"`
	ProcessesUsed FlexStrings `json:"processes_used"`
	Achievements  FlexStrings `json:"achievements"`
}

type TechnicalSkills struct {
	Equipment     FlexStrings `json:"equipment"`
	Software      FlexStrings `json:"software"`
	AnalysisTools FlexStrings `json:"analysis_tools"`
}

// StatementAnalysis is the personal statement breakdown.
type StatementAnalysis struct {
	Motivation             FlexString    `json:"motivation"`
	CareerGoals            CareerGoals   `json:"career_goals"`
	ResearchInterests      FlexStrings   `json:"research_interests"`
	ProblemSolvingExamples []STARExample `json:"problem_solving_examples"`
	TeamworkExperience     FlexString    `json:"teamwork_experience"`
	LearningAttitude       FlexString    `json:"learning_attitude"`
	GrowthMindset          FlexString    `json:"growth_mindset"`
	PassionIndicators      FlexStrings   `json:"passion_indicators"`
}

type CareerGoals struct {
	ShortTerm FlexString `json:"short_term"`
	LongTerm  FlexString `json:"long_term"`
}

// STARExample is a situation, action and result triple.
type STARExample struct {
	Situation FlexString `json:"situation"`
	Action    FlexString `json:"action"`
	Result    FlexString `json:"result"`
}

// PersonalizedQuestion is an interview question derived from a resume and
// statement pair.
type PersonalizedQuestion struct {
	Question              string      `json:"question"`
	QuestionType          string      `json:"question_type"`
	Category              string      `json:"category"`
	Difficulty            string      `json:"difficulty"`
	PersonalizationReason FlexString  `json:"personalization_reason"`
	ExpectedAnswerPoints  FlexStrings `json:"expected_answer_points"`
	FollowUpQuestions     FlexStrings `json:"follow_up_questions"`
	Personalized          bool        `json:"personalized"`
	BasedOn               string      `json:"based_on"`
}

// DeepDiveQuestion probes one experience.
type DeepDiveQuestion struct {
	Question         string      `json:"question"`
	Focus            string      `json:"focus"`
	EvaluationPoints FlexStrings `json:"evaluation_points"`
}
