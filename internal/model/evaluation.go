package model

import "time"

// Maximum points per rubric criterion.
const (
	MaxAccuracy      = 30
	MaxDepth         = 25
	MaxStructure     = 20
	MaxApplication   = 15
	MaxCommunication = 10
	MaxTotal         = 100
)

type Scores struct {
	Accuracy      float64 `json:"accuracy"`
	Depth         float64 `json:"depth"`
	Structure     float64 `json:"structure"`
	Application   float64 `json:"application"`
	Communication float64 `json:"communication"`
}

func (s Scores) Sum() float64 {
	return s.Accuracy + s.Depth + s.Structure + s.Application + s.Communication
}

// Evaluation is the rubric result for one answer. TotalScore is nil when the
// model omitted it, and such records are left out of report averages.
type Evaluation struct {
	Scores            Scores   `json:"scores"`
	TotalScore        *float64 `json:"total_score,omitempty"`
	Strengths         []string `json:"strengths"`
	Improvements      []string `json:"improvements"`
	DetailedFeedback  string   `json:"detailed_feedback"`
	RecommendedTopics []string `json:"recommended_topics"`
}

func (e Evaluation) Total() float64 {
	if e.TotalScore == nil {
		return 0
	}
	return *e.TotalScore
}

// QARecord is one answered question within a practice session.
type QARecord struct {
	Mode       string     `json:"mode"`
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Evaluation Evaluation `json:"evaluation"`
	Timestamp  time.Time  `json:"timestamp"`
}
