package model

// Question is one interview question bank entry.
type Question struct {
	ID                 string   `json:"id,omitempty" yaml:"id"`
	Question           string   `json:"question" yaml:"question"`
	Category           string   `json:"category" yaml:"category"`
	Difficulty         string   `json:"difficulty" yaml:"difficulty"`
	Context            string   `json:"context" yaml:"context"`
	SampleAnswer       string   `json:"sample_answer" yaml:"sample_answer"`
	Tags               []string `json:"tags" yaml:"tags"`
	Position           string   `json:"position,omitempty" yaml:"position"`
	ExperienceLevel    string   `json:"experience_level,omitempty" yaml:"experience_level"`
	TechStack          string   `json:"tech_stack,omitempty" yaml:"tech_stack"`
	EvaluationCriteria []string `json:"evaluation_criteria,omitempty" yaml:"evaluation_criteria"`
	DocumentRelevance  string   `json:"document_relevance,omitempty" yaml:"-"`
}

// DifficultyRatio weights the easy, medium and hard bands of a generated set.
type DifficultyRatio struct {
	Easy   int `json:"easy" yaml:"easy"`
	Medium int `json:"medium" yaml:"medium"`
	Hard   int `json:"hard" yaml:"hard"`
}

func DefaultDifficultyRatio() DifficultyRatio {
	return DifficultyRatio{Easy: 3, Medium: 5, Hard: 2}
}

func (r DifficultyRatio) Total() int {
	return r.Easy + r.Medium + r.Hard
}

// QuestionRequirements is what the requirement chat collects before a bank
// is generated. Every field is optional while the chat is in progress.
type QuestionRequirements struct {
	Position        string           `json:"position"`
	ExperienceLevel string           `json:"experience_level"`
	TechStack       string           `json:"tech_stack"`
	QuestionCount   int              `json:"question_count"`
	DifficultyRatio *DifficultyRatio `json:"difficulty_ratio,omitempty"`
	FocusAreas      []string         `json:"focus_areas"`
}

// WithDefaults fills the gaps left by the chat.
func (r QuestionRequirements) WithDefaults() QuestionRequirements {
	if r.Position == "" {
		r.Position = "개발자"
	}
	if r.ExperienceLevel == "" {
		r.ExperienceLevel = "주니어"
	}
	if r.TechStack == "" {
		r.TechStack = "일반"
	}
	if r.QuestionCount <= 0 {
		r.QuestionCount = 20
	}
	if r.DifficultyRatio == nil || r.DifficultyRatio.Total() <= 0 {
		ratio := DefaultDifficultyRatio()
		r.DifficultyRatio = &ratio
	}
	if len(r.FocusAreas) == 0 {
		r.FocusAreas = []string{"기술역량", "소프트스킬"}
	}
	return r
}

// BankStats summarizes the stored question bank.
type BankStats struct {
	TotalQuestions int            `json:"total_questions"`
	ByCategory     map[string]int `json:"by_category"`
	ByDifficulty   map[string]int `json:"by_difficulty"`
	ByPosition     map[string]int `json:"by_position"`
}
