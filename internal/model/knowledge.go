package model

// KnowledgeItem is the structured knowledge pulled out of one course material chunk.
type KnowledgeItem struct {
	ProcessCategory string   `json:"process_category"`
	KeyConcepts     []string `json:"key_concepts"`
	Theory          string   `json:"theory"`
	Equations       []string `json:"equations"`
	Parameters      []string `json:"parameters"`
	Applications    string   `json:"applications"`
	LearningPoints  []string `json:"learning_points"`
	Difficulty      string   `json:"difficulty"`

	OriginalContent string `json:"original_content,omitempty"`
	Source          string `json:"source,omitempty"`
	Page            int    `json:"page,omitempty"`
}

// StudyQuestion is one knowledge index entry.
type StudyQuestion struct {
	ID              string   `json:"id,omitempty" yaml:"id"`
	Question        string   `json:"question" yaml:"question"`
	QuestionType    string   `json:"question_type" yaml:"question_type"`
	Difficulty      string   `json:"difficulty" yaml:"difficulty"`
	Answer          string   `json:"answer" yaml:"answer"`
	Keywords        []string `json:"keywords" yaml:"keywords"`
	RelatedConcepts []string `json:"related_concepts" yaml:"related_concepts"`
	ProcessCategory string   `json:"process_category" yaml:"process_category"`
	Theory          string   `json:"theory,omitempty" yaml:"theory"`
	Source          string   `json:"source,omitempty" yaml:"source"`
}

// KnowledgeHit is a search result from the knowledge index with lenient field mapping applied.
type KnowledgeHit struct {
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Process    string  `json:"process"`
	Difficulty string  `json:"difficulty"`
	Type       string  `json:"type"`
	Score      float64 `json:"score"`
}
