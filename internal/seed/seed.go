// Package seed holds the sample question banks that bootstrap empty indexes.
package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"gopherai-interview/internal/model"
)

//go:embed questions.yaml
var questionsYAML []byte

//go:embed knowledge.yaml
var knowledgeYAML []byte

type questionFile struct {
	Questions []model.Question `yaml:"questions"`
}

type knowledgeFile struct {
	Questions []model.StudyQuestion `yaml:"questions"`
}

// InterviewQuestions returns the general interview bank.
func InterviewQuestions() ([]model.Question, error) {
	var f questionFile
	if err := yaml.Unmarshal(questionsYAML, &f); err != nil {
		return nil, fmt.Errorf("decode interview seed failed: %w", err)
	}
	return f.Questions, nil
}

// StudyQuestions returns the semiconductor process bank.
func StudyQuestions() ([]model.StudyQuestion, error) {
	var f knowledgeFile
	if err := yaml.Unmarshal(knowledgeYAML, &f); err != nil {
		return nil, fmt.Errorf("decode knowledge seed failed: %w", err)
	}
	return f.Questions, nil
}
