package seed

import "testing"

func TestInterviewQuestions(t *testing.T) {
	qs, err := InterviewQuestions()
	if err != nil {
		t.Fatalf("InterviewQuestions() error = %v", err)
	}
	if len(qs) != 15 {
		t.Fatalf("len = %d, want 15", len(qs))
	}
	seen := map[string]bool{}
	for _, q := range qs {
		if q.ID == "" || q.Question == "" || len(q.Tags) == 0 {
			t.Errorf("incomplete question %+v", q)
		}
		if seen[q.ID] {
			t.Errorf("duplicate id %s", q.ID)
		}
		seen[q.ID] = true
		switch q.Difficulty {
		case "하", "중", "상":
		default:
			t.Errorf("question %s difficulty = %q", q.ID, q.Difficulty)
		}
	}
}

func TestStudyQuestions(t *testing.T) {
	qs, err := StudyQuestions()
	if err != nil {
		t.Fatalf("StudyQuestions() error = %v", err)
	}
	if len(qs) == 0 {
		t.Fatal("empty knowledge seed")
	}
	for _, q := range qs {
		if q.ProcessCategory == "" || q.Answer == "" || len(q.Keywords) == 0 {
			t.Errorf("incomplete study question %+v", q)
		}
		if q.Source != "seed" {
			t.Errorf("source = %q", q.Source)
		}
	}
}
