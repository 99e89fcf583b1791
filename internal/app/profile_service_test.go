package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gopherai-interview/internal/model"
	"gopherai-interview/internal/session"
)

const sampleProfileReply = "분석 결과입니다.\n```json\n" + `{
  "education": "서울대학교 재료공학부 3학년",
  "experiences": ["ITO 박막 증착 프로젝트"],
  "skills": "RF 스퍼터링, RIE 식각",
  "interests": ["CVD 공정"],
  "career_goal": {"short": "공정 엔지니어"},
  "strengths": ["끈기"]
}` + "\n```"

func TestAnalyzeProfileStoresSessionAndDB(t *testing.T) {
	llm := &fakeLLM{reply: fixedReply(sampleProfileReply)}
	store := session.NewMemoryStore()
	db := newFakeProfileStore()
	svc := NewProfileService(llm, store, db, testModels, nil)
	ctx := context.Background()

	res, err := svc.AnalyzeProfile(ctx, 7, "이력서 본문", "자기소개서 본문")
	if err != nil {
		t.Fatalf("AnalyzeProfile() error = %v", err)
	}
	if res.Partial || res.Profile.Education != "서울대학교 재료공학부 3학년" {
		t.Errorf("profile = %+v", res.Profile)
	}
	if len(res.Profile.Skills) != 1 || res.Profile.Skills[0] != "RF 스퍼터링, RIE 식각" {
		t.Errorf("a single string should become a one item list, got %v", res.Profile.Skills)
	}
	if res.Profile.CareerGoal != "short: 공정 엔지니어" {
		t.Errorf("object career goal should be flattened, got %q", res.Profile.CareerGoal)
	}
	if res.Profile.Weaknesses == nil || res.Profile.Projects == nil {
		t.Error("missing lists should be normalized to empty")
	}

	st, _ := store.Get(ctx, 7)
	if st.Profile == nil || st.ProfilePartial {
		t.Fatalf("session profile = %+v partial = %v", st.Profile, st.ProfilePartial)
	}
	if _, ok := db.profiles[7]; !ok || db.partial[7] {
		t.Error("profile should be persisted as complete")
	}

	call := llm.lastCall()
	if !strings.Contains(call.User, "이력서:\n이력서 본문") || !strings.Contains(call.User, "자기소개서:\n자기소개서 본문") {
		t.Errorf("user prompt = %q", call.User)
	}
}

func TestAnalyzeProfileFallback(t *testing.T) {
	llm := &fakeLLM{reply: fixedReply("죄송합니다. 분석할 수 없습니다.")}
	store := session.NewMemoryStore()
	db := newFakeProfileStore()
	svc := NewProfileService(llm, store, db, testModels, nil)

	res, err := svc.AnalyzeProfile(context.Background(), 3, "resume", "statement")
	if !errors.Is(err, ErrProfileParse) || !IsPartialProfile(err) {
		t.Fatalf("expected ErrProfileParse, got %v", err)
	}
	if res == nil || !res.Partial {
		t.Fatalf("fallback result = %+v", res)
	}
	if res.Profile.Education != "분석 중" {
		t.Errorf("fallback profile = %+v", res.Profile)
	}
	if !db.partial[3] {
		t.Error("fallback should be persisted as partial")
	}
	st, _ := store.Get(context.Background(), 3)
	if st.Profile == nil || !st.ProfilePartial {
		t.Error("fallback should be kept in the session")
	}
}

func TestAnalyzeProfileValidation(t *testing.T) {
	llm := &fakeLLM{reply: fixedReply(sampleProfileReply)}
	svc := NewProfileService(llm, session.NewMemoryStore(), nil, testModels, nil)

	for _, tc := range []struct{ resume, statement string }{
		{"", "statement"},
		{"resume", "   "},
	} {
		if _, err := svc.AnalyzeProfile(context.Background(), 1, tc.resume, tc.statement); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("AnalyzeProfile(%q, %q) error = %v", tc.resume, tc.statement, err)
		}
	}
	if llm.callCount() != 0 {
		t.Error("invalid input must not reach the model")
	}
}

func TestAnalyzeProfileKeepsSessionWhenDBFails(t *testing.T) {
	db := newFakeProfileStore()
	db.err = errors.New("mysql gone")
	svc := NewProfileService(&fakeLLM{reply: fixedReply(sampleProfileReply)}, session.NewMemoryStore(), db, testModels, nil)
	if _, err := svc.AnalyzeProfile(context.Background(), 1, "r", "s"); err != nil {
		t.Fatalf("a DB failure should only be logged, got %v", err)
	}
}

func TestCurrentFallsBackToDB(t *testing.T) {
	store := session.NewMemoryStore()
	db := newFakeProfileStore()
	db.profiles[9] = model.StudentProfile{Education: "KAIST"}
	svc := NewProfileService(&fakeLLM{}, store, db, testModels, nil)
	ctx := context.Background()

	p, err := svc.Current(ctx, 9)
	if err != nil || p == nil || p.Education != "KAIST" {
		t.Fatalf("Current() = %+v, %v", p, err)
	}
	st, _ := store.Get(ctx, 9)
	if st.Profile == nil {
		t.Error("stored profile should be cached in the session")
	}

	p, err = svc.Current(ctx, 10)
	if err != nil || p != nil {
		t.Errorf("unknown user should have no profile, got %+v %v", p, err)
	}
}

func TestAnalyzeResumeFailureIsZero(t *testing.T) {
	svc := NewProfileService(&fakeLLM{reply: fixedReply("not json")}, session.NewMemoryStore(), nil, testModels, nil)
	got := svc.AnalyzeResume(context.Background(), "resume")
	if !got.Education.Empty() || got.SemiconductorExperience != nil {
		t.Errorf("analysis = %+v", got)
	}
}

func TestDetailedSummary(t *testing.T) {
	llm := &fakeLLM{reply: func(system, _ string) (string, error) {
		if strings.Contains(system, "커리어 컨설턴트") {
			return `{"education":{"major":"재료공학","year":"3"},"semiconductor_experience":[{"title":"ITO"},{"title":"MEMS"}],"interests":["증착","식각","CMP"]}`, nil
		}
		return `{"motivation":"미세공정","career_goals":{"short_term":"공정 엔지니어"}}`, nil
	}}
	svc := NewProfileService(llm, session.NewMemoryStore(), nil, testModels, nil)

	d := svc.Detailed(context.Background(), "resume", "statement")
	want := "재료공학 3학년 | 반도체 관련 경험 2건 | 관심: 증착, 식각 | 목표: 공정 엔지니어"
	if d.Summary != want {
		t.Errorf("summary = %q, want %q", d.Summary, want)
	}
	if d.CreatedAt.IsZero() {
		t.Error("created_at missing")
	}
}

func TestSummaryEducationString(t *testing.T) {
	var resume model.ResumeAnalysis
	if err := resume.Education.UnmarshalJSON([]byte(`"전자공학"`)); err != nil {
		t.Fatal(err)
	}
	if got := Summary(resume, model.StatementAnalysis{}); got != "전자공학 학년" {
		t.Errorf("summary = %q", got)
	}
	if got := Summary(model.ResumeAnalysis{}, model.StatementAnalysis{}); got != "" {
		t.Errorf("empty analysis summary = %q", got)
	}
}

func TestPersonalizedQuestions(t *testing.T) {
	llm := &fakeLLM{reply: fixedReply(`[{"question":"ITO 프로젝트에서 가장 어려웠던 점은?","question_type":"경험기반"}]`)}
	svc := NewProfileService(llm, session.NewMemoryStore(), nil, testModels, nil)

	qs := svc.PersonalizedQuestions(context.Background(), model.ResumeAnalysis{}, model.StatementAnalysis{}, 0)
	if len(qs) != 1 || !qs[0].Personalized || qs[0].BasedOn != "resume_and_statement" {
		t.Fatalf("questions = %+v", qs)
	}
	if !strings.Contains(llm.lastCall().User, "총 15개의 질문") {
		t.Error("default count should be 15")
	}

	llm.reply = fixedReply("oops")
	if qs := svc.PersonalizedQuestions(context.Background(), model.ResumeAnalysis{}, model.StatementAnalysis{}, 3); qs == nil || len(qs) != 0 {
		t.Errorf("failure should yield an empty list, got %#v", qs)
	}
}

func TestDeepDiveQuestions(t *testing.T) {
	llm := &fakeLLM{reply: fixedReply(`{"questions":[{"question":"왜 RF 스퍼터링을 선택했나요?","focus":"의사결정","evaluation_points":"근거, 대안"}]}`)}
	svc := NewProfileService(llm, session.NewMemoryStore(), nil, testModels, nil)

	qs := svc.DeepDiveQuestions(context.Background(), model.Experience{Title: "ITO 증착", ProcessesUsed: model.FlexStrings{"스퍼터링"}})
	if len(qs) != 1 || qs[0].Focus != "의사결정" || len(qs[0].EvaluationPoints) != 1 {
		t.Errorf("questions = %+v", qs)
	}
	if !strings.Contains(llm.lastCall().User, "제목: ITO 증착") {
		t.Error("experience should be in the prompt")
	}
}
