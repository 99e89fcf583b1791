package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gopherai-interview/internal/model"
	"gopherai-interview/internal/search"
	"gopherai-interview/internal/session"
)

type fakeBlobs struct {
	saved []string
}

func (f *fakeBlobs) Save(_ context.Context, userID, sessionType string, _ any) (string, error) {
	name := userID + "/" + sessionType
	f.saved = append(f.saved, name)
	return name, nil
}

func (f *fakeBlobs) List(context.Context, string, string) ([]string, error) {
	return f.saved, nil
}

type practiceFixture struct {
	svc      *PracticeService
	llm      *fakeLLM
	idx      *fakeSearch
	speech   *fakeSpeech
	store    *session.MemoryStore
	profiles *fakeProfileStore
	blobs    *fakeBlobs
}

func newPractice(llm *fakeLLM) *practiceFixture {
	f := &practiceFixture{
		llm:      llm,
		idx:      &fakeSearch{},
		speech:   &fakeSpeech{},
		store:    session.NewMemoryStore(),
		profiles: newFakeProfileStore(),
		blobs:    &fakeBlobs{},
	}
	lookup := NewProfileService(llm, f.store, f.profiles, testModels, nil)
	f.svc = NewPracticeService(llm, f.idx, f.speech, f.store, lookup, f.blobs, testModels,
		PracticeIndexes{Knowledge: "semiconductor-knowledge", Questions: "interview-questions"}, nil)
	return f
}

const evalReply = `{"scores":{"accuracy":25,"depth":20,"structure":15,"application":10,"communication":8},"total_score":78,"strengths":["정확한 용어"],"improvements":["예시 부족"],"detailed_feedback":"좋은 답변입니다.","recommended_topics":["PECVD"]}`

func TestSearchKnowledgeRetriesWithoutFilter(t *testing.T) {
	f := newPractice(&fakeLLM{})
	f.idx.searchErr = func(q search.Query) error {
		if q.Filter != "" {
			return errors.New("invalid filter field")
		}
		return nil
	}
	f.idx.docs = []search.Document{
		{"question": "CVD란?", "answer": "화학 기상 증착", "process_category": "증착", "@search.score": 2.5},
		{"title": "RIE", "content": "반응성 이온 식각", "category": "식각", "level": "고급"},
	}

	hits := f.svc.SearchKnowledge(context.Background(), "증착", "증착", "전체", 0)
	if len(f.idx.queries) != 2 {
		t.Fatalf("expected a retry, queries = %+v", f.idx.queries)
	}
	if f.idx.queries[0].Filter != "process_category eq '증착'" || f.idx.queries[1].Filter != "" {
		t.Errorf("filters = %q then %q", f.idx.queries[0].Filter, f.idx.queries[1].Filter)
	}
	if f.idx.queries[0].Top != defaultSearchTopK {
		t.Errorf("top = %d", f.idx.queries[0].Top)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %+v", hits)
	}
	if hits[0].Score != 2.5 || hits[1].Score != 1.0 {
		t.Errorf("scores = %v %v", hits[0].Score, hits[1].Score)
	}
	if hits[1].Question != "RIE" || hits[1].Answer != "반응성 이온 식각" || hits[1].Process != "식각" || hits[1].Difficulty != "고급" {
		t.Errorf("lenient mapping = %+v", hits[1])
	}
	if hits[0].Difficulty != defaultStudyLevel || hits[0].Type != "개념이해" {
		t.Errorf("defaults = %+v", hits[0])
	}
}

func TestSearchKnowledgeDisabledOrFailing(t *testing.T) {
	f := newPractice(&fakeLLM{})
	f.idx.disabled = true
	if hits := f.svc.SearchKnowledge(context.Background(), "q", "", "", 3); hits == nil || len(hits) != 0 {
		t.Errorf("disabled search hits = %#v", hits)
	}

	f = newPractice(&fakeLLM{})
	f.idx.searchErr = func(search.Query) error { return errors.New("503") }
	if hits := f.svc.SearchKnowledge(context.Background(), "q", "", "", 3); len(hits) != 0 {
		t.Errorf("failing search hits = %+v", hits)
	}
	if len(f.idx.queries) != 1 {
		t.Error("an unfiltered failure must not be retried")
	}
}

func TestStudyQuestionUsesReferences(t *testing.T) {
	llm := &fakeLLM{reply: fixedReply("  CVD에서 전구체의 역할은 무엇인가요?  ")}
	f := newPractice(llm)
	f.idx.docs = []search.Document{{"question": "CVD란?", "answer": "화학 기상 증착"}}

	q, err := f.svc.StudyQuestion(context.Background(), 1, "CVD", "", "")
	if err != nil {
		t.Fatalf("StudyQuestion() error = %v", err)
	}
	if q.Question != "CVD에서 전구체의 역할은 무엇인가요?" || q.Mode != ModeStudy {
		t.Errorf("question = %+v", q)
	}
	if q.Context != "Q: CVD란?\nA: 화학 기상 증착" {
		t.Errorf("context = %q", q.Context)
	}
	call := llm.lastCall()
	if !strings.Contains(call.System, "참고 자료:") || !strings.Contains(call.System, "난이도: 중급") {
		t.Errorf("system prompt = %q", call.System)
	}
	if f.idx.queries[0].Filter != "difficulty eq '중급'" || f.idx.queries[0].Top != contextTopK {
		t.Errorf("query = %+v", f.idx.queries[0])
	}

	st, _ := f.store.Get(context.Background(), 1)
	if st.CurrentQuestion == nil || st.CurrentQuestion.Question != q.Question {
		t.Error("question should become current")
	}
}

func TestStudyQuestionWithoutReferences(t *testing.T) {
	llm := &fakeLLM{reply: fixedReply("식각 선택비란?")}
	f := newPractice(llm)

	q, err := f.svc.StudyQuestion(context.Background(), 1, "식각", "고급", "실무")
	if err != nil {
		t.Fatalf("StudyQuestion() error = %v", err)
	}
	if q.Context != "주제: 식각에 대한 질문을 생성합니다." {
		t.Errorf("context = %q", q.Context)
	}
	if !strings.Contains(llm.lastCall().System, "주제에 대한 일반적인 지식을 바탕으로") {
		t.Error("general knowledge header expected")
	}

	if _, err := f.svc.StudyQuestion(context.Background(), 1, "  ", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestInterviewQuestionRequiresProfile(t *testing.T) {
	f := newPractice(&fakeLLM{reply: fixedReply("질문")})
	if _, err := f.svc.InterviewQuestion(context.Background(), 4, true, ""); !errors.Is(err, ErrProfileRequired) {
		t.Fatalf("expected ErrProfileRequired, got %v", err)
	}

	f.profiles.profiles[4] = model.StudentProfile{
		Education:   "재료공학",
		Experiences: model.FlexStrings{"ITO 박막 증착"},
	}
	q, err := f.svc.InterviewQuestion(context.Background(), 4, true, "전체")
	if err != nil {
		t.Fatalf("InterviewQuestion() error = %v", err)
	}
	if q.Context != generalInterviewCtx {
		t.Errorf("context = %q", q.Context)
	}
	system := f.llm.lastCall().System
	if !strings.Contains(system, "- 주요 경험: ITO 박막 증착") || !strings.Contains(system, "- 프로젝트: 프로젝트 정보 없음") {
		t.Errorf("profile block missing: %q", system)
	}
	if f.idx.queries[0].Text != defaultFocusQuery {
		t.Errorf("전체 should fall back to the default query, got %q", f.idx.queries[0].Text)
	}
}

func TestInterviewQuestionGeneral(t *testing.T) {
	f := newPractice(&fakeLLM{reply: fixedReply("RIE에서 이방성은 어떻게 얻나요?")})
	f.idx.docs = []search.Document{{"question": "RIE", "answer": "이온 식각"}}

	q, err := f.svc.InterviewQuestion(context.Background(), 2, false, "식각")
	if err != nil {
		t.Fatalf("InterviewQuestion() error = %v", err)
	}
	if q.Mode != ModeInterview || f.idx.queries[0].Text != "식각" {
		t.Errorf("question = %+v query = %+v", q, f.idx.queries[0])
	}
	if !strings.Contains(f.llm.lastCall().System, "참고 자료:\nQ: RIE") {
		t.Error("references should be in the prompt")
	}
}

func TestBankQuestionVisualization(t *testing.T) {
	llm := &fakeLLM{
		reply:    fixedReply(`{"question":"매출 추이 그래프를 해석해 보세요","category":"분석","rationale":"데이터 역량","visualization_needed":true,"visualization_description":"분기별 매출 차트"}`),
		imageURL: "https://img.example/chart.png",
	}
	f := newPractice(llm)
	f.idx.docs = []search.Document{
		{"question": "데이터로 의사결정한 경험은?", "category": "분석", "sample_answer": "A/B 테스트를 설계했습니다"},
		{"question": "협업 경험은?"},
	}

	q, err := f.svc.BankQuestion(context.Background(), 5, "마케팅 3년차", "", true)
	if err != nil {
		t.Fatalf("BankQuestion() error = %v", err)
	}
	if q.VisualizationURL != "https://img.example/chart.png" {
		t.Errorf("url = %q", q.VisualizationURL)
	}
	if llm.imagePrompts[0] != "Professional business chart or graph: 분기별 매출 차트" {
		t.Errorf("image prompt = %q", llm.imagePrompts[0])
	}
	if q.Context != "참고 답변 예시 1:\nA/B 테스트를 설계했습니다" {
		t.Errorf("context = %q", q.Context)
	}
	if len(q.References) != 2 || q.References[1].Category != "일반" || q.References[1].Difficulty != defaultBankLevel {
		t.Errorf("references = %+v", q.References)
	}
	query := f.idx.queries[0]
	if len(query.Vector) == 0 || query.VectorField != search.VectorField || query.Top != contextTopK {
		t.Errorf("bank search should be hybrid, got %+v", query)
	}
	if !strings.Contains(llm.lastCall().System, "난이도: 중") {
		t.Error("default difficulty should be 중")
	}
}

func TestBankQuestionWithoutVisualization(t *testing.T) {
	llm := &fakeLLM{reply: fixedReply(`{"question":"q","visualization_needed":true,"visualization_description":"도표"}`)}
	f := newPractice(llm)
	q, err := f.svc.BankQuestion(context.Background(), 5, "profile", "상", false)
	if err != nil {
		t.Fatalf("BankQuestion() error = %v", err)
	}
	if q.VisualizationURL != "" || len(llm.imagePrompts) != 0 {
		t.Error("images must not be generated when visualization is off")
	}

	llm.reply = fixedReply(`{"category":"x"}`)
	if _, err := f.svc.BankQuestion(context.Background(), 5, "profile", "상", false); !errors.Is(err, ErrGeneration) {
		t.Errorf("reply without question should fail, got %v", err)
	}
}

func TestBankQuestionFallsBackToStoredProfile(t *testing.T) {
	f := newPractice(&fakeLLM{reply: fixedReply(`{"question":"q"}`)})
	if _, err := f.svc.BankQuestion(context.Background(), 6, "", "", false); !errors.Is(err, ErrProfileRequired) {
		t.Fatalf("expected ErrProfileRequired, got %v", err)
	}
	f.profiles.profiles[6] = model.StudentProfile{Education: "KAIST"}
	if _, err := f.svc.BankQuestion(context.Background(), 6, "", "", false); err != nil {
		t.Fatalf("BankQuestion() error = %v", err)
	}
	if !strings.Contains(f.llm.lastCall().User, "- 학력: KAIST") {
		t.Error("stored profile summary should be used")
	}
}

func TestEvaluateAppendsRecord(t *testing.T) {
	f := newPractice(&fakeLLM{reply: fixedReply(evalReply)})
	ctx := context.Background()

	eval, err := f.svc.Evaluate(ctx, 8, "", "CVD란?", "화학 기상 증착입니다", "ref")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if eval.Total() != 78 || eval.Scores.Sum() != 78 {
		t.Errorf("evaluation = %+v", eval)
	}
	st, _ := f.store.Get(ctx, 8)
	if len(st.QA) != 1 || st.QA[0].Mode != ModeStudy || st.QA[0].Answer != "화학 기상 증착입니다" {
		t.Errorf("session qa = %+v", st.QA)
	}
	if len(f.blobs.saved) != 1 || f.blobs.saved[0] != "8/qa_records" {
		t.Errorf("blobs = %v", f.blobs.saved)
	}
	if !strings.Contains(f.llm.lastCall().System, "참고 자료:\nref") {
		t.Error("reference context should be in the rubric prompt")
	}
}

func TestEvaluateErrors(t *testing.T) {
	f := newPractice(&fakeLLM{reply: fixedReply("점수를 매길 수 없습니다")})
	ctx := context.Background()

	if _, err := f.svc.Evaluate(ctx, 8, ModeStudy, "q", "   ", ""); !errors.Is(err, ErrEmptyAnswer) {
		t.Errorf("expected ErrEmptyAnswer, got %v", err)
	}
	if _, err := f.svc.Evaluate(ctx, 8, ModeStudy, "q", "a", ""); !errors.Is(err, ErrEvaluationParse) {
		t.Errorf("expected ErrEvaluationParse, got %v", err)
	}
	st, _ := f.store.Get(ctx, 8)
	if len(st.QA) != 0 {
		t.Error("failed evaluations must not be recorded")
	}
}

func TestAnswerCurrent(t *testing.T) {
	f := newPractice(&fakeLLM{reply: fixedReply(evalReply)})
	ctx := context.Background()

	if _, err := f.svc.AnswerCurrent(ctx, 9, "answer", nil); !errors.Is(err, ErrNoCurrentQuestion) {
		t.Fatalf("expected ErrNoCurrentQuestion, got %v", err)
	}

	if err := f.svc.setCurrent(ctx, 9, &QuestionPrompt{Mode: ModeInterview, Question: "ALD의 장점은?", Context: "ctx"}); err != nil {
		t.Fatal(err)
	}

	f.speech.enabled = true
	f.speech.text = "자기 제한적 반응입니다"
	res, err := f.svc.AnswerCurrent(ctx, 9, "typed", []byte("wav"))
	if err != nil {
		t.Fatalf("AnswerCurrent() error = %v", err)
	}
	if !res.Transcribed || res.Answer != "자기 제한적 반응입니다" {
		t.Errorf("speech should win over text: %+v", res)
	}
	if !strings.HasPrefix(res.Feedback, "평가 점수: 78점") {
		t.Errorf("feedback = %q", res.Feedback)
	}

	f.speech.recErr = errors.New("no match")
	res, err = f.svc.AnswerCurrent(ctx, 9, "typed", []byte("wav"))
	if err != nil || res.Transcribed || res.Answer != "typed" {
		t.Errorf("failed transcription should fall back to text: %+v %v", res, err)
	}

	if _, err := f.svc.AnswerCurrent(ctx, 9, "", []byte("wav")); !errors.Is(err, ErrEmptyAnswer) {
		t.Errorf("expected ErrEmptyAnswer, got %v", err)
	}

	st, _ := f.store.Get(ctx, 9)
	if len(st.QA) != 2 || st.QA[0].Mode != ModeInterview {
		t.Errorf("qa = %+v", st.QA)
	}
}

func TestFeedbackText(t *testing.T) {
	got := FeedbackText(model.Evaluation{
		TotalScore:       scorePtr(82.5),
		Strengths:        []string{"정확성", "구조"},
		DetailedFeedback: "잘했습니다",
	})
	want := "평가 점수: 82.5점\n\n강점: 정확성, 구조\n\n개선점: 없음\n\n피드백: 잘했습니다"
	if got != want {
		t.Errorf("FeedbackText() = %q, want %q", got, want)
	}
}

func TestSpeakDisabled(t *testing.T) {
	f := newPractice(&fakeLLM{})
	audio, err := f.svc.Speak(context.Background(), "안녕하세요")
	if err != nil || audio != nil {
		t.Errorf("Speak() = %v, %v", audio, err)
	}
	f.speech.enabled = true
	f.speech.audio = []byte("mp3")
	if audio, _ := f.svc.Speak(context.Background(), "안녕하세요"); string(audio) != "mp3" {
		t.Errorf("audio = %q", audio)
	}
}

func TestSessionSummaryAndClear(t *testing.T) {
	f := newPractice(&fakeLLM{})
	ctx := context.Background()
	profile := model.StudentProfile{Education: "x"}
	if err := f.store.Save(ctx, 11, &session.State{
		Profile:         &profile,
		CurrentQuestion: &session.CurrentQuestion{Mode: ModeStudy, Question: "q"},
		QA: []model.QARecord{
			{Evaluation: model.Evaluation{TotalScore: scorePtr(80)}},
			{Evaluation: model.Evaluation{TotalScore: scorePtr(60)}},
			{Evaluation: model.Evaluation{}},
		},
	}); err != nil {
		t.Fatal(err)
	}

	sum, err := f.svc.SessionSummary(ctx, 11)
	if err != nil {
		t.Fatalf("SessionSummary() error = %v", err)
	}
	if sum.QuestionCount != 3 || sum.ScoredCount != 2 || sum.AverageScore != 70 || !sum.HasProfile {
		t.Errorf("summary = %+v", sum)
	}

	if err := f.svc.ClearSession(ctx, 11); err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}
	st, _ := f.store.Get(ctx, 11)
	if len(st.QA) != 0 || st.CurrentQuestion != nil || st.Profile == nil {
		t.Errorf("state after clear = %+v", st)
	}
}
