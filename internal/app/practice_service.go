package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gopherai-interview/internal/ai"
	"gopherai-interview/internal/blobstore"
	"gopherai-interview/internal/model"
	"gopherai-interview/internal/search"
	"gopherai-interview/internal/session"
)

// Practice modes recorded with every answered question.
const (
	ModeStudy     = "study"
	ModeInterview = "interview"
	ModeBank      = "bank"
)

const (
	contextTopK         = 3
	defaultSearchTopK   = 5
	questionTemp        = 0.8
	bankQuestionTemp    = 0.7
	evaluationTemp      = 0.3
	profileDumpLimit    = 500
	defaultFocusQuery   = "반도체 공정"
	defaultBankLevel    = "중"
	visualizationSize   = "1024x1024"
	defaultStudyLevel   = "중급"
	defaultStudyType    = "원리설명"
	generalInterviewCtx = "반도체 공정에 대한 일반적인 지식"
)

var difficultyGuide = map[string]string{
	"기초": "기본 개념과 정의를 확인하는",
	"중급": "원리와 메커니즘을 설명할 수 있는",
	"고급": "실무 적용과 문제 해결 능력을 평가하는",
}

var typeGuide = map[string]string{
	"개념이해": "핵심 개념과 용어의 정의를 설명하도록",
	"원리설명": "물리/화학적 원리와 메커니즘을 설명하도록",
	"응용":   "실제 공정에서의 응용 사례와 효과를 설명하도록",
	"비교":   "다른 공정/기술과 비교 분석하도록",
	"실무":   "실무에서 발생하는 문제와 해결 방법을 다루도록",
}

// ProfileLookup resolves the profile a user analyzed earlier.
type ProfileLookup interface {
	Current(ctx context.Context, userID uint) (*model.StudentProfile, error)
}

// BankReference is a question bank hit used as generation context.
type BankReference struct {
	Question     string `json:"question"`
	Category     string `json:"category"`
	Difficulty   string `json:"difficulty"`
	Context      string `json:"context"`
	SampleAnswer string `json:"sample_answer"`
}

// QuestionPrompt is a generated question together with what it was built from.
type QuestionPrompt struct {
	Mode     string `json:"mode"`
	Question string `json:"question"`
	Context  string `json:"context"`

	Category                 string          `json:"category,omitempty"`
	Rationale                string          `json:"rationale,omitempty"`
	VisualizationNeeded      bool            `json:"visualization_needed,omitempty"`
	VisualizationDescription string          `json:"visualization_description,omitempty"`
	VisualizationURL         string          `json:"visualization_url,omitempty"`
	References               []BankReference `json:"references,omitempty"`
}

// AnswerResult is the evaluated answer to the current question.
type AnswerResult struct {
	Answer      string           `json:"answer"`
	Transcribed bool             `json:"transcribed"`
	Evaluation  model.Evaluation `json:"evaluation"`
	Feedback    string           `json:"feedback"`
}

type SessionSummary struct {
	QuestionCount   int                      `json:"question_count"`
	ScoredCount     int                      `json:"scored_count"`
	AverageScore    float64                  `json:"average_score"`
	HasProfile      bool                     `json:"has_profile"`
	CurrentQuestion *session.CurrentQuestion `json:"current_question,omitempty"`
}

// PracticeIndexes names the two indexes practice questions are drawn from.
type PracticeIndexes struct {
	Knowledge string
	Questions string
}

// PracticeService drives study and interview practice: question generation,
// answer evaluation and the spoken round trip.
type PracticeService struct {
	llm      LLM
	search   SearchIndex
	speech   Speech
	sessions session.Store
	profiles ProfileLookup
	blobs    blobstore.Store
	models   Models
	indexes  PracticeIndexes
	logger   *slog.Logger
}

func NewPracticeService(
	llm LLM,
	searchIndex SearchIndex,
	speech Speech,
	sessions session.Store,
	profiles ProfileLookup,
	blobs blobstore.Store,
	models Models,
	indexes PracticeIndexes,
	logger *slog.Logger,
) *PracticeService {
	if logger == nil {
		logger = slog.Default()
	}
	if blobs == nil {
		blobs = blobstore.Nop{}
	}
	return &PracticeService{
		llm:      llm,
		search:   searchIndex,
		speech:   speech,
		sessions: sessions,
		profiles: profiles,
		blobs:    blobs,
		models:   models,
		indexes:  indexes,
		logger:   logger.With("service", "practice"),
	}
}

// SearchKnowledge is a text search over the knowledge index. A filtered
// search that fails is retried once without the filter. Errors yield no hits.
func (s *PracticeService) SearchKnowledge(ctx context.Context, query, processFilter, difficultyFilter string, topK int) []model.KnowledgeHit {
	if !s.search.Enabled() {
		s.logger.Warn("knowledge search skipped, search not configured")
		return []model.KnowledgeHit{}
	}
	if topK <= 0 {
		topK = defaultSearchTopK
	}

	filter := (&search.Filter{}).Eq("process_category", processFilter).Eq("difficulty", difficultyFilter)
	q := search.Query{Text: query, Top: topK}
	if !filter.Empty() {
		q.Filter = filter.String()
	}

	docs, err := s.search.Search(ctx, s.indexes.Knowledge, q)
	if err != nil && q.Filter != "" {
		s.logger.Warn("filtered knowledge search failed, retrying without filter", "filter", q.Filter, "error", err)
		q.Filter = ""
		docs, err = s.search.Search(ctx, s.indexes.Knowledge, q)
	}
	if err != nil {
		s.logger.Error("knowledge search failed", "query", query, "error", err)
		return []model.KnowledgeHit{}
	}

	hits := make([]model.KnowledgeHit, 0, len(docs))
	for _, d := range docs {
		hits = append(hits, knowledgeHit(d))
	}
	s.logger.Info("knowledge search", "query", query, "filter", q.Filter, "hits", len(hits))
	return hits
}

func knowledgeHit(d search.Document) model.KnowledgeHit {
	score := 1.0
	if _, ok := d["@search.score"]; ok {
		score = d.Score()
	}
	return model.KnowledgeHit{
		Question:   d.String("question", "Question", "title"),
		Answer:     d.String("answer", "Answer", "content"),
		Process:    orDefault(d.String("process_category", "category", "process"), "일반"),
		Difficulty: orDefault(d.String("difficulty", "level"), defaultStudyLevel),
		Type:       orDefault(d.String("question_type", "type"), "개념이해"),
		Score:      score,
	}
}

func knowledgeContext(hits []model.KnowledgeHit) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Question == "" || h.Answer == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("Q: %s\nA: %s", h.Question, h.Answer))
	}
	return strings.Join(parts, "\n\n")
}

// StudyQuestion generates one study question on topic, grounded in the
// knowledge index when it has matching entries.
func (s *PracticeService) StudyQuestion(ctx context.Context, userID uint, topic, difficulty, qtype string) (*QuestionPrompt, error) {
	topic = strings.TrimSpace(topic)
	if userID == 0 || topic == "" {
		return nil, ErrInvalidInput
	}
	difficulty = orDefault(difficulty, defaultStudyLevel)
	qtype = orDefault(qtype, defaultStudyType)

	hits := s.SearchKnowledge(ctx, topic, "", difficulty, contextTopK)
	header := "주제에 대한 일반적인 지식을 바탕으로"
	ctxText := fmt.Sprintf("주제: %s에 대한 질문을 생성합니다.", topic)
	if len(hits) > 0 {
		header = "참고 자료:"
		ctxText = knowledgeContext(hits)
	}

	system := fmt.Sprintf(`당신은 반도체 공정 전문가입니다.
학생의 학습을 돕기 위해 %s %s 질문을 생성하세요.

주제: %s
난이도: %s
질문 유형: %s

%s
%s

질문은 구체적이고 명확하게 작성하세요. 반도체 공정에 대한 전문적인 질문을 만들어주세요.`,
		difficultyGuide[difficulty], typeGuide[qtype], topic, difficulty, qtype, header, ctxText)

	question, err := s.llm.Complete(ctx, s.models.Chat, []ai.ChatMessage{
		ai.SystemMessage(system),
		ai.UserMessage(fmt.Sprintf("%s에 대한 %s 난이도의 %s 질문을 1개 생성해주세요.", topic, difficulty, qtype)),
	}, ai.WithTemperature(questionTemp), ai.WithMaxTokens(s.maxTokens()))
	if err != nil {
		return nil, fmt.Errorf("%w: study question: %v", ErrGeneration, err)
	}

	prompt := &QuestionPrompt{Mode: ModeStudy, Question: strings.TrimSpace(question), Context: ctxText}
	if err := s.setCurrent(ctx, userID, prompt); err != nil {
		return nil, err
	}
	s.logger.Info("study question generated", "user_id", userID, "topic", topic, "references", len(hits))
	return prompt, nil
}

// InterviewQuestion generates one interview question, personalized when
// useProfile is set. focus narrows the reference search unless it is 전체.
func (s *PracticeService) InterviewQuestion(ctx context.Context, userID uint, useProfile bool, focus string) (*QuestionPrompt, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}

	var profile *model.StudentProfile
	if useProfile {
		p, err := s.profiles.Current(ctx, userID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrProfileRequired
		}
		profile = p
	}

	query := defaultFocusQuery
	if f := strings.TrimSpace(focus); f != "" && f != search.AllValue {
		query = f
	}
	hits := s.SearchKnowledge(ctx, query, "", "", contextTopK)
	ctxText := generalInterviewCtx
	if len(hits) > 0 {
		ctxText = knowledgeContext(hits)
	}

	var msgs []ai.ChatMessage
	if profile != nil {
		msgs = []ai.ChatMessage{
			ai.SystemMessage(fmt.Sprintf(`당신은 반도체 기업의 면접관입니다.
다음 학생의 프로필을 바탕으로 맞춤형 면접 질문을 생성하세요.

%s

질문 생성 가이드:
1. 학생의 구체적인 경험(프로젝트, 인턴 등)을 언급하며 질문
2. 관심 분야와 기술 스킬을 연결하여 심화 질문
3. 실제 경험에서 배운 점을 확인하는 질문
4. 이론과 실무를 연결하는 질문

예시:
- "ITO 박막 프로젝트에서 RF 파워를 어떻게 최적화했나요?"
- "MEMS 센서 제작 시 RIE 식각에서 어떤 어려움이 있었나요?"
- "ALD 공정에 관심이 많다고 했는데, CVD와 비교하여 장단점을 설명해주세요."

질문은 구체적이고 학생의 경험을 직접 언급해야 합니다.`, ProfileSummary(*profile))),
			ai.UserMessage("이 학생의 프로필을 바탕으로 맞춤형 면접 질문 1개를 생성해주세요. 학생의 구체적인 경험이나 프로젝트를 언급하세요."),
		}
	} else {
		header := "주제:"
		if len(hits) > 0 {
			header = "참고 자료:"
		}
		msgs = []ai.ChatMessage{
			ai.SystemMessage(fmt.Sprintf(`당신은 반도체 기업의 면접관입니다.
학부 수준의 지원자에게 적합한 기술 면접 질문을 생성하세요.

%s
%s

질문은 다음을 평가할 수 있어야 합니다:
- 반도체 공정에 대한 이론적 지식
- 문제 해결 능력
- 실무 적용 가능성
- 학습 태도

구체적인 공정 파라미터나 메커니즘을 포함한 질문을 만드세요.`, header, ctxText)),
			ai.UserMessage("반도체 공정 관련 면접 질문 1개를 생성해주세요. 구체적이고 기술적인 질문이어야 합니다."),
		}
	}

	question, err := s.llm.Complete(ctx, s.models.Chat, msgs, ai.WithTemperature(questionTemp), ai.WithMaxTokens(s.maxTokens()))
	if err != nil {
		return nil, fmt.Errorf("%w: interview question: %v", ErrGeneration, err)
	}

	prompt := &QuestionPrompt{Mode: ModeInterview, Question: strings.TrimSpace(question), Context: ctxText}
	if err := s.setCurrent(ctx, userID, prompt); err != nil {
		return nil, err
	}
	s.logger.Info("interview question generated", "user_id", userID, "personalized", profile != nil, "focus", query)
	return prompt, nil
}

// ProfileSummary renders the profile block of the personalized interview prompt.
func ProfileSummary(p model.StudentProfile) string {
	dump, _ := json.Marshal(p)
	return fmt.Sprintf(`학생 프로필:
- 학력: %s
- 주요 경험: %s
- 프로젝트: %s
- 관심 분야: %s
- 기술 스킬: %s

프로필 전체 데이터:
%s`,
		orDefault(string(p.Education), "N/A"),
		joinOr(firstN(p.Experiences, 3), ", ", "경험 정보 없음"),
		joinOr(firstN(p.Projects, 2), ", ", "프로젝트 정보 없음"),
		joinOr(firstN(p.Interests, 3), ", ", "관심 분야 정보 없음"),
		joinOr(firstN(p.Skills, 5), ", ", "스킬 정보 없음"),
		truncateRunes(string(dump), profileDumpLimit),
	)
}

type bankQuestionReply struct {
	Question                 string `json:"question"`
	Category                 string `json:"category"`
	Rationale                string `json:"rationale"`
	VisualizationNeeded      bool   `json:"visualization_needed"`
	VisualizationDescription string `json:"visualization_description"`
}

// BankQuestion tailors a question from the interview bank to a free-text
// candidate profile. When profileText is empty the analyzed profile is used.
func (s *PracticeService) BankQuestion(ctx context.Context, userID uint, profileText, difficulty string, useVisualization bool) (*QuestionPrompt, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	profileText = strings.TrimSpace(profileText)
	if profileText == "" {
		p, err := s.profiles.Current(ctx, userID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrProfileRequired
		}
		profileText = ProfileSummary(*p)
	}
	difficulty = orDefault(difficulty, defaultBankLevel)

	refs := s.searchBank(ctx, profileText)
	parts := make([]string, 0, len(refs))
	for i, r := range refs {
		parts = append(parts, fmt.Sprintf("참고 질문 %d:\n질문: %s\n카테고리: %s\n맥락: %s", i+1, r.Question, r.Category, r.Context))
	}

	vizFlag, vizHint := "아니오", ""
	if useVisualization {
		vizFlag = "예"
		vizHint = "만약 시각자료가 필요한 질문이라면, 어떤 시각자료(차트, 이미지 등)가 필요한지 명시하세요."
	}

	system := fmt.Sprintf(`당신은 전문 면접관입니다. 아래 검색된 질문들을 참고하여, 지원자에게 적합한 면접 질문을 생성하세요.

**중요**: 검색된 질문들의 맥락과 의도를 참고하되, 지원자의 프로필에 맞게 변형하거나 새로운 질문을 만들어야 합니다.
절대로 검색 결과를 그대로 출력하지 마세요. 할루시네이션을 피하기 위해 반드시 제공된 컨텍스트에 근거해야 합니다.

난이도: %s
시각자료 사용: %s

검색된 참고 질문들:
%s`, difficulty, vizFlag, strings.Join(parts, "\n\n"))

	user := fmt.Sprintf(`지원자 프로필: %s

위 참고 질문들을 바탕으로 이 지원자에게 적합한 면접 질문을 생성하세요.

%s

JSON 형식으로 응답:
{
    "question": "면접 질문",
    "category": "질문 카테고리",
    "rationale": "이 질문을 선택한 이유",
    "visualization_needed": true/false,
    "visualization_description": "필요한 시각자료 설명 (선택사항)"
}`, profileText, vizHint)

	raw, err := s.llm.Complete(ctx, s.models.Chat, []ai.ChatMessage{
		ai.SystemMessage(system),
		ai.UserMessage(user),
	}, ai.WithTemperature(bankQuestionTemp), ai.WithJSONResponse())
	if err != nil {
		return nil, fmt.Errorf("%w: bank question: %v", ErrGeneration, err)
	}
	var reply bankQuestionReply
	if err := ai.DecodeJSON(raw, &reply); err != nil || strings.TrimSpace(reply.Question) == "" {
		return nil, fmt.Errorf("%w: bank question reply unreadable", ErrGeneration)
	}

	prompt := &QuestionPrompt{
		Mode:                     ModeBank,
		Question:                 reply.Question,
		Context:                  referenceAnswers(refs),
		Category:                 reply.Category,
		Rationale:                reply.Rationale,
		VisualizationNeeded:      reply.VisualizationNeeded,
		VisualizationDescription: reply.VisualizationDescription,
		References:               refs,
	}
	if useVisualization && reply.VisualizationNeeded {
		prompt.VisualizationURL = s.visualize(ctx, reply.VisualizationDescription)
	}

	if err := s.setCurrent(ctx, userID, prompt); err != nil {
		return nil, err
	}
	s.logger.Info("bank question generated", "user_id", userID, "references", len(refs), "visualization", prompt.VisualizationURL != "")
	return prompt, nil
}

// searchBank is a hybrid search over the question bank keyed by the profile.
func (s *PracticeService) searchBank(ctx context.Context, profileText string) []BankReference {
	if !s.search.Enabled() {
		return []BankReference{}
	}
	vector, err := s.llm.Embed(ctx, s.models.Embedding, profileText)
	if err != nil {
		s.logger.Warn("bank search embedding failed", "error", err)
		return []BankReference{}
	}
	docs, err := s.search.Search(ctx, s.indexes.Questions, search.Query{
		Text:        profileText,
		Vector:      vector,
		VectorField: search.VectorField,
		K:           contextTopK,
		Select:      []string{"question", "category", "difficulty", "context", "sample_answer"},
		Top:         contextTopK,
	})
	if err != nil {
		s.logger.Warn("bank search failed", "error", err)
		return []BankReference{}
	}
	refs := make([]BankReference, 0, len(docs))
	for _, d := range docs {
		refs = append(refs, BankReference{
			Question:     d.String("question"),
			Category:     orDefault(d.String("category"), "일반"),
			Difficulty:   orDefault(d.String("difficulty"), defaultBankLevel),
			Context:      d.String("context"),
			SampleAnswer: d.String("sample_answer"),
		})
	}
	return refs
}

func referenceAnswers(refs []BankReference) string {
	parts := make([]string, 0, len(refs))
	for i, r := range refs {
		if r.SampleAnswer == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("참고 답변 예시 %d:\n%s", i+1, r.SampleAnswer))
	}
	return strings.Join(parts, "\n\n")
}

// visualize returns an image URL, or "" when image generation is off or fails.
func (s *PracticeService) visualize(ctx context.Context, description string) string {
	if s.models.Image.Model == "" || strings.TrimSpace(description) == "" {
		return ""
	}
	prompt := description
	if strings.Contains(description, "차트") || strings.Contains(description, "그래프") {
		prompt = "Professional business chart or graph: " + description
	}
	url, err := s.llm.GenerateImage(ctx, s.models.Image, prompt, visualizationSize)
	if err != nil {
		s.logger.Warn("visualization generation failed", "error", err)
		return ""
	}
	return url
}

func (s *PracticeService) setCurrent(ctx context.Context, userID uint, p *QuestionPrompt) error {
	st, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return err
	}
	st.CurrentQuestion = &session.CurrentQuestion{Mode: p.Mode, Question: p.Question, Context: p.Context}
	return s.sessions.Save(ctx, userID, st)
}

// Evaluate scores answer against the five criteria rubric and appends the
// result to the session.
func (s *PracticeService) Evaluate(ctx context.Context, userID uint, mode, question, answer, refContext string) (*model.Evaluation, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if userID == 0 || question == "" {
		return nil, ErrInvalidInput
	}
	if answer == "" {
		return nil, ErrEmptyAnswer
	}

	system := fmt.Sprintf(`당신은 반도체 공정 전문가이자 교육자입니다.
학생의 답변을 다음 5가지 기준으로 평가하세요:

1. 정확성 (30점): 기술적 정확도, 용어 사용, 수치 정확성
2. 깊이 (25점): 원리 이해도, 메커니즘 설명, 이론적 배경
3. 구조 (20점): 논리적 흐름, 체계적 설명, 명확성
4. 응용 (15점): 실무/실습 연결, 문제 해결 접근
5. 의사소통 (10점): 표현력, 용어 정리, 설명 명확성

참고 자료:
%s

질문: %s
답변: %s

다음 형식으로 JSON 응답하세요:
{
    "scores": {
        "accuracy": <0-30>,
        "depth": <0-25>,
        "structure": <0-20>,
        "application": <0-15>,
        "communication": <0-10>
    },
    "total_score": <총점>,
    "strengths": ["강점1", "강점2"],
    "improvements": ["개선점1", "개선점2"],
    "detailed_feedback": "상세 피드백",
    "recommended_topics": ["복습 추천 주제1", "추천 주제2"]
}`, refContext, question, answer)

	raw, err := s.llm.Complete(ctx, s.models.Chat, []ai.ChatMessage{
		ai.SystemMessage(system),
		ai.UserMessage("다음 답변을 평가해주세요:\n\n" + answer),
	}, ai.WithTemperature(evaluationTemp), ai.WithMaxTokens(s.maxTokens()))
	if err != nil {
		return nil, fmt.Errorf("%w: evaluation: %v", ErrGeneration, err)
	}

	var eval model.Evaluation
	if err := ai.DecodeJSON(raw, &eval); err != nil {
		s.logger.Warn("evaluation unreadable", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrEvaluationParse, err)
	}
	eval.Strengths = nonNil(eval.Strengths)
	eval.Improvements = nonNil(eval.Improvements)
	eval.RecommendedTopics = nonNil(eval.RecommendedTopics)

	rec := model.QARecord{
		Mode:       orDefault(mode, ModeStudy),
		Question:   question,
		Answer:     answer,
		Evaluation: eval,
		Timestamp:  time.Now(),
	}
	st, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	st.QA = append(st.QA, rec)
	if err := s.sessions.Save(ctx, userID, st); err != nil {
		return nil, err
	}

	if _, err := blobstore.SaveQARecord(ctx, s.blobs, strconv.FormatUint(uint64(userID), 10), rec); err != nil && !errors.Is(err, blobstore.ErrStorageDisabled) {
		s.logger.Warn("save qa record blob failed", "user_id", userID, "error", err)
	}

	s.logger.Info("answer evaluated", "user_id", userID, "mode", rec.Mode, "total", eval.Total(), "session_size", len(st.QA))
	return &eval, nil
}

// AnswerCurrent evaluates an answer to the last question handed out. A
// recording takes precedence over text; when transcription fails the text
// answer is used instead.
func (s *PracticeService) AnswerCurrent(ctx context.Context, userID uint, textAnswer string, audio []byte) (*AnswerResult, error) {
	st, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st.CurrentQuestion == nil {
		return nil, ErrNoCurrentQuestion
	}
	current := *st.CurrentQuestion

	answer, transcribed := strings.TrimSpace(textAnswer), false
	if len(audio) > 0 {
		text, err := s.AnswerFromAudio(ctx, audio)
		switch {
		case err != nil:
			s.logger.Warn("transcription failed, using text answer", "user_id", userID, "error", err)
		case strings.TrimSpace(text) != "":
			answer, transcribed = strings.TrimSpace(text), true
		}
	}
	if answer == "" {
		return nil, ErrEmptyAnswer
	}

	eval, err := s.Evaluate(ctx, userID, current.Mode, current.Question, answer, current.Context)
	if err != nil {
		return nil, err
	}
	return &AnswerResult{
		Answer:      answer,
		Transcribed: transcribed,
		Evaluation:  *eval,
		Feedback:    FeedbackText(*eval),
	}, nil
}

func (s *PracticeService) AnswerFromAudio(ctx context.Context, audio []byte) (string, error) {
	return s.speech.Recognize(ctx, audio)
}

// Speak returns nil audio when speech is not configured.
func (s *PracticeService) Speak(ctx context.Context, text string) ([]byte, error) {
	if !s.speech.Enabled() {
		return nil, nil
	}
	return s.speech.Synthesize(ctx, text)
}

// FeedbackText is the spoken summary of an evaluation.
func FeedbackText(e model.Evaluation) string {
	return fmt.Sprintf("평가 점수: %s점\n\n강점: %s\n\n개선점: %s\n\n피드백: %s",
		strconv.FormatFloat(e.Total(), 'f', -1, 64),
		joinOr(e.Strengths, ", ", "없음"),
		joinOr(e.Improvements, ", ", "없음"),
		e.DetailedFeedback,
	)
}

// ClearSession drops answered questions and the current question. The
// analyzed profile and the requirement chat are kept.
func (s *PracticeService) ClearSession(ctx context.Context, userID uint) error {
	st, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return err
	}
	st.QA = nil
	st.CurrentQuestion = nil
	if err := s.sessions.Save(ctx, userID, st); err != nil {
		return err
	}
	s.logger.Info("practice session cleared", "user_id", userID)
	return nil
}

// SessionSummary averages over answers that carry a total score.
func (s *PracticeService) SessionSummary(ctx context.Context, userID uint) (*SessionSummary, error) {
	st, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &SessionSummary{
		QuestionCount:   len(st.QA),
		HasProfile:      st.Profile != nil,
		CurrentQuestion: st.CurrentQuestion,
	}
	var sum float64
	for _, r := range st.QA {
		if r.Evaluation.TotalScore == nil {
			continue
		}
		sum += *r.Evaluation.TotalScore
		out.ScoredCount++
	}
	if out.ScoredCount > 0 {
		out.AverageScore = sum / float64(out.ScoredCount)
	}
	return out, nil
}

func (s *PracticeService) maxTokens() int {
	if s.models.MaxTokens > 0 {
		return s.models.MaxTokens
	}
	return completionTokenBudget
}
