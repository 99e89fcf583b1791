package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gopherai-interview/internal/ai"
	"gopherai-interview/internal/model"
	"gopherai-interview/internal/search"
	"gopherai-interview/internal/session"
)

const (
	documentPromptLimit   = 3000
	statsScanLimit        = 1000
	defaultDocumentCount  = 10
	requirementTemp       = 0.7
	questionGenerateTemp  = 0.8
	defaultBankCategory   = "기술역량"
	defaultBankDifficulty = "중"
)

const requirementSystemPrompt = `당신은 면접 질문 큐레이터입니다. 사용자와 대화하면서 다음 정보를 수집하세요:

1. 직무/분야: 어떤 직무의 면접인가? (예: 백엔드 개발자, 공정 엔지니어, PM)
2. 경력 수준: 신입, 주니어(1-3년), 미드(3-7년), 시니어(7년+)
3. 기술 스택/도메인: 특정 기술이나 도메인
4. 질문 개수: 몇 개의 질문이 필요한가? (기본 20개)
5. 난이도 분포: 쉬움/중간/어려움 비율 (기본 3:5:2)
6. 중점 평가 영역: 기술역량, 소프트스킬, 문제해결, 리더십 등

대화 전략:
- 자연스럽게 필요한 정보를 물어보세요
- 이미 제공된 정보는 다시 묻지 마세요
- 모든 정보가 수집되면 요약하고 확인을 요청하세요

응답 형식 (JSON):
{
  "response": "사용자에게 보낼 친근한 메시지",
  "is_complete": true/false,
  "collected_info": {
    "position": "직무명 또는 null",
    "experience_level": "경력수준 또는 null",
    "tech_stack": "기술스택 또는 null",
    "question_count": 숫자 또는 null,
    "difficulty_ratio": {"easy": 3, "medium": 5, "hard": 2} 또는 null,
    "focus_areas": ["영역1", "영역2"] 또는 null
  },
  "next_question": "다음에 물어볼 것 (is_complete가 false일 때)"
}`

// RequirementReply is one turn of the requirement chat.
type RequirementReply struct {
	Response      string                     `json:"response"`
	IsComplete    bool                       `json:"is_complete"`
	CollectedInfo model.QuestionRequirements `json:"collected_info"`
	NextQuestion  string                     `json:"next_question"`
}

// DifficultyBand is how many questions one generation call produces.
type DifficultyBand struct {
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

type GenerateResult struct {
	Questions []model.Question    `json:"questions"`
	Upload    search.UploadResult `json:"upload"`
}

// QuestionBankService builds the interview question index from a chat about
// requirements or from an uploaded document.
type QuestionBankService struct {
	llm      LLM
	search   SearchIndex
	sessions session.Store
	models   Models
	index    string
	dims     int
	logger   *slog.Logger
}

func NewQuestionBankService(llm LLM, searchIndex SearchIndex, sessions session.Store, models Models, index string, dims int, logger *slog.Logger) *QuestionBankService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionBankService{
		llm:      llm,
		search:   searchIndex,
		sessions: sessions,
		models:   models,
		index:    index,
		dims:     dims,
		logger:   logger.With("service", "question_bank"),
	}
}

// ChatForRequirements runs one turn of the requirement conversation. The
// conversation is only extended when the model reply decodes.
func (s *QuestionBankService) ChatForRequirements(ctx context.Context, userID uint, message string) (*RequirementReply, error) {
	return s.requirementTurn(ctx, userID, message, func(msgs []ai.ChatMessage) (string, error) {
		return s.llm.Complete(ctx, s.models.Chat, msgs, ai.WithTemperature(requirementTemp), ai.WithJSONResponse())
	})
}

// StreamRequirements is ChatForRequirements with the raw reply forwarded to
// onChunk while it arrives.
func (s *QuestionBankService) StreamRequirements(ctx context.Context, userID uint, message string, onChunk func(string) error) (*RequirementReply, error) {
	return s.requirementTurn(ctx, userID, message, func(msgs []ai.ChatMessage) (string, error) {
		return s.llm.StreamComplete(ctx, s.models.Chat, msgs, onChunk, ai.WithTemperature(requirementTemp), ai.WithJSONResponse())
	})
}

func (s *QuestionBankService) requirementTurn(ctx context.Context, userID uint, message string, call func([]ai.ChatMessage) (string, error)) (*RequirementReply, error) {
	message = strings.TrimSpace(message)
	if userID == 0 || message == "" {
		return nil, ErrInvalidInput
	}

	st, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	history := append(st.RequirementChat, ai.UserMessage(message))
	msgs := append([]ai.ChatMessage{ai.SystemMessage(requirementSystemPrompt)}, history...)

	raw, err := call(msgs)
	if err != nil {
		return nil, fmt.Errorf("%w: requirement chat: %v", ErrGeneration, err)
	}

	var reply RequirementReply
	if err := ai.DecodeJSON(raw, &reply); err != nil {
		return nil, fmt.Errorf("%w: requirement chat: %v", ErrGeneration, err)
	}

	st.RequirementChat = append(history, ai.ChatMessage{Role: "assistant", Content: raw})
	if reply.IsComplete {
		reqs := reply.CollectedInfo
		st.Requirements = &reqs
	}
	if err := s.sessions.Save(ctx, userID, st); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ResetRequirements drops the requirement conversation.
func (s *QuestionBankService) ResetRequirements(ctx context.Context, userID uint) error {
	st, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return err
	}
	st.RequirementChat = nil
	st.Requirements = nil
	return s.sessions.Save(ctx, userID, st)
}

// SplitByDifficulty distributes count over 하/중/상. Easy and medium are
// floored and hard takes the remainder.
func SplitByDifficulty(count int, ratio model.DifficultyRatio) []DifficultyBand {
	total := ratio.Total()
	if total <= 0 {
		ratio = model.DefaultDifficultyRatio()
		total = ratio.Total()
	}
	easy := count * ratio.Easy / total
	medium := count * ratio.Medium / total
	hard := count - easy - medium
	return []DifficultyBand{
		{Difficulty: "하", Count: easy},
		{Difficulty: "중", Count: medium},
		{Difficulty: "상", Count: hard},
	}
}

func (s *QuestionBankService) GenerateQuestions(ctx context.Context, req model.QuestionRequirements) ([]model.Question, error) {
	r := req.WithDefaults()

	var all []model.Question
	for _, band := range SplitByDifficulty(r.QuestionCount, *r.DifficultyRatio) {
		if band.Count <= 0 {
			continue
		}
		prompt := fmt.Sprintf(`다음 조건에 맞는 면접 질문 %d개를 생성하세요:

면접 대상:
- 직무: %s
- 경력: %s
- 기술 스택: %s
- 난이도: %s
- 중점 영역: %s

질문 생성 가이드라인:
1. 실제 면접에서 나올 법한 현실적인 질문
2. 지원자의 경력 수준에 맞는 깊이
3. 기술 스택과 관련된 구체적인 질문
4. 평가 가능한 명확한 기준 포함
5. 각 질문마다 모범 답변 예시 포함

난이도별 가이드:
- 하: 기본 개념, 경험 중심, 정의 설명
- 중: 실무 적용, 트레이드오프, 문제 해결
- 상: 깊은 이해, 아키텍처, 최적화, 설계 철학

{"questions": [{"question": "구체적인 질문", "category": "기술역량 또는 소프트스킬", "context": "이 질문으로 무엇을 평가하려는지", "sample_answer": "모범 답변 예시 (2-3문장)", "tags": ["태그1", "태그2", "태그3"], "evaluation_criteria": ["평가기준1", "평가기준2"]}]} 형식의 JSON으로 반환하세요.`,
			band.Count, r.Position, r.ExperienceLevel, r.TechStack, band.Difficulty, strings.Join(r.FocusAreas, ", "))

		raw, err := s.llm.Complete(ctx, s.models.Chat, []ai.ChatMessage{
			ai.SystemMessage("당신은 전문 면접 설계자입니다. 현실적이고 평가 가능한 면접 질문을 만듭니다."),
			ai.UserMessage(prompt),
		}, ai.WithTemperature(questionGenerateTemp), ai.WithJSONResponse())
		if err != nil {
			return nil, fmt.Errorf("%w: %s band: %v", ErrGeneration, band.Difficulty, err)
		}
		questions, err := ai.DecodeJSONList[model.Question](raw, "questions")
		if err != nil {
			return nil, fmt.Errorf("%w: %s band: %v", ErrGeneration, band.Difficulty, err)
		}
		for i := range questions {
			questions[i].Difficulty = band.Difficulty
			questions[i].Position = r.Position
			questions[i].ExperienceLevel = r.ExperienceLevel
			questions[i].TechStack = r.TechStack
		}
		s.logger.Info("question band generated", "difficulty", band.Difficulty, "requested", band.Count, "received", len(questions))
		all = append(all, questions...)
	}
	return all, nil
}

// GenerateFromDocument asks for n questions grounded in the first part of text.
func (s *QuestionBankService) GenerateFromDocument(ctx context.Context, text string, n int) ([]model.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidInput
	}
	if n <= 0 {
		n = defaultDocumentCount
	}

	prompt := fmt.Sprintf(`다음 문서를 분석하여 관련된 면접 질문 %d개를 생성하세요:

문서 내용:
%s

생성 가이드라인:
1. 문서에서 언급된 기술, 스킬, 요구사항을 기반으로 질문 생성
2. 해당 직무/분야에서 실제로 물어볼 법한 질문
3. 문서의 맥락과 연관된 실무 중심 질문
4. 다양한 난이도 (30%% 쉬움, 50%% 중간, 20%% 어려움)

{"questions": [{"question": "질문", "category": "기술역량 또는 소프트스킬", "difficulty": "하, 중, 상", "context": "평가 목적", "sample_answer": "모범 답변", "tags": ["태그1", "태그2"], "document_relevance": "문서의 어떤 부분과 연관되는지"}]} 형식의 JSON으로 반환하세요.`,
		n, truncateRunes(text, documentPromptLimit))

	raw, err := s.llm.Complete(ctx, s.models.Chat, []ai.ChatMessage{
		ai.SystemMessage("당신은 문서 분석 및 면접 질문 생성 전문가입니다."),
		ai.UserMessage(prompt),
	}, ai.WithTemperature(questionGenerateTemp), ai.WithJSONResponse())
	if err != nil {
		return nil, fmt.Errorf("%w: document questions: %v", ErrGeneration, err)
	}
	questions, err := ai.DecodeJSONList[model.Question](raw, "questions")
	if err != nil {
		return nil, fmt.Errorf("%w: document questions: %v", ErrGeneration, err)
	}
	return questions, nil
}

func (s *QuestionBankService) EnsureIndex(ctx context.Context) error {
	return s.search.CreateOrUpdateIndex(ctx, search.QuestionIndexSchema(s.index, s.dims))
}

// Upload embeds and stores questions under ids that continue from the
// current maximum.
func (s *QuestionBankService) Upload(ctx context.Context, questions []model.Question) (search.UploadResult, error) {
	return s.upload(ctx, questions, true)
}

// Seed uploads questions under their own ids.
func (s *QuestionBankService) Seed(ctx context.Context, questions []model.Question) (search.UploadResult, error) {
	return s.upload(ctx, questions, false)
}

func (s *QuestionBankService) upload(ctx context.Context, questions []model.Question, assignIDs bool) (search.UploadResult, error) {
	if len(questions) == 0 {
		return search.UploadResult{}, nil
	}
	if !s.search.Enabled() {
		return search.UploadResult{}, search.ErrNotConfigured
	}

	texts := make([]string, len(questions))
	for i, q := range questions {
		texts[i] = fmt.Sprintf("%s %s %s", q.Question, q.Context, strings.Join(q.Tags, " "))
	}
	vectors, err := embedAll(ctx, s.llm, s.models.Embedding, texts)
	if err != nil {
		return search.UploadResult{}, err
	}

	ids := s.questionIDs(ctx, questions, assignIDs)
	docs := make([]search.Document, 0, len(questions))
	for i, q := range questions {
		id, vector := ids[i], vectors[i]
		docs = append(docs, search.Document{
			"id":                  id,
			"question":            q.Question,
			"category":            orDefault(q.Category, defaultBankCategory),
			"difficulty":          orDefault(q.Difficulty, defaultBankDifficulty),
			"context":             q.Context,
			"sample_answer":       q.SampleAnswer,
			search.VectorField:    vector,
			"tags":                nonNil(q.Tags),
			"position":            q.Position,
			"experience_level":    q.ExperienceLevel,
			"tech_stack":          q.TechStack,
			"evaluation_criteria": nonNil(q.EvaluationCriteria),
		})
	}

	result, err := s.search.Upload(ctx, s.index, docs)
	if err != nil {
		return search.UploadResult{}, err
	}
	s.logger.Info("questions uploaded", "index", s.index, "success", result.Success, "failed", result.Failed)
	return result, nil
}

// questionIDs continues from the index maximum for new questions. Seeded
// questions keep their own ids and only the ones without an id are numbered,
// starting above both the index and the batch.
func (s *QuestionBankService) questionIDs(ctx context.Context, questions []model.Question, assignIDs bool) []string {
	ids := make([]string, len(questions))
	missing := assignIDs
	maxSeeded := 0
	for i, q := range questions {
		if assignIDs {
			continue
		}
		ids[i] = q.ID
		if q.ID == "" {
			missing = true
		} else if n, err := strconv.Atoi(q.ID); err == nil && n > maxSeeded {
			maxSeeded = n
		}
	}
	if !missing {
		return ids
	}

	next := max(s.search.NextID(ctx, s.index), maxSeeded+1)
	for i := range ids {
		if ids[i] == "" {
			ids[i] = strconv.Itoa(next)
			next++
		}
	}
	return ids
}

func (s *QuestionBankService) Stats(ctx context.Context) (*model.BankStats, error) {
	docs, err := s.search.Search(ctx, s.index, search.Query{
		Text:   "*",
		Select: []string{"category", "difficulty", "position", "tech_stack"},
		Top:    statsScanLimit,
	})
	if err != nil {
		return nil, err
	}

	stats := &model.BankStats{
		TotalQuestions: len(docs),
		ByCategory:     map[string]int{},
		ByDifficulty:   map[string]int{},
		ByPosition:     map[string]int{},
	}
	for _, d := range docs {
		stats.ByCategory[orDefault(d.String("category"), "기타")]++
		stats.ByDifficulty[orDefault(d.String("difficulty"), defaultBankDifficulty)]++
		if pos := d.String("position"); pos != "" {
			stats.ByPosition[pos]++
		}
	}
	return stats, nil
}

// GenerateAndUpload builds a bank from the requirements collected in chat.
func (s *QuestionBankService) GenerateAndUpload(ctx context.Context, userID uint) (*GenerateResult, error) {
	st, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st.Requirements == nil {
		return nil, ErrRequirementsIncomplete
	}

	questions, err := s.GenerateQuestions(ctx, *st.Requirements)
	if err != nil {
		return nil, err
	}
	result, err := s.Upload(ctx, questions)
	if err != nil {
		return &GenerateResult{Questions: questions}, err
	}
	return &GenerateResult{Questions: questions, Upload: result}, nil
}
