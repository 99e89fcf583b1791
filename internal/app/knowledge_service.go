package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"gopherai-interview/internal/ai"
	"gopherai-interview/internal/docparse"
	"gopherai-interview/internal/model"
	"gopherai-interview/internal/search"
	"gopherai-interview/internal/seed"
)

const (
	knowledgeChunkLimit = 2000
	knowledgeTemp       = 0.3
	studyQuestionTemp   = 0.7

	defaultProcessCategory = "이론"
	defaultQuestionType    = "개념이해"
	defaultStudyDifficulty = "중급"
)

// ProcessResult counts what one batch of course material produced.
type ProcessResult struct {
	FilesProcessed     int                 `json:"files_processed"`
	FilesSkipped       []string            `json:"files_skipped,omitempty"`
	ChunksExtracted    int                 `json:"chunks_extracted"`
	KnowledgeItems     int                 `json:"knowledge_items"`
	QuestionsGenerated int                 `json:"questions_generated"`
	UploadResult       search.UploadResult `json:"upload_result"`
}

type SeedResult struct {
	Interview search.UploadResult `json:"interview"`
	Knowledge search.UploadResult `json:"knowledge"`
}

// KnowledgeService turns lecture material into study questions in the
// knowledge index.
type KnowledgeService struct {
	llm    LLM
	search SearchIndex
	models Models
	index  string
	dims   int
	logger *slog.Logger
}

func NewKnowledgeService(llm LLM, searchIndex SearchIndex, models Models, index string, dims int, logger *slog.Logger) *KnowledgeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &KnowledgeService{
		llm:    llm,
		search: searchIndex,
		models: models,
		index:  index,
		dims:   dims,
		logger: logger.With("service", "knowledge"),
	}
}

// ExtractKnowledge makes one call per chunk. Chunks the model cannot tie to a
// process, and chunks whose call fails, are skipped.
func (s *KnowledgeService) ExtractKnowledge(ctx context.Context, chunks []docparse.Chunk) []model.KnowledgeItem {
	items := make([]model.KnowledgeItem, 0, len(chunks))
	for _, chunk := range chunks {
		prompt := fmt.Sprintf(`다음 반도체 공정 수업자료에서 핵심 지식을 추출하세요:

원문:
%s

추출할 정보:
1. 주요 공정 카테고리 (증착, 식각, 리소그래피 등)
2. 핵심 개념 및 용어
3. 이론적 배경
4. 실무 응용 사례
5. 중요 수식 또는 파라미터
6. 학습 포인트

JSON 형식으로 반환:
{
  "process_category": "해당 공정 (증착, 식각 등)",
  "key_concepts": ["개념1", "개념2"],
  "theory": "이론적 설명 (2-3문장)",
  "equations": ["수식1", "수식2"],
  "parameters": ["파라미터1", "파라미터2"],
  "applications": "실무 응용",
  "learning_points": ["학습포인트1", "학습포인트2"],
  "difficulty": "기초/중급/고급"
}

공정과 관련 없는 내용이면 process_category를 빈 문자열로 두세요.`, truncateRunes(chunk.Content, knowledgeChunkLimit))

		raw, err := s.llm.Complete(ctx, s.models.Chat, []ai.ChatMessage{
			ai.SystemMessage("당신은 반도체 공정 전문가입니다. 수업자료에서 핵심 지식을 추출합니다."),
			ai.UserMessage(prompt),
		}, ai.WithTemperature(knowledgeTemp), ai.WithJSONResponse())
		if err != nil {
			s.logger.Warn("knowledge extraction failed", "source", chunk.Source, "page", chunk.Page, "error", err)
			continue
		}

		var item model.KnowledgeItem
		if err := ai.DecodeJSON(raw, &item); err != nil {
			s.logger.Warn("knowledge extraction unreadable", "source", chunk.Source, "page", chunk.Page, "error", err)
			continue
		}
		if strings.TrimSpace(item.ProcessCategory) == "" {
			continue
		}
		item.OriginalContent = chunk.Content
		item.Source = chunk.Source
		item.Page = chunk.Page
		items = append(items, item)
	}
	return items
}

// GenerateStudyQuestions asks for five questions, one per question type. A
// failed call yields no questions.
func (s *KnowledgeService) GenerateStudyQuestions(ctx context.Context, item model.KnowledgeItem) []model.StudyQuestion {
	prompt := fmt.Sprintf(`다음 반도체 공정 지식을 기반으로 학부생용 학습 질문 5개를 생성하세요:

공정: %s
핵심 개념: %s
이론: %s

질문 유형별로 생성:
1. 개념 이해 질문 (1개)
2. 원리 설명 질문 (1개)
3. 응용 문제 (1개)
4. 비교/대조 질문 (1개)
5. 실무 상황 질문 (1개)

{"questions": [{"question": "질문 내용", "question_type": "개념이해/원리설명/응용/비교/실무", "difficulty": "기초/중급/고급", "answer": "모범 답변 (2-3문장)", "keywords": ["키워드1", "키워드2"], "related_concepts": ["관련개념1", "관련개념2"]}]} 형식의 JSON으로 반환하세요.`,
		orDefault(item.ProcessCategory, "N/A"), strings.Join(item.KeyConcepts, ", "), orDefault(item.Theory, "N/A"))

	raw, err := s.llm.Complete(ctx, s.models.Chat, []ai.ChatMessage{
		ai.SystemMessage("당신은 반도체 공학 교수입니다. 효과적인 학습 질문을 만듭니다."),
		ai.UserMessage(prompt),
	}, ai.WithTemperature(studyQuestionTemp), ai.WithJSONResponse())
	if err != nil {
		s.logger.Warn("study question generation failed", "process", item.ProcessCategory, "error", err)
		return nil
	}
	questions, err := ai.DecodeJSONList[model.StudyQuestion](raw, "questions")
	if err != nil {
		s.logger.Warn("study questions unreadable", "process", item.ProcessCategory, "error", err)
		return nil
	}
	for i := range questions {
		questions[i].ProcessCategory = item.ProcessCategory
		questions[i].Source = item.Source
		if questions[i].Theory == "" {
			questions[i].Theory = item.Theory
		}
	}
	return questions
}

func (s *KnowledgeService) EnsureIndex(ctx context.Context) error {
	return s.search.CreateOrUpdateIndex(ctx, search.KnowledgeIndexSchema(s.index, s.dims))
}

// Upload embeds question, answer and keywords and stores the questions under
// ids that continue from the current maximum.
func (s *KnowledgeService) Upload(ctx context.Context, questions []model.StudyQuestion) (search.UploadResult, error) {
	if len(questions) == 0 {
		return search.UploadResult{}, nil
	}
	if !s.search.Enabled() {
		return search.UploadResult{}, search.ErrNotConfigured
	}

	texts := make([]string, len(questions))
	for i, q := range questions {
		texts[i] = fmt.Sprintf("%s %s %s", q.Question, q.Answer, strings.Join(q.Keywords, " "))
	}
	vectors, err := embedAll(ctx, s.llm, s.models.Embedding, texts)
	if err != nil {
		return search.UploadResult{}, fmt.Errorf("embed study questions failed: %w", err)
	}

	start := s.search.NextID(ctx, s.index)
	docs := make([]search.Document, 0, len(questions))
	for i, q := range questions {
		vector := vectors[i]
		docs = append(docs, search.Document{
			"id":               strconv.Itoa(start + i),
			"question":         q.Question,
			"answer":           q.Answer,
			"process_category": orDefault(q.ProcessCategory, defaultProcessCategory),
			"question_type":    orDefault(q.QuestionType, defaultQuestionType),
			"difficulty":       orDefault(q.Difficulty, defaultStudyDifficulty),
			"theory":           q.Theory,
			"source":           q.Source,
			search.VectorField: vector,
			"keywords":         nonNil(q.Keywords),
			"related_concepts": nonNil(q.RelatedConcepts),
		})
	}

	result, err := s.search.Upload(ctx, s.index, docs)
	if err != nil {
		return search.UploadResult{}, err
	}
	s.logger.Info("study questions uploaded", "index", s.index, "success", result.Success, "failed", result.Failed)
	return result, nil
}

// ParseFiles extracts chunks from every supported file. Unsupported and
// unreadable files are reported by name.
func (s *KnowledgeService) ParseFiles(files []docparse.File) ([]docparse.Chunk, []string) {
	var chunks []docparse.Chunk
	var skipped []string
	for _, f := range files {
		name := filepath.Base(f.Name)
		if !docparse.Supported(name) {
			s.logger.Warn("unsupported material skipped", "file", name)
			skipped = append(skipped, name)
			continue
		}
		parsed, err := docparse.Parse(name, f.Data)
		if err != nil {
			s.logger.Warn("material parse failed", "file", name, "error", err)
			skipped = append(skipped, name)
			continue
		}
		chunks = append(chunks, parsed...)
	}
	return chunks, skipped
}

// ProcessMaterials runs parse, extract, generate, index and upload for one
// batch of files.
func (s *KnowledgeService) ProcessMaterials(ctx context.Context, files []docparse.File) (*ProcessResult, error) {
	if len(files) == 0 {
		return nil, ErrInvalidInput
	}

	chunks, skipped := s.ParseFiles(files)
	result := &ProcessResult{
		FilesProcessed:  len(files) - len(skipped),
		FilesSkipped:    skipped,
		ChunksExtracted: len(chunks),
	}
	s.logger.Info("materials parsed", "files", len(files), "chunks", len(chunks))

	items := s.ExtractKnowledge(ctx, chunks)
	result.KnowledgeItems = len(items)

	var questions []model.StudyQuestion
	for _, item := range items {
		questions = append(questions, s.GenerateStudyQuestions(ctx, item)...)
	}
	result.QuestionsGenerated = len(questions)
	s.logger.Info("study questions generated", "knowledge_items", len(items), "questions", len(questions))

	if len(questions) == 0 {
		return result, nil
	}
	if err := s.EnsureIndex(ctx); err != nil {
		return result, err
	}
	upload, err := s.Upload(ctx, questions)
	if err != nil {
		return result, err
	}
	result.UploadResult = upload
	return result, nil
}

// SeedIndexes creates both indexes and loads the embedded sample banks.
func (s *KnowledgeService) SeedIndexes(ctx context.Context, bank *QuestionBankService) (*SeedResult, error) {
	interview, err := seed.InterviewQuestions()
	if err != nil {
		return nil, err
	}
	study, err := seed.StudyQuestions()
	if err != nil {
		return nil, err
	}

	if err := bank.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	if err := s.EnsureIndex(ctx); err != nil {
		return nil, err
	}

	result := &SeedResult{}
	if result.Interview, err = bank.Seed(ctx, interview); err != nil {
		return result, err
	}
	if result.Knowledge, err = s.Upload(ctx, study); err != nil {
		return result, err
	}
	return result, nil
}

// LoadFile wraps raw bytes for ProcessMaterials.
func LoadFile(name string, data []byte) docparse.File {
	return docparse.File{Name: name, Data: bytes.Clone(data)}
}
