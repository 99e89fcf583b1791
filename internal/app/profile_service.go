package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopherai-interview/internal/ai"
	"gopherai-interview/internal/model"
	"gopherai-interview/internal/session"
)

const (
	profileTextLimit      = 2000
	analysisTextLimit     = 3000
	profileTemp           = 0.3
	personalizedTemp      = 0.8
	deepDiveTemp          = 0.7
	defaultPersonalized   = 15
	completionTokenBudget = 2000
)

const profileSystemPrompt = `당신은 반도체 분야 채용 전문가입니다.
이력서와 자기소개서를 분석하여 다음 정보를 **매우 상세하게** 추출하세요:

1. education: 대학, 학과, 학년, GPA (문자열)
2. experiences: 프로젝트/인턴/실습 경험 목록 (리스트, 각 항목에 제목과 간단한 설명)
3. projects: 구체적인 프로젝트 목록 (리스트, 프로젝트명과 사용 기술)
4. skills: 기술 스킬 목록 (리스트)
   - 증착 장비: 스퍼터링, CVD, ALD 등
   - 식각 장비: RIE, 습식 식각 등
   - 분석 장비: XRD, SEM, TEM, XPS 등
   - 소프트웨어: MATLAB, Python 등
5. interests: 관심 분야 목록 (리스트, 증착/식각/리소그래피 등)
6. career_goal: 단기/장기 커리어 목표 (문자열)
7. strengths: 강점 목록 (리스트)
8. weaknesses: 보완이 필요한 부분 (리스트)

**매우 중요**:
- 모든 리스트 항목은 구체적으로 작성
- 프로젝트 경험은 반드시 포함 (예: "ITO 박막 증착 프로젝트")
- 기술 스킬은 장비 이름까지 구체적으로 (예: "RF 스퍼터링", "RIE 식각")

반드시 다음 형식의 JSON으로 응답하세요:
{
    "education": "서울대학교 재료공학부 3학년, GPA 3.82/4.3",
    "experiences": [
        "ITO 박막 증착 최적화 프로젝트 (RF 스퍼터링)",
        "MEMS 압력센서 제작 실습",
        "저온 ALD 공정 연구 (인턴)"
    ],
    "projects": [
        "ITO 박막 증착 프로젝트",
        "MEMS 센서 제작"
    ],
    "skills": [
        "RF 스퍼터링",
        "RIE 식각",
        "XRD 분석",
        "Python"
    ],
    "interests": [
        "박막 증착",
        "CVD 공정",
        "공정 최적화"
    ],
    "career_goal": "대기업 공정 엔지니어 목표",
    "strengths": ["끈기", "실험 설계"],
    "weaknesses": ["영어 커뮤니케이션"]
}`

// ProfileResult is the analyzed profile. Partial marks the fallback profile
// stored when the reply could not be decoded.
type ProfileResult struct {
	Profile model.StudentProfile `json:"profile"`
	Partial bool                 `json:"partial"`
}

// DetailedProfile is the resume and statement breakdown used for
// personalized question generation.
type DetailedProfile struct {
	Resume    model.ResumeAnalysis    `json:"resume_analysis"`
	Statement model.StatementAnalysis `json:"statement_analysis"`
	Summary   string                  `json:"summary"`
	CreatedAt time.Time               `json:"created_at"`
}

type ProfileService struct {
	llm      LLM
	sessions session.Store
	profiles ProfileStore
	models   Models
	logger   *slog.Logger
}

// NewProfileService accepts a nil profile store when MySQL is disabled.
func NewProfileService(llm LLM, sessions session.Store, profiles ProfileStore, models Models, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		llm:      llm,
		sessions: sessions,
		profiles: profiles,
		models:   models,
		logger:   logger.With("service", "profile"),
	}
}

// AnalyzeProfile extracts the student profile and keeps it for interview
// mode. An undecodable reply still stores the fallback profile and returns
// it together with ErrProfileParse.
func (s *ProfileService) AnalyzeProfile(ctx context.Context, userID uint, resumeText, statementText string) (*ProfileResult, error) {
	resumeText = strings.TrimSpace(resumeText)
	statementText = strings.TrimSpace(statementText)
	if userID == 0 || resumeText == "" || statementText == "" {
		return nil, ErrInvalidInput
	}

	user := fmt.Sprintf("다음 이력서와 자기소개서를 분석하여 위 형식의 JSON으로 추출해주세요:\n\n이력서:\n%s\n\n자기소개서:\n%s",
		truncateRunes(resumeText, profileTextLimit), truncateRunes(statementText, profileTextLimit))

	raw, err := s.llm.Complete(ctx, s.models.Chat, []ai.ChatMessage{
		ai.SystemMessage(profileSystemPrompt),
		ai.UserMessage(user),
	}, ai.WithTemperature(profileTemp), ai.WithMaxTokens(s.maxTokens()))
	if err != nil {
		return nil, fmt.Errorf("%w: profile analysis: %v", ErrGeneration, err)
	}

	result := &ProfileResult{}
	var parseErr error
	if err := ai.DecodeJSON(raw, &result.Profile); err != nil {
		s.logger.Warn("profile reply unreadable, storing fallback", "user_id", userID, "error", err)
		result.Profile = model.FallbackProfile()
		result.Partial = true
		parseErr = fmt.Errorf("%w: %v", ErrProfileParse, err)
	}
	result.Profile.Normalize()

	if err := s.store(ctx, userID, result.Profile, result.Partial); err != nil {
		return nil, err
	}
	s.logger.Info("profile analyzed",
		"user_id", userID,
		"experiences", len(result.Profile.Experiences),
		"skills", len(result.Profile.Skills),
		"interests", len(result.Profile.Interests),
		"partial", result.Partial,
	)
	return result, parseErr
}

func (s *ProfileService) store(ctx context.Context, userID uint, profile model.StudentProfile, partial bool) error {
	st, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return err
	}
	p := profile
	st.Profile = &p
	st.ProfilePartial = partial
	if err := s.sessions.Save(ctx, userID, st); err != nil {
		return err
	}

	if s.profiles != nil {
		if err := s.profiles.Upsert(userID, profile, partial); err != nil {
			s.logger.Warn("persist profile failed", "user_id", userID, "error", err)
		}
	}
	return nil
}

// Current returns the session profile, falling back to the stored one. It
// returns nil when the user has never been analyzed.
func (s *ProfileService) Current(ctx context.Context, userID uint) (*model.StudentProfile, error) {
	st, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st.Profile != nil {
		return st.Profile, nil
	}
	if s.profiles == nil {
		return nil, nil
	}

	stored, err := s.profiles.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, nil
	}
	st.Profile = stored
	if err := s.sessions.Save(ctx, userID, st); err != nil {
		s.logger.Warn("cache stored profile failed", "user_id", userID, "error", err)
	}
	return stored, nil
}

// AnalyzeResume returns the zero analysis when the call or decode fails.
func (s *ProfileService) AnalyzeResume(ctx context.Context, resumeText string) model.ResumeAnalysis {
	var out model.ResumeAnalysis
	if strings.TrimSpace(resumeText) == "" {
		return out
	}
	prompt := fmt.Sprintf(`다음 이력서를 분석하여 학생의 배경 정보를 구조화하세요:

**이력서:**
%s

**추출할 정보:**
1. 학력 (전공, 학년, 주요 수강 과목)
2. 반도체 관련 경험 (인턴, 프로젝트, 실험)
3. 기술 스킬 (장비, 소프트웨어, 분석 도구)
4. 관심 공정 분야
5. 특기사항 (수상, 논문, 자격증)

JSON 형식으로 반환:
{
    "education": {"major": "전공명", "year": "학년", "gpa": "학점 (있는 경우)", "relevant_courses": ["과목1", "과목2"]},
    "semiconductor_experience": [
        {"title": "경험/프로젝트명", "description": "설명", "duration": "기간", "processes_used": ["사용한 공정"], "achievements": ["성과"]}
    ],
    "technical_skills": {"equipment": ["장비1", "장비2"], "software": ["소프트웨어1", "소프트웨어2"], "analysis_tools": ["분석도구1", "분석도구2"]},
    "interests": ["관심분야1", "관심분야2"],
    "achievements": ["수상/자격증1", "수상/자격증2"],
    "strengths": ["강점1", "강점2"],
    "areas_to_improve": ["개선필요영역1", "개선필요영역2"]
}`, truncateRunes(resumeText, analysisTextLimit))

	if !s.completeJSON(ctx, "resume analysis",
		"당신은 반도체 공학 커리어 컨설턴트입니다. 이력서를 면밀히 분석합니다.", prompt, profileTemp, &out) {
		return model.ResumeAnalysis{}
	}
	return out
}

// AnalyzeStatement returns the zero analysis when the call or decode fails.
func (s *ProfileService) AnalyzeStatement(ctx context.Context, statementText string) model.StatementAnalysis {
	var out model.StatementAnalysis
	if strings.TrimSpace(statementText) == "" {
		return out
	}
	prompt := fmt.Sprintf(`다음 자기소개서를 분석하여 학생의 내적 동기와 목표를 파악하세요:

**자기소개서:**
%s

**추출할 정보:**
1. 반도체 공학 선택 동기
2. 커리어 목표 (단기/장기)
3. 연구 관심사
4. 문제 해결 경험
5. 협업/리더십 경험
6. 학습 태도 및 성장 마인드셋

JSON 형식으로 반환:
{
    "motivation": "반도체 공학을 선택한 이유",
    "career_goals": {"short_term": "단기 목표", "long_term": "장기 목표"},
    "research_interests": ["관심분야1", "관심분야2"],
    "problem_solving_examples": [{"situation": "상황", "action": "행동", "result": "결과"}],
    "teamwork_experience": "협업 경험 요약",
    "learning_attitude": "학습 태도 평가",
    "growth_mindset": "성장 마인드셋 평가",
    "passion_indicators": ["열정을 보여주는 요소"]
}`, truncateRunes(statementText, analysisTextLimit))

	if !s.completeJSON(ctx, "statement analysis",
		"당신은 심리학과 커리어 개발 전문가입니다.", prompt, profileTemp, &out) {
		return model.StatementAnalysis{}
	}
	return out
}

func (s *ProfileService) completeJSON(ctx context.Context, what, system, prompt string, temp float64, out any) bool {
	raw, err := s.llm.Complete(ctx, s.models.Chat, []ai.ChatMessage{
		ai.SystemMessage(system),
		ai.UserMessage(prompt),
	}, ai.WithTemperature(temp), ai.WithJSONResponse())
	if err != nil {
		s.logger.Warn(what+" failed", "error", err)
		return false
	}
	if err := ai.DecodeJSON(raw, out); err != nil {
		s.logger.Warn(what+" unreadable", "error", err)
		return false
	}
	return true
}

// Detailed runs both analyses and summarizes them.
func (s *ProfileService) Detailed(ctx context.Context, resumeText, statementText string) *DetailedProfile {
	resume := s.AnalyzeResume(ctx, resumeText)
	statement := s.AnalyzeStatement(ctx, statementText)
	return &DetailedProfile{
		Resume:    resume,
		Statement: statement,
		Summary:   Summary(resume, statement),
		CreatedAt: time.Now(),
	}
}

// PersonalizedQuestions mixes experience, theory, motivation and problem
// solving questions 40/30/20/10. Failures yield an empty list.
func (s *ProfileService) PersonalizedQuestions(ctx context.Context, resume model.ResumeAnalysis, statement model.StatementAnalysis, n int) []model.PersonalizedQuestion {
	if n <= 0 {
		n = defaultPersonalized
	}
	prompt := fmt.Sprintf(`다음 학생의 이력서와 자기소개서 분석 결과를 바탕으로 맞춤형 면접 질문을 생성하세요:

**이력서 분석:**
- 전공: %s
- 경험: %d개
- 기술: %s
- 관심분야: %s

**자기소개서 분석:**
- 동기: %s
- 목표: %s
- 연구 관심: %s

**질문 생성 요구사항:**
총 %d개의 질문 생성:
1. 경험 기반 질문 (40%%): 이력서의 프로젝트/경험을 깊이 파고드는 질문
2. 이론 확인 질문 (30%%): 수강 과목과 관심 분야 이론 질문
3. 동기/태도 질문 (20%%): 자소서의 동기와 목표 검증 질문
4. 문제 해결 질문 (10%%): 실전 상황 대응 질문

**질문 원칙:**
- 학생의 실제 경험에 기반한 구체적 질문
- 관심 분야와 직접 연관된 질문
- 답변할 수 있는 수준의 질문 (학부생 수준)

{"questions": [{"question": "질문 내용", "question_type": "경험기반/이론/동기태도/문제해결", "category": "반도체 공정 카테고리", "difficulty": "기초/중급/고급", "personalization_reason": "왜 이 학생에게 이 질문이 적합한지", "expected_answer_points": ["평가포인트1", "평가포인트2"], "follow_up_questions": ["추가질문1", "추가질문2"]}]} 형식의 JSON으로 반환하세요.`,
		orDefault(string(resume.Education.Major), "N/A"),
		len(resume.SemiconductorExperience),
		strings.Join(firstN(resume.TechnicalSkills.Equipment, 3), ", "),
		strings.Join(resume.Interests, ", "),
		truncateRunes(orDefault(string(statement.Motivation), "N/A"), 100),
		orDefault(string(statement.CareerGoals.ShortTerm), "N/A"),
		strings.Join(statement.ResearchInterests, ", "),
		n,
	)

	raw, err := s.completeList(ctx,
		"당신은 반도체 기업 면접관이자 교육자입니다. 학생의 잠재력을 평가하는 효과적인 질문을 만듭니다.",
		prompt, personalizedTemp)
	if err != nil {
		s.logger.Warn("personalized questions failed", "error", err)
		return []model.PersonalizedQuestion{}
	}
	out, err := decodeList[model.PersonalizedQuestion](raw)
	if err != nil {
		s.logger.Warn("personalized questions unreadable", "error", err)
		return []model.PersonalizedQuestion{}
	}
	for i := range out {
		out[i].Personalized = true
		out[i].BasedOn = "resume_and_statement"
	}
	return out
}

// DeepDiveQuestions asks five follow-ups about one experience.
func (s *ProfileService) DeepDiveQuestions(ctx context.Context, exp model.Experience) []model.DeepDiveQuestion {
	prompt := fmt.Sprintf(`다음 학생의 프로젝트 경험에 대한 심층 질문 5개를 생성하세요:

**프로젝트:**
- 제목: %s
- 설명: %s
- 사용 공정: %s
- 성과: %s

**질문 유형:**
1. 기술적 세부사항 질문
2. 문제 해결 과정 질문
3. 의사결정 근거 질문
4. 개선 아이디어 질문
5. 학습 성과 질문

{"questions": [{"question": "구체적 질문", "focus": "기술/문제해결/의사결정/개선/학습", "evaluation_points": ["평가포인트1", "평가포인트2"]}]} 형식의 JSON으로 반환하세요.`,
		orDefault(string(exp.Title), "N/A"),
		orDefault(string(exp.Description), "N/A"),
		strings.Join(exp.ProcessesUsed, ", "),
		strings.Join(exp.Achievements, ", "),
	)

	raw, err := s.completeList(ctx, "당신은 경험 기반 면접 전문가입니다.", prompt, deepDiveTemp)
	if err != nil {
		s.logger.Warn("deep dive questions failed", "error", err)
		return []model.DeepDiveQuestion{}
	}
	out, err := decodeList[model.DeepDiveQuestion](raw)
	if err != nil {
		s.logger.Warn("deep dive questions unreadable", "error", err)
		return []model.DeepDiveQuestion{}
	}
	return out
}

func (s *ProfileService) completeList(ctx context.Context, system, prompt string, temp float64) (string, error) {
	return s.llm.Complete(ctx, s.models.Chat, []ai.ChatMessage{
		ai.SystemMessage(system),
		ai.UserMessage(prompt),
	}, ai.WithTemperature(temp), ai.WithJSONResponse())
}

func decodeList[T any](raw string) ([]T, error) {
	return ai.DecodeJSONList[T](raw, "questions")
}

func (s *ProfileService) maxTokens() int {
	if s.models.MaxTokens > 0 {
		return s.models.MaxTokens
	}
	return completionTokenBudget
}

// Summary renders the one-line profile summary joined with " | ".
func Summary(resume model.ResumeAnalysis, statement model.StatementAnalysis) string {
	var parts []string
	if !resume.Education.Empty() {
		parts = append(parts, fmt.Sprintf("%s %s학년", orDefault(string(resume.Education.Major), "N/A"), resume.Education.Year))
	}
	if n := len(resume.SemiconductorExperience); n > 0 {
		parts = append(parts, fmt.Sprintf("반도체 관련 경험 %d건", n))
	}
	if len(resume.Interests) > 0 {
		parts = append(parts, "관심: "+strings.Join(firstN(resume.Interests, 2), ", "))
	}
	if goal := string(statement.CareerGoals.ShortTerm); goal != "" {
		parts = append(parts, "목표: "+truncateRunes(goal, 50))
	}
	return strings.Join(parts, " | ")
}

// IsPartialProfile reports whether err carries a stored fallback profile.
func IsPartialProfile(err error) bool {
	return errors.Is(err, ErrProfileParse)
}
