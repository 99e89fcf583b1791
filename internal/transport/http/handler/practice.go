package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gopherai-interview/internal/app"
	"gopherai-interview/internal/transport/http/response"
)

// PracticeHandler serves study mode, interview mode and the per-user
// practice session.
type PracticeHandler struct {
	practice *app.PracticeService
	archive  *app.ArchiveService
}

type StudyRequest struct {
	Topic        string `json:"topic" binding:"required"`
	Difficulty   string `json:"difficulty"`
	QuestionType string `json:"question_type"`
}

type InterviewRequest struct {
	UseProfile bool   `json:"use_profile"`
	Focus      string `json:"focus"`
}

type BankQuestionRequest struct {
	Profile       string `json:"profile"`
	Difficulty    string `json:"difficulty"`
	Visualization bool   `json:"visualization"`
}

type AnswerRequest struct {
	Answer string `json:"answer"`
}

type EvaluateRequest struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer"`
	Context  string `json:"context"`
	Mode     string `json:"mode"`
}

type SearchRequest struct {
	Query      string `json:"query" binding:"required"`
	Process    string `json:"process"`
	Difficulty string `json:"difficulty"`
	TopK       int    `json:"top_k"`
}

func NewPracticeHandler(practice *app.PracticeService, archive *app.ArchiveService) *PracticeHandler {
	return &PracticeHandler{practice: practice, archive: archive}
}

func (h *PracticeHandler) Study(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req StudyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	prompt, err := h.practice.StudyQuestion(c.Request.Context(), userID, req.Topic, req.Difficulty, req.QuestionType)
	if err != nil {
		writeServiceError(c, err, "generate study question failed")
		return
	}
	response.OK(c, prompt)
}

func (h *PracticeHandler) Interview(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req InterviewRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
	}

	prompt, err := h.practice.InterviewQuestion(c.Request.Context(), userID, req.UseProfile, req.Focus)
	if err != nil {
		writeServiceError(c, err, "generate interview question failed")
		return
	}
	response.OK(c, prompt)
}

func (h *PracticeHandler) BankQuestion(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req BankQuestionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
	}

	prompt, err := h.practice.BankQuestion(c.Request.Context(), userID, req.Profile, req.Difficulty, req.Visualization)
	if err != nil {
		writeServiceError(c, err, "generate bank question failed")
		return
	}
	response.OK(c, prompt)
}

// Answer evaluates an answer to the current question. A multipart request
// may carry a recording under "audio" and a typed answer under "answer".
func (h *PracticeHandler) Answer(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var (
		text  string
		audio []byte
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		text = c.PostForm("answer")
		if fh, err := c.FormFile("audio"); err == nil {
			data, err := readUpload(fh, maxAudioSize)
			if err != nil {
				writeServiceError(c, err, "failed to read audio")
				return
			}
			audio = data
		}
	} else {
		var req AnswerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
		text = req.Answer
	}

	result, err := h.practice.AnswerCurrent(c.Request.Context(), userID, text, audio)
	if err != nil {
		writeServiceError(c, err, "evaluate answer failed")
		return
	}
	response.OK(c, result)
}

// Evaluate scores an answer to a question the caller supplies.
func (h *PracticeHandler) Evaluate(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	mode := req.Mode
	if mode == "" {
		mode = app.ModeInterview
	}

	eval, err := h.practice.Evaluate(c.Request.Context(), userID, mode, req.Question, req.Answer, req.Context)
	if err != nil {
		writeServiceError(c, err, "evaluate answer failed")
		return
	}
	response.OK(c, gin.H{
		"evaluation": eval,
		"feedback":   app.FeedbackText(*eval),
	})
}

func (h *PracticeHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	response.OK(c, h.practice.SearchKnowledge(c.Request.Context(), req.Query, req.Process, req.Difficulty, req.TopK))
}

func (h *PracticeHandler) Session(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	summary, err := h.practice.SessionSummary(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "fetch session failed")
		return
	}
	response.OK(c, summary)
}

func (h *PracticeHandler) ClearSession(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	if err := h.practice.ClearSession(c.Request.Context(), userID); err != nil {
		writeServiceError(c, err, "clear session failed")
		return
	}
	response.OK(c, gin.H{"cleared": true})
}

func (h *PracticeHandler) ArchiveSession(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	receipt, err := h.archive.Archive(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "archive session failed")
		return
	}
	c.JSON(http.StatusAccepted, response.APIResponse{Code: response.CodeOK, Message: "queued", Data: receipt})
}

func (h *PracticeHandler) History(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	records, err := h.archive.History(userID, parseIntQuery(c, "limit", 0))
	if err != nil {
		writeServiceError(c, err, "fetch history failed")
		return
	}
	response.OK(c, records)
}
