package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gopherai-interview/internal/app"
	"gopherai-interview/internal/docparse"
	"gopherai-interview/internal/model"
	"gopherai-interview/internal/transport/http/response"
)

// BankHandler serves the interview question bank: the requirement chat,
// generation and index statistics.
type BankHandler struct {
	bank *app.QuestionBankService
}

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type GenerateRequest struct {
	Requirements *model.QuestionRequirements `json:"requirements"`
}

func NewBankHandler(bank *app.QuestionBankService) *BankHandler {
	return &BankHandler{bank: bank}
}

func (h *BankHandler) Chat(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	reply, err := h.bank.ChatForRequirements(c.Request.Context(), userID, req.Message)
	if err != nil {
		writeServiceError(c, err, "requirement chat failed")
		return
	}
	response.OK(c, reply)
}

// StreamChat forwards the raw model reply as SSE data events and finishes
// with a done event carrying the decoded reply.
func (h *BankHandler) StreamChat(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	reply, err := h.bank.StreamRequirements(c.Request.Context(), userID, req.Message, func(chunk string) error {
		if _, writeErr := c.Writer.Write([]byte("data: " + sanitizeSSE(chunk) + "\n\n")); writeErr != nil {
			return writeErr
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if _, writeErr := c.Writer.Write([]byte(fmt.Sprintf("event: error\ndata: %s\n\n", sanitizeSSE(err.Error())))); writeErr == nil {
			flusher.Flush()
		}
		return
	}

	done := reply.Response
	if reply.IsComplete {
		done += "\n[요구사항 수집 완료]"
	} else if reply.NextQuestion != "" {
		done += "\n" + reply.NextQuestion
	}
	if _, writeErr := c.Writer.Write([]byte("event: done\ndata: " + sanitizeSSE(done) + "\n\n")); writeErr == nil {
		flusher.Flush()
	}
}

func (h *BankHandler) ResetChat(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	if err := h.bank.ResetRequirements(c.Request.Context(), userID); err != nil {
		writeServiceError(c, err, "reset requirement chat failed")
		return
	}
	response.OK(c, gin.H{"reset": true})
}

// Generate builds a bank from explicit requirements when they are posted,
// otherwise from what the requirement chat collected.
func (h *BankHandler) Generate(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req GenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
	}

	ctx := c.Request.Context()
	if req.Requirements == nil {
		result, err := h.bank.GenerateAndUpload(ctx, userID)
		if err != nil {
			writeServiceError(c, err, "generate question bank failed")
			return
		}
		response.OK(c, result)
		return
	}

	questions, err := h.bank.GenerateQuestions(ctx, *req.Requirements)
	if err != nil {
		writeServiceError(c, err, "generate question bank failed")
		return
	}
	upload, err := h.bank.Upload(ctx, questions)
	if err != nil {
		writeServiceError(c, err, "upload question bank failed")
		return
	}
	response.OK(c, app.GenerateResult{Questions: questions, Upload: upload})
}

// FromDocument accepts a multipart "file" and an optional "count". With
// upload=true the questions are also added to the bank.
func (h *BankHandler) FromDocument(c *gin.Context) {
	if _, ok := getUserIDFromContext(c); !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	data, err := readUpload(file, maxUploadSize)
	if err != nil {
		writeServiceError(c, err, "failed to read file")
		return
	}
	text, err := docparse.ExtractText(file.Filename, data)
	if err != nil {
		if errors.Is(err, docparse.ErrUnsupportedFormat) {
			writeServiceError(c, err, "")
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to extract document text: "+err.Error())
		return
	}

	count, _ := strconv.Atoi(c.PostForm("count"))
	ctx := c.Request.Context()
	questions, err := h.bank.GenerateFromDocument(ctx, text, count)
	if err != nil {
		writeServiceError(c, err, "generate questions failed")
		return
	}

	result := app.GenerateResult{Questions: questions}
	if parseBoolForm(c, "upload") {
		upload, err := h.bank.Upload(ctx, questions)
		if err != nil {
			writeServiceError(c, err, "upload question bank failed")
			return
		}
		result.Upload = upload
	}
	response.OK(c, result)
}

func (h *BankHandler) Stats(c *gin.Context) {
	stats, err := h.bank.Stats(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "question bank stats failed")
		return
	}
	response.OK(c, stats)
}
