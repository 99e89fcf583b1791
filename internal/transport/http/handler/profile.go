package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gopherai-interview/internal/app"
	"gopherai-interview/internal/docparse"
	"gopherai-interview/internal/model"
	"gopherai-interview/internal/transport/http/response"
)

type ProfileHandler struct {
	profiles *app.ProfileService
}

type ProfileRequest struct {
	ResumeText    string `json:"resume_text"`
	StatementText string `json:"statement_text"`
	Count         int    `json:"count"`
}

type DeepDiveRequest struct {
	Experience model.Experience `json:"experience"`
}

func NewProfileHandler(profiles *app.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// bindProfileInput reads resume and statement either from a JSON body or
// from a multipart form, where each may be a file ("resume", "statement")
// or a text field ("resume_text", "statement_text").
func bindProfileInput(c *gin.Context) (ProfileRequest, error) {
	var req ProfileRequest
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, fmt.Errorf("%w: %v", app.ErrInvalidInput, err)
		}
		return req, nil
	}

	var err error
	if req.ResumeText, err = formText(c, "resume"); err != nil {
		return req, err
	}
	if req.StatementText, err = formText(c, "statement"); err != nil {
		return req, err
	}
	req.Count, _ = strconv.Atoi(c.PostForm("count"))
	return req, nil
}

func formText(c *gin.Context, key string) (string, error) {
	fh, err := c.FormFile(key)
	if err != nil {
		return c.PostForm(key + "_text"), nil
	}
	data, err := readUpload(fh, maxUploadSize)
	if err != nil {
		return "", err
	}
	text, err := docparse.ExtractText(fh.Filename, data)
	if err != nil && !errors.Is(err, docparse.ErrUnsupportedFormat) {
		return "", fmt.Errorf("%w: %s: %v", app.ErrInvalidInput, fh.Filename, err)
	}
	return text, err
}

// Analyze stores the profile used by interview mode. An unreadable model
// reply still answers 200 with the fallback profile marked partial.
func (h *ProfileHandler) Analyze(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	req, err := bindProfileInput(c)
	if err != nil {
		writeServiceError(c, err, "invalid request payload")
		return
	}

	result, err := h.profiles.AnalyzeProfile(c.Request.Context(), userID, req.ResumeText, req.StatementText)
	if err != nil && !app.IsPartialProfile(err) {
		writeServiceError(c, err, "profile analysis failed")
		return
	}
	response.OK(c, result)
}

func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	profile, err := h.profiles.Current(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch profile failed")
		return
	}
	if profile == nil {
		response.Error(c, http.StatusNotFound, response.CodeProfileRequired, app.ErrProfileRequired.Error())
		return
	}
	response.OK(c, profile)
}

func (h *ProfileHandler) Detailed(c *gin.Context) {
	req, err := bindProfileInput(c)
	if err != nil {
		writeServiceError(c, err, "invalid request payload")
		return
	}
	if strings.TrimSpace(req.ResumeText) == "" && strings.TrimSpace(req.StatementText) == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "resume or statement is required")
		return
	}
	response.OK(c, h.profiles.Detailed(c.Request.Context(), req.ResumeText, req.StatementText))
}

// Personalized runs the detailed analysis and then generates questions from it.
func (h *ProfileHandler) Personalized(c *gin.Context) {
	req, err := bindProfileInput(c)
	if err != nil {
		writeServiceError(c, err, "invalid request payload")
		return
	}
	if strings.TrimSpace(req.ResumeText) == "" && strings.TrimSpace(req.StatementText) == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "resume or statement is required")
		return
	}

	ctx := c.Request.Context()
	detailed := h.profiles.Detailed(ctx, req.ResumeText, req.StatementText)
	questions := h.profiles.PersonalizedQuestions(ctx, detailed.Resume, detailed.Statement, req.Count)
	response.OK(c, gin.H{
		"summary":   detailed.Summary,
		"questions": questions,
	})
}

func (h *ProfileHandler) DeepDive(c *gin.Context) {
	var req DeepDiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(string(req.Experience.Title)) == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "experience title is required")
		return
	}
	response.OK(c, gin.H{"questions": h.profiles.DeepDiveQuestions(c.Request.Context(), req.Experience)})
}
