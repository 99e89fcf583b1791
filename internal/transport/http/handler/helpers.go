package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gopherai-interview/internal/app"
	"gopherai-interview/internal/docparse"
	"gopherai-interview/internal/search"
	"gopherai-interview/internal/speech"
	"gopherai-interview/internal/transport/http/middleware"
	"gopherai-interview/internal/transport/http/response"
)

const (
	maxUploadSize = 20 << 20 // 20 MB per file
	maxAudioSize  = 10 << 20
)

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok
}

func getUsernameFromContext(c *gin.Context) string {
	name, _ := c.Get(middleware.ContextUsernameKey)
	s, _ := name.(string)
	return s
}

func sanitizeSSE(input string) string {
	replaced := strings.ReplaceAll(input, "\r\n", "\\n")
	replaced = strings.ReplaceAll(replaced, "\n", "\\n")
	return replaced
}

func parseIntQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func parseBoolForm(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.PostForm(key))
	return v
}

// readUpload reads one multipart file, enforcing limit.
func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	if fh.Size > limit {
		return nil, fmt.Errorf("%s: %w", fh.Filename, errFileTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s failed: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s failed: %w", fh.Filename, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w", fh.Filename, errFileTooLarge)
	}
	return data, nil
}

var errFileTooLarge = errors.New("file too large")

// writeServiceError maps the sentinels shared by every practice flow. The
// fallback message is used for anything unexpected.
func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrEmptyAnswer), errors.Is(err, speech.ErrEmptyText):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, errFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, err.Error())
	case errors.Is(err, docparse.ErrUnsupportedFormat):
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFile, err.Error())
	case errors.Is(err, app.ErrRequirementsIncomplete):
		response.Error(c, http.StatusConflict, response.CodeRequirementsIncomplete, err.Error())
	case errors.Is(err, app.ErrProfileRequired):
		response.Error(c, http.StatusConflict, response.CodeProfileRequired, err.Error())
	case errors.Is(err, app.ErrNoCurrentQuestion):
		response.Error(c, http.StatusConflict, response.CodeNoCurrentQuestion, err.Error())
	case errors.Is(err, app.ErrNoRecords):
		response.Error(c, http.StatusNotFound, response.CodeNoRecords, err.Error())
	case errors.Is(err, search.ErrNotConfigured), errors.Is(err, app.ErrArchiveDisabled), errors.Is(err, speech.ErrDisabled):
		response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, err.Error())
	case errors.Is(err, app.ErrGeneration), errors.Is(err, app.ErrEvaluationParse),
		errors.Is(err, speech.ErrNoMatch), errors.Is(err, speech.ErrAudioTooShort), errors.Is(err, speech.ErrRecognitionFailed):
		response.Error(c, http.StatusBadGateway, response.CodeGenerationFailed, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
