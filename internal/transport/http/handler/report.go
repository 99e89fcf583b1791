package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-interview/internal/app"
	"gopherai-interview/internal/transport/http/response"
)

type ReportHandler struct {
	reports *app.ReportService
	auth    *app.AuthService
}

func NewReportHandler(reports *app.ReportService, auth *app.AuthService) *ReportHandler {
	return &ReportHandler{reports: reports, auth: auth}
}

// Download renders the session report. format is html or pdf; pdf falls
// back to html when the font is missing.
func (h *ReportHandler) Download(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	format := c.DefaultQuery("format", app.FormatHTML)
	if format != app.FormatHTML && format != app.FormatPDF {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "format must be html or pdf")
		return
	}

	name := getUsernameFromContext(c)
	if user, err := h.auth.GetUserByID(userID); err == nil && user != nil {
		name = user.Name()
	}

	file, err := h.reports.Generate(c.Request.Context(), userID, name, format)
	if err != nil {
		writeServiceError(c, err, "generate report failed")
		return
	}

	disposition := "inline"
	if c.Query("download") == "1" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
