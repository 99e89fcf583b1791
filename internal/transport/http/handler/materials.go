package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-interview/internal/app"
	"gopherai-interview/internal/docparse"
	"gopherai-interview/internal/transport/http/response"
)

const maxMaterialFiles = 10

type MaterialsHandler struct {
	knowledge *app.KnowledgeService
	bank      *app.QuestionBankService
}

func NewMaterialsHandler(knowledge *app.KnowledgeService, bank *app.QuestionBankService) *MaterialsHandler {
	return &MaterialsHandler{knowledge: knowledge, bank: bank}
}

// Upload accepts course material under the multipart key "files" and turns
// it into study questions in the knowledge index.
func (h *MaterialsHandler) Upload(c *gin.Context) {
	if _, ok := getUserIDFromContext(c); !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid multipart form")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing files")
		return
	}
	if len(headers) > maxMaterialFiles {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "too many files (max 10)")
		return
	}

	files := make([]docparse.File, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh, maxUploadSize)
		if err != nil {
			writeServiceError(c, err, "failed to read file")
			return
		}
		files = append(files, docparse.File{Name: fh.Filename, Data: data})
	}

	result, err := h.knowledge.ProcessMaterials(c.Request.Context(), files)
	if err != nil {
		writeServiceError(c, err, "process materials failed")
		return
	}
	response.OK(c, result)
}

// Seed creates both indexes and loads the built-in sample questions.
func (h *MaterialsHandler) Seed(c *gin.Context) {
	result, err := h.knowledge.SeedIndexes(c.Request.Context(), h.bank)
	if err != nil {
		writeServiceError(c, err, "seed indexes failed")
		return
	}
	response.OK(c, result)
}
