package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gopherai-interview/internal/app"
	"gopherai-interview/internal/speech"
	"gopherai-interview/internal/transport/http/response"
)

type SpeechHandler struct {
	practice *app.PracticeService
}

type TTSRequest struct {
	Text string `json:"text" binding:"required"`
}

func NewSpeechHandler(practice *app.PracticeService) *SpeechHandler {
	return &SpeechHandler{practice: practice}
}

// TTS reads text aloud and returns a RIFF WAV body.
func (h *SpeechHandler) TTS(c *gin.Context) {
	var req TTSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	audio, err := h.practice.Speak(c.Request.Context(), req.Text)
	if err != nil {
		writeServiceError(c, err, "speech synthesis failed")
		return
	}
	if audio == nil {
		writeServiceError(c, speech.ErrDisabled, "")
		return
	}
	c.Data(http.StatusOK, "audio/wav", audio)
}

// STT transcribes a multipart "audio" upload without evaluating it.
func (h *SpeechHandler) STT(c *gin.Context) {
	fh, err := c.FormFile("audio")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing audio")
		return
	}
	data, err := readUpload(fh, maxAudioSize)
	if err != nil {
		writeServiceError(c, err, "failed to read audio")
		return
	}

	text, err := h.practice.AnswerFromAudio(c.Request.Context(), data)
	if err != nil {
		writeServiceError(c, err, "speech recognition failed")
		return
	}
	response.OK(c, gin.H{"text": text})
}
