// Package speech wraps the managed text-to-speech and short-audio
// speech-to-text REST endpoints.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrDisabled          = errors.New("speech service is not configured")
	ErrEmptyText         = errors.New("speech text is empty")
	ErrAudioTooShort     = errors.New("audio is too short")
	ErrNoMatch           = errors.New("speech could not be recognized")
	ErrRecognitionFailed = errors.New("speech recognition failed")
)

// MinAudioBytes is the smallest upload worth sending for recognition.
const MinAudioBytes = 1000

const (
	DefaultVoice    = "ko-KR-SunHiNeural"
	DefaultLanguage = "ko-KR"
	DefaultRate     = "0.95"
	outputFormat    = "riff-24khz-16bit-mono-pcm"
)

type Config struct {
	Key      string
	Region   string
	Voice    string
	Language string
	Rate     string

	// Overrides for the regional endpoints, used by tests and sovereign clouds.
	TTSBaseURL string
	STTBaseURL string
	Timeout    time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Rate == "" {
		cfg.Rate = DefaultRate
	}
	if cfg.TTSBaseURL == "" && cfg.Region != "" {
		cfg.TTSBaseURL = fmt.Sprintf("https://%s.tts.speech.microsoft.com", cfg.Region)
	}
	if cfg.STTBaseURL == "" && cfg.Region != "" {
		cfg.STTBaseURL = fmt.Sprintf("https://%s.stt.speech.microsoft.com", cfg.Region)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.cfg.Key != "" && c.cfg.Region != ""
}

// SSML renders text as a single voice utterance with the configured prosody rate.
func (c *Client) SSML(text string) string {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(text))
	return fmt.Sprintf(
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s"><voice name="%s"><prosody rate="%s">%s</prosody></voice></speak>`,
		c.cfg.Language, c.cfg.Voice, c.cfg.Rate, escaped.String(),
	)
}

// Synthesize returns RIFF WAV audio for text.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	endpoint := strings.TrimRight(c.cfg.TTSBaseURL, "/") + "/cognitiveservices/v1"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(c.SSML(text)))
	if err != nil {
		return nil, fmt.Errorf("build tts request failed: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)
	req.Header.Set("User-Agent", "gopherai-interview")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tts response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tts response status %d: %s", resp.StatusCode, string(audio))
	}
	c.logger.Debug("speech synthesized", "chars", len(text), "bytes", len(audio))
	return audio, nil
}

// Recognize transcribes a short WAV recording in the configured language.
func (c *Client) Recognize(ctx context.Context, audio []byte) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if len(audio) < MinAudioBytes {
		return "", ErrAudioTooShort
	}

	q := url.Values{}
	q.Set("language", c.cfg.Language)
	q.Set("format", "simple")
	endpoint := strings.TrimRight(c.cfg.STTBaseURL, "/") +
		"/speech/recognition/conversation/cognitiveservices/v1?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("build stt request failed: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stt request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read stt response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("stt response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		RecognitionStatus string `json:"RecognitionStatus"`
		DisplayText       string `json:"DisplayText"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse stt json failed: %w", err)
	}
	switch parsed.RecognitionStatus {
	case "Success":
		if strings.TrimSpace(parsed.DisplayText) == "" {
			return "", ErrNoMatch
		}
		return parsed.DisplayText, nil
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return "", ErrNoMatch
	default:
		return "", fmt.Errorf("%w: %s", ErrRecognitionFailed, parsed.RecognitionStatus)
	}
}
