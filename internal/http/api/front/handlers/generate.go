package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/5399ai/backend/internal/genai"
	"github.com/5399ai/backend/internal/usage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// GenerateHandler proxies generation requests through the gateway.
type GenerateHandler struct {
	gateway  *genai.Gateway
	recorder *usage.Recorder
}

// NewGenerateHandler constructs a GenerateHandler; recorder may be nil to
// skip usage accounting.
func NewGenerateHandler(gateway *genai.Gateway, recorder *usage.Recorder) *GenerateHandler {
	return &GenerateHandler{gateway: gateway, recorder: recorder}
}

// record logs one finished generation request against the caller's account.
func (h *GenerateHandler) record(c *gin.Context, kind string, started time.Time, failed error) {
	h.recorder.Log(c.Request.Context(), usage.Record{
		UserID:     GetUserID(c),
		Kind:       kind,
		Model:      h.gateway.ModelFor(kind),
		Plan:       h.gateway.Plan(),
		DurationMS: time.Since(started).Milliseconds(),
		Success:    failed == nil,
	})
}

type chatRequest struct {
	History []genai.Turn `json:"history"`
	Parts   []genai.Part `json:"parts"`
}

// Chat streams the model's reply as server-sent events.
func (h *GenerateHandler) Chat(c *gin.Context) {
	var body chatRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	// Reject bad input before the stream headers go out, while a 400 can
	// still be answered.
	if len(body.Parts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message parts are required"})
		return
	}
	for _, part := range body.Parts {
		if errValidate := part.Validate(); errValidate != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errValidate.Error()})
			return
		}
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	flusher, _ := c.Writer.(http.Flusher)

	started := time.Now()
	errChat := h.gateway.Chat(c.Request.Context(), body.History, body.Parts, func(chunk string) {
		c.SSEvent("message", chunk)
		if flusher != nil {
			flusher.Flush()
		}
	})
	h.record(c, "chat", started, errChat)
	if errChat != nil {
		// Headers are already out; signal the failure in-stream.
		log.WithError(errChat).Error("chat stream failed")
		c.SSEvent("error", errChat.Error())
		return
	}
	c.SSEvent("done", "")
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

func bindPrompt(c *gin.Context) (string, bool) {
	var body promptRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return "", false
	}
	if body.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return "", false
	}
	return body.Prompt, true
}

// Image generates an image and returns it as a data URL.
func (h *GenerateHandler) Image(c *gin.Context) {
	prompt, ok := bindPrompt(c)
	if !ok {
		return
	}
	started := time.Now()
	dataURL, errGenerate := h.gateway.GenerateImage(c.Request.Context(), prompt)
	h.record(c, "image", started, errGenerate)
	if errGenerate != nil {
		log.WithError(errGenerate).Error("generate image failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "generate image failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": dataURL})
}

// Video generates a video, spending one video credit, and returns the mp4.
func (h *GenerateHandler) Video(c *gin.Context) {
	prompt, ok := bindPrompt(c)
	if !ok {
		return
	}
	started := time.Now()
	video, errGenerate := h.gateway.GenerateVideo(c.Request.Context(), prompt)
	h.record(c, "video", started, errGenerate)
	if errGenerate != nil {
		if errors.Is(errGenerate, genai.ErrNoVideoCredits) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": errGenerate.Error()})
			return
		}
		log.WithError(errGenerate).Error("generate video failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": genai.ErrVideoFailed.Error()})
		return
	}
	c.Data(http.StatusOK, "video/mp4", video)
}

// Audio synthesizes speech, spending one audio credit, and returns the
// base64 payload.
func (h *GenerateHandler) Audio(c *gin.Context) {
	prompt, ok := bindPrompt(c)
	if !ok {
		return
	}
	started := time.Now()
	audio, errGenerate := h.gateway.GenerateAudio(c.Request.Context(), prompt)
	h.record(c, "audio", started, errGenerate)
	if errGenerate != nil {
		if errors.Is(errGenerate, genai.ErrNoAudioCredits) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": errGenerate.Error()})
			return
		}
		log.WithError(errGenerate).Error("generate audio failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": genai.ErrAudioFailed.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"audio": audio})
}

type studyRequest struct {
	Topic string `json:"topic"`
	Grade string `json:"grade"`
}

// Study produces grounded study material.
func (h *GenerateHandler) Study(c *gin.Context) {
	var body studyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Topic == "" || body.Grade == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topic and grade are required"})
		return
	}
	started := time.Now()
	content, sources, errStudy := h.gateway.Study(c.Request.Context(), body.Topic, body.Grade)
	h.record(c, "study", started, errStudy)
	if errStudy != nil {
		log.WithError(errStudy).Error("generate study material failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "generate study material failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content, "sources": sources})
}

type creatorRequest struct {
	Request string `json:"request"`
}

// Creator produces grounded free-form content.
func (h *GenerateHandler) Creator(c *gin.Context) {
	var body creatorRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Request == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request is required"})
		return
	}
	started := time.Now()
	content, sources, errCreate := h.gateway.Creator(c.Request.Context(), body.Request)
	h.record(c, "creator", started, errCreate)
	if errCreate != nil {
		log.WithError(errCreate).Error("generate creative content failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "generate creative content failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content, "sources": sources})
}
