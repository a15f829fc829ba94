package handler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/clipforge/clipforge/internal/ctxkeys"
	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/repository"
	"github.com/clipforge/clipforge/internal/service"
)

type VideoHandler struct {
	videoService        *service.VideoService
	renderWebhookSecret string
}

func NewVideoHandler(videoService *service.VideoService, renderWebhookSecret string) *VideoHandler {
	return &VideoHandler{
		videoService:        videoService,
		renderWebhookSecret: renderWebhookSecret,
	}
}

type videoResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Style       string `json:"style,omitempty"`
	Voice       string `json:"voice,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Status      string `json:"status"`
	URL         string `json:"url,omitempty"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func newVideoResponse(v *model.Video) videoResponse {
	resp := videoResponse{
		ID:        v.ID,
		Status:    v.Status,
		URL:       v.URL,
		CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
	}
	copyOptional(&resp.Title, v.Title)
	copyOptional(&resp.Prompt, v.Prompt)
	copyOptional(&resp.ContentType, v.ContentType)
	copyOptional(&resp.Style, v.Style)
	copyOptional(&resp.Voice, v.Voice)
	copyOptional(&resp.AspectRatio, v.AspectRatio)
	copyOptional(&resp.Duration, v.Duration)
	copyOptional(&resp.Error, v.Error)
	return resp
}

func copyOptional(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// Create accepts a generation job. The credit charge happens before the job
// is persisted; an insufficient balance answers 402 without side effects.
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Title       string `json:"title"`
		Prompt      string `json:"prompt"`
		ContentType string `json:"content_type"`
		Style       string `json:"style"`
		Voice       string `json:"voice"`
		AspectRatio string `json:"aspect_ratio"`
		Duration    string `json:"duration"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	video, err := h.videoService.Generate(user.ID, service.GenerationRequest{
		Title:       req.Title,
		Prompt:      req.Prompt,
		ContentType: req.ContentType,
		Style:       req.Style,
		Voice:       req.Voice,
		AspectRatio: req.AspectRatio,
		Duration:    req.Duration,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientCredits):
			respondError(w, http.StatusPaymentRequired, "Insufficient credits")
		case errors.Is(err, service.ErrInvalidGenerationRequest):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("failed to create video job", "error", err, "user_id", user.ID)
			respondError(w, http.StatusInternalServerError, "Failed to create video")
		}
		return
	}

	respondJSON(w, http.StatusCreated, newVideoResponse(video))
}

func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	videos, err := h.videoService.ByUserID(user.ID)
	if err != nil {
		slog.Error("failed to list videos", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "Failed to list videos")
		return
	}

	resp := make([]videoResponse, 0, len(videos))
	for i := range videos {
		resp = append(resp, newVideoResponse(&videos[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	id := r.PathValue("id")

	video, err := h.videoService.ByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			respondError(w, http.StatusNotFound, "Video not found")
			return
		}
		slog.Error("failed to get video", "error", err, "video_id", id)
		respondError(w, http.StatusInternalServerError, "Failed to load video")
		return
	}

	// Other users' videos look like they don't exist
	if video.UserID != user.ID {
		respondError(w, http.StatusNotFound, "Video not found")
		return
	}

	respondJSON(w, http.StatusOK, newVideoResponse(video))
}

// RenderCallback receives the completion report from the render worker.
func (h *VideoHandler) RenderCallback(w http.ResponseWriter, r *http.Request) {
	if h.renderWebhookSecret != "" {
		secret := r.Header.Get("X-Render-Secret")
		if subtle.ConstantTimeCompare([]byte(secret), []byte(h.renderWebhookSecret)) != 1 {
			slog.Warn("render callback with bad secret")
			respondError(w, http.StatusUnauthorized, "Invalid secret")
			return
		}
	}

	var req struct {
		VideoID   string `json:"video_id"`
		RenderID  string `json:"render_id"`
		ObjectKey string `json:"object_key"`
		Error     string `json:"error"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.VideoID == "" {
		respondError(w, http.StatusBadRequest, "Missing video_id")
		return
	}

	video, err := h.videoService.CompleteRender(req.VideoID, req.RenderID, req.ObjectKey, req.Error)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			respondError(w, http.StatusNotFound, "Video not found")
			return
		}
		slog.Error("failed to complete render", "error", err, "video_id", req.VideoID)
		respondError(w, http.StatusInternalServerError, "Failed to complete render")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": video.Status})
}
