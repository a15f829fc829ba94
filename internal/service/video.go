package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/repository"
	"github.com/clipforge/clipforge/internal/storage"
)

var (
	ErrInvalidGenerationRequest = errors.New("invalid generation request")
)

// GenerationRequest carries the options for one render job.
type GenerationRequest struct {
	Title       string
	Prompt      string
	ContentType string
	Style       string
	Voice       string
	AspectRatio string
	Duration    string
}

// VideoService records generation jobs. The render pipeline itself is an
// external worker; this service only charges the ledger, persists the job,
// and stores the result the worker reports back.
type VideoService struct {
	videos        repository.VideoRepository
	creditService *CreditService
	storage       storage.Storage
	creditCost    int
}

func NewVideoService(videos repository.VideoRepository, creditService *CreditService, storage storage.Storage, creditCost int) *VideoService {
	return &VideoService{
		videos:        videos,
		creditService: creditService,
		storage:       storage,
		creditCost:    creditCost,
	}
}

func (s *VideoService) CreditCost() int {
	return s.creditCost
}

// Generate deducts the job cost and records the pending job. The deduction
// happens first: a job is never accepted on an insufficient balance. If
// persisting the job fails the charge is compensated with a grant.
func (s *VideoService) Generate(userID string, req GenerationRequest) (*model.Video, error) {
	err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	err = s.creditService.Deduct(userID, s.creditCost)
	if err != nil {
		return nil, err
	}

	video := &model.Video{
		UserID: userID,
		Status: model.VideoStatusPending,
	}
	setOptional(&video.Title, req.Title)
	setOptional(&video.Prompt, req.Prompt)
	setOptional(&video.ContentType, req.ContentType)
	setOptional(&video.Style, req.Style)
	setOptional(&video.Voice, req.Voice)
	setOptional(&video.AspectRatio, req.AspectRatio)
	setOptional(&video.Duration, req.Duration)

	err = s.videos.Create(video)
	if err != nil {
		refundErr := s.creditService.Grant(userID, s.creditCost)
		if refundErr != nil {
			slog.Error("failed to refund credits after job create failure",
				"error", refundErr, "user_id", userID, "amount", s.creditCost)
		}
		return nil, fmt.Errorf("failed to create video job: %w", err)
	}

	slog.Info("video job created", "video_id", video.ID, "user_id", userID, "credits", s.creditCost)
	return video, nil
}

func (s *VideoService) ByID(id string) (*model.Video, error) {
	video, err := s.videos.ByID(id)
	if err != nil {
		return nil, err
	}

	s.attachURL(video)
	return video, nil
}

func (s *VideoService) ByUserID(userID string) ([]model.Video, error) {
	videos, err := s.videos.ByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}

	for i := range videos {
		s.attachURL(&videos[i])
	}
	return videos, nil
}

// CompleteRender stores the outcome reported by the render worker. Either
// objectKey (success) or renderErr (failure) is set.
func (s *VideoService) CompleteRender(videoID, renderID, objectKey, renderErr string) (*model.Video, error) {
	video, err := s.videos.ByID(videoID)
	if err != nil {
		return nil, err
	}

	if renderID != "" {
		video.RenderID = &renderID
	}

	if renderErr != "" {
		video.Status = model.VideoStatusFailed
		video.Error = &renderErr
	} else {
		video.Status = model.VideoStatusCompleted
		video.ObjectKey = &objectKey
		video.Error = nil
	}

	err = s.videos.Update(video)
	if err != nil {
		return nil, fmt.Errorf("failed to update video: %w", err)
	}

	slog.Info("video render completed", "video_id", video.ID, "status", video.Status)
	s.attachURL(video)
	return video, nil
}

func (s *VideoService) attachURL(video *model.Video) {
	if video.ObjectKey == nil || *video.ObjectKey == "" {
		return
	}
	video.URL = s.storage.PlaybackURL(*video.ObjectKey)
}

func validateRequest(req GenerationRequest) error {
	if req.Prompt == "" && req.ContentType == "" {
		return fmt.Errorf("%w: prompt or content type required", ErrInvalidGenerationRequest)
	}
	if req.Style != "" && !model.ValidVideoStyle(req.Style) {
		return fmt.Errorf("%w: unknown style %q", ErrInvalidGenerationRequest, req.Style)
	}
	if req.AspectRatio != "" && !model.ValidAspectRatio(req.AspectRatio) {
		return fmt.Errorf("%w: unknown aspect ratio %q", ErrInvalidGenerationRequest, req.AspectRatio)
	}
	if req.Duration != "" && !model.ValidVideoDuration(req.Duration) {
		return fmt.Errorf("%w: unknown duration %q", ErrInvalidGenerationRequest, req.Duration)
	}
	return nil
}

func setOptional(dst **string, v string) {
	if v != "" {
		*dst = &v
	}
}
