package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clipforge/clipforge/internal/model"
)

var (
	ErrVideoNotFound = errors.New("video not found")
)

type VideoRepository interface {
	Create(video *model.Video) error
	ByID(id string) (*model.Video, error)
	ByRenderID(renderID string) (*model.Video, error)
	ByUserID(userID string) ([]model.Video, error)
	Update(video *model.Video) error
}

type videoRepository struct {
	db *sqlx.DB
}

func NewVideoRepository(db *sqlx.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(video *model.Video) error {
	if video.ID == "" {
		video.ID = uuid.New().String()
	}
	now := time.Now()
	if video.CreatedAt.IsZero() {
		video.CreatedAt = now
	}
	video.UpdatedAt = now

	query := `
		INSERT INTO videos (id, user_id, title, prompt, content_type, style, voice, aspect_ratio, duration, status, error, object_key, render_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(query,
		video.ID,
		video.UserID,
		video.Title,
		video.Prompt,
		video.ContentType,
		video.Style,
		video.Voice,
		video.AspectRatio,
		video.Duration,
		video.Status,
		video.Error,
		video.ObjectKey,
		video.RenderID,
		video.CreatedAt,
		video.UpdatedAt,
	)

	return err
}

func (r *videoRepository) ByID(id string) (*model.Video, error) {
	video := &model.Video{}
	query := `SELECT * FROM videos WHERE id = $1`

	err := r.db.Get(video, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrVideoNotFound
	}

	return video, err
}

func (r *videoRepository) ByRenderID(renderID string) (*model.Video, error) {
	video := &model.Video{}
	query := `SELECT * FROM videos WHERE render_id = $1`

	err := r.db.Get(video, query, renderID)
	if err == sql.ErrNoRows {
		return nil, ErrVideoNotFound
	}

	return video, err
}

func (r *videoRepository) ByUserID(userID string) ([]model.Video, error) {
	videos := []model.Video{}
	query := `SELECT * FROM videos WHERE user_id = $1 ORDER BY created_at DESC`

	err := r.db.Select(&videos, query, userID)
	if err != nil {
		return nil, err
	}

	return videos, nil
}

func (r *videoRepository) Update(video *model.Video) error {
	video.UpdatedAt = time.Now()

	query := `
		UPDATE videos
		SET title = $1, status = $2, error = $3, object_key = $4, render_id = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := r.db.Exec(query,
		video.Title,
		video.Status,
		video.Error,
		video.ObjectKey,
		video.RenderID,
		video.UpdatedAt,
		video.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrVideoNotFound
	}

	return nil
}
