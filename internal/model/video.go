package model

import (
	"time"
)

// Generation options mirror what the render worker accepts.
const (
	ContentTypeCustomPrompt    = "customPrompt"
	ContentTypeRandomAIStory   = "randomAiStory"
	ContentTypeScaryStay       = "scaryStay"
	ContentTypeHistoricalFacts = "historicalFacts"
	ContentTypeBedTimeStory    = "bedTimeStory"
	ContentTypeMotivational    = "motivational"
	ContentTypeFunFacts        = "funFacts"
)

const (
	VideoStyleRealistic  = "realistic"
	VideoStyleCartoon    = "cartoon"
	VideoStyleWatercolor = "watercolor"
	VideoStyleSketch     = "sketch"
)

const (
	VideoStatusPending   = "pending"
	VideoStatusCompleted = "completed"
	VideoStatusFailed    = "failed"
)

type Video struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Title       *string   `db:"title"`
	Prompt      *string   `db:"prompt"`
	ContentType *string   `db:"content_type"`
	Style       *string   `db:"style"`
	Voice       *string   `db:"voice"`
	AspectRatio *string   `db:"aspect_ratio"`
	Duration    *string   `db:"duration"`
	Status      string    `db:"status"`
	Error       *string   `db:"error"`
	ObjectKey   *string   `db:"object_key"` // S3 key of the rendered file
	RenderID    *string   `db:"render_id"`  // id assigned by the render worker
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	// Computed, not persisted
	URL string `db:"-"`
}

func (v *Video) Completed() bool {
	return v.Status == VideoStatusCompleted
}

var validVideoStyles = map[string]bool{
	VideoStyleRealistic:  true,
	VideoStyleCartoon:    true,
	VideoStyleWatercolor: true,
	VideoStyleSketch:     true,
}

func ValidVideoStyle(style string) bool {
	return validVideoStyles[style]
}

var validAspectRatios = map[string]bool{
	"9:16": true,
	"16:9": true,
	"4:3":  true,
	"3:4":  true,
	"1:1":  true,
}

func ValidAspectRatio(ratio string) bool {
	return validAspectRatios[ratio]
}

var validDurations = map[string]bool{
	"15 sec": true,
	"30 sec": true,
	"60 sec": true,
}

func ValidVideoDuration(d string) bool {
	return validDurations[d]
}
