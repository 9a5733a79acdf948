package assets

import "time"

// Upload is one ledger row for a stored video file.
type Upload struct {
	ID              int64
	Filename        string
	SizeBytes       int64
	DurationSeconds float64
	CreatedAt       time.Time
}

// Render is one ledger row for a produced captioned video.
type Render struct {
	ID           int64
	Filename     string
	Style        string
	CaptionCount int
	CreatedAt    time.Time
}
