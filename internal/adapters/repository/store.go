// Package repository persists exported track records as a flat file and reads
// them back as a raw table.
package repository

import (
	"context"

	"github.com/okian/atdiff/internal/domain/model"
	"github.com/okian/atdiff/internal/domain/table"
)

// Column labels of the exported file, in order.
const (
	ColThumbnail   = "Thumbnail"
	ColTrackName   = "Track Name"
	ColAuthorTime  = "Author Time"
	ColTopTime     = "Top Time"
	ColTenKTime    = "10k Time"
	ColTenKPercent = "10k Time % Difference"
	ColTopPercent  = "Top Time % Difference"
	ColTenKDelta   = "10k Time Difference"
	ColTopDelta    = "Top Time Difference"
	ColCompleted   = "Completed"
)

// Header is the exported header row.
var Header = []string{
	ColThumbnail, ColTrackName, ColAuthorTime, ColTopTime, ColTenKTime,
	ColTenKPercent, ColTopPercent, ColTenKDelta, ColTopDelta, ColCompleted,
}

// Store writes and reads the exported table.
type Store interface {
	// Save replaces the stored table with records, in order.
	Save(ctx context.Context, records []model.Record) error
	// Load returns the stored table as raw strings.
	Load(ctx context.Context) (*table.Table, error)
}
