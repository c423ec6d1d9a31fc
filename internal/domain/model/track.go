// Package model contains domain models passed between layers.
package model

import "fmt"

// Catalog is the ordered set of campaign groups returned by the web API.
type Catalog struct {
	Groups []Group
	// Total is the number of groups the API reports, which may exceed len(Groups).
	Total int
}

// Group is a named campaign and its playlist.
type Group struct {
	Name    string
	Entries []Entry
}

// Entry maps a 1-based playlist position to a map uid.
type Entry struct {
	Position int
	MapUID   string
}

// Len returns the number of entries across all groups.
func (c Catalog) Len() int {
	n := 0
	for _, g := range c.Groups {
		n += len(g.Entries)
	}
	return n
}

// TrackName formats the display name of an entry inside group g.
func TrackName(group string, position int) string {
	return fmt.Sprintf("%s - %d", group, position)
}

// Times holds the three raw times of a track in milliseconds.
type Times struct {
	AuthorMS int64 // baseline
	TopMS    int64 // rank offset 0
	TenKMS   int64 // rank offset ~10k
}

// Metrics are the values derived from Times.
type Metrics struct {
	TopPercent  float64
	TenKPercent float64
	TopDeltaMS  int64
	TenKDeltaMS int64
}

// Track is an item record: identity, thumbnail and raw times.
type Track struct {
	MapUID       string
	Name         string
	ThumbnailURL string
	Times        Times
}

// Record is a Track with its computed Metrics; one exported row.
type Record struct {
	Track
	Metrics
}

// Seconds converts milliseconds to seconds.
func Seconds(ms int64) float64 {
	return float64(ms) / 1000
}
