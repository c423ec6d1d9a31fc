package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/atdiff/internal/domain/model"
	"github.com/okian/atdiff/internal/domain/table"
	"github.com/okian/atdiff/pkg/metrics"
)

// CSVStore keeps the table in a single comma-separated file.
type CSVStore struct {
	path string
	mode os.FileMode
}

// NewCSVStore returns a store backed by the file at path.
func NewCSVStore(path string, opts ...Option) *CSVStore {
	s := &CSVStore{path: path, mode: 0o644}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *CSVStore) Path() string { return s.path }

// Row flattens a record into exported cells. Times are in seconds.
func Row(r model.Record) []string {
	return []string{
		r.ThumbnailURL,
		r.Name,
		formatFloat(model.Seconds(r.Times.AuthorMS)),
		formatFloat(model.Seconds(r.Times.TopMS)),
		formatFloat(model.Seconds(r.Times.TenKMS)),
		formatFloat(r.TenKPercent),
		formatFloat(r.TopPercent),
		formatFloat(model.Seconds(r.TenKDeltaMS)),
		formatFloat(model.Seconds(r.TopDeltaMS)),
		"False",
	}
}

// formatFloat writes the shortest representation, always with a decimal point.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Save writes records to a temp file next to the target and renames it over
// the target, replacing any previous export.
func (s *CSVStore) Save(ctx context.Context, records []model.Record) (err error) {
	defer func() {
		if err != nil {
			metrics.RecordErrorByComponent("repository", "write")
			return
		}
		metrics.UpdateExportedRows(len(records))
	}()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(Header); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	for i, r := range records {
		if i%64 == 0 {
			if err = ctx.Err(); err != nil {
				return err
			}
		}
		if err = w.Write(Row(r)); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = tmp.Chmod(s.mode); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Load reads the file back as a raw string table.
func (s *CSVStore) Load(_ context.Context) (*table.Table, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, s.path)
	}
	t, err := table.New(rows[0], rows[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return t, nil
}
