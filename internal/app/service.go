// Package service runs the fetch pipeline: authenticate, list the campaign
// catalog, fetch each track's times, compute metrics and export the table.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/atdiff/internal/adapters/nadeo"
	"github.com/okian/atdiff/internal/adapters/repository"
	"github.com/okian/atdiff/internal/domain/model"
	"github.com/okian/atdiff/internal/domain/stats"
	"github.com/okian/atdiff/pkg/logger"
	"github.com/okian/atdiff/pkg/metrics"
)

// ErrNotConfigured is returned by Run when the client or store is missing.
var ErrNotConfigured = errors.New("service not configured")

// Service fetches every catalog track and exports the computed records.
type Service struct {
	client *nadeo.Client
	store  repository.Store

	email    string
	password string
	appName  string

	page       nadeo.CatalogPage
	topOffset  int
	tenKOffset int
	skew       time.Duration

	logger logger.Logger
}

// Summary describes a finished run.
type Summary struct {
	RunID    string
	Groups   int
	Tracks   int
	Records  []model.Record
	Duration time.Duration
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithClient sets the web API client.
func WithClient(c *nadeo.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.client = c
		}
	}
}

// WithStore sets where records are exported.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithAccount sets the account identity, secret and the client name sent with them.
func WithAccount(email, password, appName string) Option {
	return func(s *Service) {
		s.email = email
		s.password = password
		if appName != "" {
			s.appName = appName
		}
	}
}

// WithCatalogPage sets which page of the catalog is fetched.
func WithCatalogPage(p nadeo.CatalogPage) Option {
	return func(s *Service) {
		if p.Length > 0 {
			s.page = p
		}
	}
}

// WithOffsets sets the leaderboard offsets of the best and the Nth time.
func WithOffsets(top, tenK int) Option {
	return func(s *Service) {
		if top >= 0 {
			s.topOffset = top
		}
		if tenK >= 0 {
			s.tenKOffset = tenK
		}
	}
}

// WithTokenSkew sets how long before expiry tokens are refreshed.
func WithTokenSkew(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.skew = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service with default options.
func New(opts ...Option) *Service {
	s := &Service{
		appName:    "Easiest Campaign AT Investigation",
		page:       nadeo.DefaultCatalogPage,
		topOffset:  nadeo.BestOffset,
		tenKOffset: nadeo.TenKOffset,
		skew:       nadeo.DefaultSkew,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one full fetch and export. On any error nothing is written.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	if s.client == nil || s.store == nil {
		return Summary{}, ErrNotConfigured
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	sum := Summary{RunID: uuid.NewString()}
	log := s.logger.With(logger.String("run_id", sum.RunID))
	start := time.Now()
	log.Info(ctx, "fetch run started",
		logger.Int("catalog_length", s.page.Length),
		logger.Int("catalog_offset", s.page.Offset),
	)

	records, err := s.fetch(ctx, log, &sum)
	if err == nil {
		err = s.store.Save(ctx, records)
	}
	sum.Duration = time.Since(start)
	ms := float64(sum.Duration.Milliseconds())

	if err != nil {
		metrics.RecordFetchRun("error", ms)
		metrics.RecordErrorByComponent("fetch", errorType(err))
		log.Error(ctx, "fetch run failed", logger.Error(err), logger.Duration("took", sum.Duration))
		return sum, err
	}
	sum.Records = records
	metrics.RecordFetchRun("ok", ms)
	log.Info(ctx, "fetch run finished",
		logger.Int("groups", sum.Groups),
		logger.Int("tracks", sum.Tracks),
		logger.Duration("took", sum.Duration),
	)
	return sum, nil
}

func (s *Service) fetch(ctx context.Context, log logger.Logger, sum *Summary) ([]model.Record, error) {
	creds, err := s.client.Authenticate(ctx, s.email, s.password, s.appName)
	if err != nil {
		return nil, err
	}
	sess := nadeo.NewSession(s.client, creds, s.skew)

	if creds, err = sess.Token(ctx); err != nil {
		return nil, err
	}
	cat, err := s.client.ListCatalog(ctx, creds, s.page)
	if err != nil {
		return nil, err
	}
	if s.page.Offset+len(cat.Groups) < cat.Total {
		log.Warn(ctx, "catalog has more groups than fetched",
			logger.Int("fetched", len(cat.Groups)),
			logger.Int("total", cat.Total),
		)
	}
	sum.Groups = len(cat.Groups)

	records := make([]model.Record, 0, cat.Len())
	for _, g := range cat.Groups {
		for _, e := range g.Entries {
			name := model.TrackName(g.Name, e.Position)
			rec, err := s.fetchTrack(ctx, sess, name, e.MapUID)
			if err != nil {
				return nil, fmt.Errorf("%s (%s): %w", name, e.MapUID, err)
			}
			metrics.RecordTrackFetched()
			log.Debug(ctx, "track fetched",
				logger.String("track", name),
				logger.Float64("top_pct", rec.TopPercent),
				logger.Float64("tenk_pct", rec.TenKPercent),
			)
			records = append(records, rec)
		}
	}
	sum.Tracks = len(records)
	return records, nil
}

func (s *Service) fetchTrack(ctx context.Context, sess *nadeo.Session, name, uid string) (model.Record, error) {
	creds, err := sess.Token(ctx)
	if err != nil {
		return model.Record{}, err
	}
	info, err := s.client.GetMapInfo(ctx, creds, uid)
	if err != nil {
		return model.Record{}, err
	}

	if creds, err = sess.Token(ctx); err != nil {
		return model.Record{}, err
	}
	top, err := s.client.GetRankTime(ctx, creds, uid, s.topOffset)
	if err != nil {
		return model.Record{}, err
	}

	if creds, err = sess.Token(ctx); err != nil {
		return model.Record{}, err
	}
	tenK, err := s.client.GetRankTime(ctx, creds, uid, s.tenKOffset)
	if err != nil {
		return model.Record{}, err
	}

	return stats.Build(model.Track{
		MapUID:       uid,
		Name:         name,
		ThumbnailURL: info.ThumbnailURL,
		Times:        model.Times{AuthorMS: info.AuthorTimeMS, TopMS: top, TenKMS: tenK},
	})
}

// errorType maps a run error to a metric label.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, nadeo.ErrCredentialsExpired):
		return "credentials_expired"
	case errors.Is(err, nadeo.ErrAuth):
		return "auth"
	case errors.Is(err, nadeo.ErrCatalogTruncated):
		return "catalog_truncated"
	case errors.Is(err, nadeo.ErrNoScore):
		return "no_score"
	case errors.Is(err, nadeo.ErrMissingField):
		return "missing_field"
	case errors.Is(err, nadeo.ErrFetch):
		return "fetch"
	case errors.Is(err, stats.ErrZeroAuthorTime):
		return "zero_author_time"
	case errors.Is(err, repository.ErrWrite):
		return "write"
	default:
		return "unknown"
	}
}
