package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"mrchooks/backend/internal/cache"
	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/logging"
	"mrchooks/backend/internal/store"
	"mrchooks/backend/internal/validation"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	// Location fixes business-day boundaries for reports and date filters.
	Location *time.Location
	// MaxDiscount caps a sale discount; nil means DefaultMaxDiscount and
	// zero disables discounts.
	MaxDiscount *decimal.Decimal
	CacheTTL    time.Duration
	Now         func() time.Time
}

type Service struct {
	repo        store.Repository
	cache       cache.Cache
	loc         *time.Location
	maxDiscount decimal.Decimal
	cacheTTL    time.Duration
	now         func() time.Time
}

func New(repo store.Repository, c cache.Cache, opts Options) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	maxDiscount := domain.DefaultMaxDiscount
	if opts.MaxDiscount != nil {
		maxDiscount = *opts.MaxDiscount
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:        repo,
		cache:       c,
		loc:         opts.Location,
		maxDiscount: maxDiscount,
		cacheTTL:    opts.CacheTTL,
		now:         opts.Now,
	}
}

func (s *Service) Health(ctx context.Context) (domain.HealthStatus, error) {
	status := domain.HealthStatus{
		Status:    "ok",
		Database:  "connected",
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.Ping(ctx); err != nil {
		status.Status = "degraded"
		status.Database = "unavailable"
		return status, err
	}
	tables, err := s.repo.CountTables(ctx)
	if err != nil {
		status.Status = "degraded"
		return status, err
	}
	status.Tables = tables
	return status, nil
}

// invalid builds an error matching store.ErrInvalidInput.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// validate runs the struct rules and folds failures into ErrInvalidInput.
func validate(req any) error {
	if err := validation.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidInput, err)
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}
	logging.Ctx(ctx).Info().
		Str("audit_action", action).
		Str("entity_type", entityType).
		Str("entity_id", entityID).
		Str("actor", actor.Username).
		Str("actor_role", actor.Role).
		Str("detail", detail).
		Msg("audit")
}

func (s *Service) log(ctx context.Context) *zerolog.Logger {
	return logging.Ctx(ctx)
}

func (s *Service) localToday() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

// parseDay reads YYYY-MM-DD as local midnight. An empty value means today.
func (s *Service) parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.localToday(), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, s.loc)
	if err != nil {
		return time.Time{}, invalid("date must be YYYY-MM-DD")
	}
	return day, nil
}

// parseBound reads an optional range bound given as a date or RFC3339
// instant. A bare end date covers that whole local day.
func (s *Service) parseBound(raw string, end bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if day, err := time.ParseInLocation(time.DateOnly, raw, s.loc); err == nil {
		if end {
			day = day.AddDate(0, 0, 1)
		}
		return &day, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, invalid("%q is neither YYYY-MM-DD nor RFC3339", raw)
	}
	return &at, nil
}

func (s *Service) parseRange(start string, end string) (*time.Time, *time.Time, error) {
	from, err := s.parseBound(start, false)
	if err != nil {
		return nil, nil, err
	}
	to, err := s.parseBound(end, true)
	if err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, nil, invalid("startDate must be before endDate")
	}
	return from, to, nil
}

func (s *Service) dateOr(at *time.Time) time.Time {
	if at == nil || at.IsZero() {
		return s.now().UTC()
	}
	return at.UTC()
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
