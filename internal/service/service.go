// Package service implements the use cases of the room rental API on top of
// GORM. Every operation that writes more than one row runs in a single
// transaction, and every error that leaves the package is either an
// *apperr.Error or an unexpected failure the HTTP layer turns into
// INTERNAL_ERROR.
package service

import (
	"context"
	"strings"
	"time"

	"room_rental/internal/apperr"
	"room_rental/internal/config"
	"room_rental/internal/db"
	"room_rental/internal/metrics"
	"room_rental/internal/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Service bundles the dependencies shared by every use case.
type Service struct {
	db       *gorm.DB
	cfg      *config.Config
	throttle utils.LoginThrottle
	metrics  *metrics.Metrics
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*Service)

// WithThrottle enables failed-login throttling.
func WithThrottle(t utils.LoginThrottle) Option {
	return func(s *Service) { s.throttle = t }
}

// WithMetrics records domain events on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(gdb *gorm.DB, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		db:       gdb,
		cfg:      cfg,
		throttle: utils.NoopThrottle{},
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the database connection.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Service) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// inTx runs fn in a transaction that is rolled back when fn returns an error.
// Serialization failures and deadlocks surface as CONCURRENT_MODIFICATION.
func (s *Service) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(fn)
	if err != nil && db.Classify(err) == db.KindSerialization {
		return apperr.Conflict(apperr.CodeConcurrentModification).Wrap(err)
	}
	return err
}

func (s *Service) validEmail(email string) bool {
	return s.validate.Var(email, "required,email") == nil
}

func (s *Service) validURL(u string) bool {
	return s.validate.Var(u, "required,url") == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
