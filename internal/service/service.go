package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kasirstok/backend/internal/apperr"
	"kasirstok/backend/internal/cache"
	"kasirstok/backend/internal/domain"
	"kasirstok/backend/internal/logger"
	"kasirstok/backend/internal/metrics"
	"kasirstok/backend/internal/saga"
	"kasirstok/backend/internal/store"
)

type sessionContextKey struct{}

func WithSession(ctx context.Context, session domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(domain.Session)
	return session, ok
}

type Options struct {
	ReportCache    cache.ReportCache
	ReportCacheTTL time.Duration
	TaxRatePercent decimal.Decimal
	Metrics        *metrics.Metrics
}

type Service struct {
	repo     store.Repository
	saga     *saga.Saga
	reports  cache.ReportCache
	cacheTTL time.Duration
	taxRate  decimal.Decimal
	now      func() time.Time
}

func New(repo store.Repository, opts Options) *Service {
	if opts.ReportCache == nil {
		opts.ReportCache = cache.NoopReportCache{}
	}
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = time.Minute
	}

	return &Service{
		repo:     repo,
		saga:     saga.New(repo, repo, opts.Metrics),
		reports:  opts.ReportCache,
		cacheTTL: opts.ReportCacheTTL,
		taxRate:  opts.TaxRatePercent,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// requireRole returns the caller session when its role is one of roles.
func requireRole(ctx context.Context, action string, roles ...string) (domain.Session, error) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return domain.Session{}, &apperr.ForbiddenError{Action: action}
	}
	if !slices.Contains(roles, session.Role) {
		return domain.Session{}, &apperr.ForbiddenError{Action: action, Role: session.Role}
	}
	return session, nil
}

func requireAdmin(ctx context.Context, action string) (domain.Session, error) {
	return requireRole(ctx, action, domain.RoleAdmin)
}

func requireStaff(ctx context.Context, action string) (domain.Session, error) {
	return requireRole(ctx, action, domain.RoleAdmin, domain.RoleCashier)
}

// conflictOr maps a store duplicate to a ConflictError for the named entity.
func conflictOr(op string, err error, document string, key string) error {
	if errors.Is(err, store.ErrDuplicate) {
		return &apperr.ConflictError{Document: document, Number: key}
	}
	return apperr.Persistence(op, err)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, fields ...zap.Field) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		session = domain.Session{Username: "system", Role: "system"}
	}
	logger.FromContext(ctx).Info("audit",
		append([]zap.Field{
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.String("actor", session.Username),
			zap.String("actor_role", session.Role),
		}, fields...)...)
}

// invalidateReports drops cached charts after a sale write. A failure only
// means stale charts until the TTL runs out.
func (s *Service) invalidateReports(ctx context.Context) {
	if err := s.reports.Invalidate(ctx); err != nil {
		logger.FromContext(ctx).Warn("report cache invalidation failed", zap.Error(err))
	}
}
