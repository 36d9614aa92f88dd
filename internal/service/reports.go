package service

import (
	"context"

	"go.uber.org/zap"

	"kasirstok/backend/internal/apperr"
	"kasirstok/backend/internal/domain"
	"kasirstok/backend/internal/logger"
	"kasirstok/backend/internal/report"
)

// SalesChart buckets completed sales for the requested period and range.
// Cache errors are logged and the chart is computed from the store instead.
func (s *Service) SalesChart(ctx context.Context, rawPeriod string, rawRange string) (domain.SalesChart, error) {
	period, err := report.ParsePeriod(rawPeriod)
	if err != nil {
		return domain.SalesChart{}, err
	}
	rng, err := report.ParseRange(rawRange)
	if err != nil {
		return domain.SalesChart{}, err
	}
	log := logger.FromContext(ctx)
	now := s.now()
	anchor := report.PeriodStart(period, now)

	cached, ok, err := s.reports.Get(ctx, period, rng, anchor)
	if err != nil {
		log.Warn("report cache read failed", zap.String("period", string(period)), zap.Error(err))
	} else if ok {
		return *cached, nil
	}

	window, err := report.Bucket(nil, period, rng, now)
	if err != nil {
		return domain.SalesChart{}, err
	}
	sales, err := s.repo.ListSales(ctx, domain.SaleFilter{
		Status: domain.SaleCompleted,
		From:   window[0].PeriodStart,
		To:     window[len(window)-1].PeriodEnd,
	})
	if err != nil {
		return domain.SalesChart{}, apperr.Persistence("list sales", err)
	}

	buckets, err := report.Bucket(sales, period, rng, now)
	if err != nil {
		return domain.SalesChart{}, err
	}
	total, margin := report.Sums(buckets)
	chart := domain.SalesChart{
		Period:      period,
		Range:       rng,
		Anchor:      anchor,
		Buckets:     buckets,
		TotalSales:  total,
		TotalMargin: margin,
	}

	if err := s.reports.Set(ctx, &chart, s.cacheTTL); err != nil {
		log.Warn("report cache write failed", zap.String("period", string(period)), zap.Error(err))
	}
	return chart, nil
}
