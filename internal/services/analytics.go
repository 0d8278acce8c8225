package services

import (
	"context"

	"cashorganizer/internal/analytics"
	"cashorganizer/internal/log"
	"cashorganizer/internal/period"
	"cashorganizer/internal/records"
)

type AnalyticsService struct {
	*holder[analytics.Report]
	period period.DisplayPeriod
}

// NewAnalyticsService starts on the current month.
func NewAnalyticsService(store *records.Store, opts Options) *AnalyticsService {
	s := &AnalyticsService{period: period.Month}
	s.holder = newHolder(store, log.ComponentAnalytics, opts, s.compute)
	s.refresh()
	follow(s.holder, store.Transactions.Subscribe())
	return s
}

func (s *AnalyticsService) compute(error) analytics.Report {
	return analytics.Build(s.store.Transactions.Current(), s.period, s.opts.Now(), s.opts.Location)
}

// SetPeriod switches between MONTH, YEAR and ALL.
func (s *AnalyticsService) SetPeriod(p period.DisplayPeriod) {
	s.submit(log.OpSetPeriod, func(ctx context.Context) error {
		if err := analytics.ValidatePeriod(p); err != nil {
			return invalid(err)
		}
		s.mu.Lock()
		s.period = p
		s.mu.Unlock()
		return nil
	})
}
