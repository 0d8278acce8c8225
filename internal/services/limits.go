package services

import (
	"context"

	"github.com/shopspring/decimal"

	"cashorganizer/internal/budget"
	"cashorganizer/internal/core"
	"cashorganizer/internal/log"
	"cashorganizer/internal/period"
	"cashorganizer/internal/records"
	"cashorganizer/internal/storage"
)

type LimitState struct {
	// Month is the key limits are looked up under, "YYYY-MM".
	Month string
	Rows  []budget.Row
	Err   error
}

// LimitService shows spending against limits for every expense category.
type LimitService struct {
	*holder[LimitState]
}

func NewLimitService(store *records.Store, opts Options) *LimitService {
	s := &LimitService{}
	s.holder = newHolder(store, log.ComponentLimits, opts, s.compute)
	s.refresh()
	follow(s.holder, store.Transactions.Subscribe())
	follow(s.holder, store.Categories.Subscribe())
	follow(s.holder, store.Limits.Subscribe())
	return s
}

func (s *LimitService) compute(err error) LimitState {
	now := s.opts.Now()
	in := budget.Input{
		Transactions: s.store.Transactions.Current(),
		Categories:   s.store.Categories.Current(),
		Limits:       s.store.Limits.Current(),
	}
	return LimitState{
		Month: period.MonthKey(now, s.opts.Location),
		Rows:  budget.Compute(in, now, s.opts.Location),
		Err:   err,
	}
}

// SetLimit sets the limit of an expense category for month. An amount of
// zero or less removes the limit. An empty cadence means monthly.
func (s *LimitService) SetLimit(categoryID int64, month string, amount decimal.Decimal, cadence core.LimitPeriod) {
	s.submit(log.OpSetLimit, func(ctx context.Context) error {
		if month == "" {
			month = period.MonthKey(s.opts.Now(), s.opts.Location)
		}
		if err := core.ValidateMonth(month); err != nil {
			return invalid(err)
		}
		p, err := core.ParseLimitPeriod(string(cadence))
		if err != nil {
			return invalid(err)
		}

		cat, err := s.store.Categories.Get(ctx, categoryID)
		if err != nil {
			return err
		}
		if err := budget.ValidateLimitTarget(cat); err != nil {
			return invalid(err)
		}

		return s.store.Limits.Mutate(ctx, func(ctx context.Context, c storage.Collection[core.Limit]) error {
			existing, err := c.Find(ctx, storage.LimitForCategoryMonth(categoryID, month))
			if err != nil {
				return err
			}

			if !amount.IsPositive() {
				for _, l := range existing {
					if err := c.Delete(ctx, l.ID); err != nil {
						return err
					}
				}
				s.logger.InfoContext(ctx, "Limit removed", log.FieldCategoryID, categoryID, log.FieldMonth, month)
				return nil
			}

			now := s.opts.Now()
			if len(existing) == 0 {
				_, err := c.Insert(ctx, core.Limit{
					CategoryID:  categoryID,
					Month:       month,
					LimitAmount: amount,
					Period:      p,
					CreatedAt:   now,
					UpdatedAt:   now,
				})
				if err != nil {
					return err
				}
				s.logger.InfoContext(ctx, "Limit created",
					log.FieldCategoryID, categoryID,
					log.FieldMonth, month,
					log.FieldAmount, core.FormatAmount(amount),
					log.FieldPeriod, p)
				return nil
			}

			l := existing[0]
			l.LimitAmount = amount
			l.Period = p
			l.UpdatedAt = now
			if err := c.Update(ctx, l); err != nil {
				return err
			}
			for _, dup := range existing[1:] {
				if err := c.Delete(ctx, dup.ID); err != nil {
					return err
				}
			}
			s.logger.InfoContext(ctx, "Limit updated",
				log.FieldCategoryID, categoryID,
				log.FieldMonth, month,
				log.FieldAmount, core.FormatAmount(amount),
				log.FieldPeriod, p)
			return nil
		})
	})
}

// DeleteLimit removes the limit with id.
func (s *LimitService) DeleteLimit(id int64) {
	s.submit(log.OpDelete, func(ctx context.Context) error {
		return s.store.Limits.Delete(ctx, id)
	})
}

// Limit returns the stored limit of a category for month.
func (s *LimitService) Limit(ctx context.Context, categoryID int64, month string) (core.Limit, error) {
	found, err := s.store.Limits.Find(ctx, storage.LimitForCategoryMonth(categoryID, month))
	if err != nil {
		return core.Limit{}, err
	}
	if len(found) == 0 {
		return core.Limit{}, storage.ErrNotFound
	}
	return found[0], nil
}
