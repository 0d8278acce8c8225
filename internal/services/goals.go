package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cashorganizer/internal/budget"
	"cashorganizer/internal/core"
	"cashorganizer/internal/log"
	"cashorganizer/internal/records"
	"cashorganizer/internal/storage"
)

// GoalView is a goal with its progress worked out.
type GoalView struct {
	Goal      core.Goal
	Progress  int // percent of target, capped at 100
	Remaining decimal.Decimal
	Reached   bool
}

type GoalState struct {
	Goals []GoalView
	Err   error
}

type GoalService struct {
	*holder[GoalState]
}

func NewGoalService(store *records.Store, opts Options) *GoalService {
	s := &GoalService{}
	s.holder = newHolder(store, log.ComponentGoals, opts, s.compute)
	s.refresh()
	follow(s.holder, store.Goals.Subscribe())
	return s
}

func (s *GoalService) compute(err error) GoalState {
	goals := s.store.Goals.Current()
	views := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, GoalView{
			Goal:      g,
			Progress:  budget.Percent(g.CurrentAmount, g.TargetAmount),
			Remaining: decimal.Max(g.TargetAmount.Sub(g.CurrentAmount), decimal.Zero),
			Reached:   g.Reached(),
		})
	}
	return GoalState{Goals: views, Err: err}
}

// Add creates a goal with nothing saved yet. targetDate may be nil.
func (s *GoalService) Add(name string, target decimal.Decimal, targetDate *time.Time) {
	s.submit(log.OpCreate, func(ctx context.Context) error {
		now := s.opts.Now()
		g := core.Goal{
			Name:          strings.TrimSpace(name),
			TargetAmount:  target,
			CurrentAmount: decimal.Zero,
			TargetDate:    targetDate,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := g.Validate(); err != nil {
			return invalid(err)
		}
		id, err := s.store.Goals.Insert(ctx, g)
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "Goal added", log.FieldGoalID, id, log.FieldAmount, core.FormatAmount(target))
		return nil
	})
}

// Update replaces an existing goal, keeping its creation time.
func (s *GoalService) Update(g core.Goal) {
	s.submit(log.OpUpdate, func(ctx context.Context) error {
		if err := g.Validate(); err != nil {
			return invalid(err)
		}
		return s.store.Goals.Mutate(ctx, func(ctx context.Context, c storage.Collection[core.Goal]) error {
			existing, err := c.Get(ctx, g.ID)
			if err != nil {
				return err
			}
			g.CreatedAt = existing.CreatedAt
			g.UpdatedAt = s.opts.Now()
			return c.Update(ctx, g)
		})
	})
}

func (s *GoalService) Delete(id int64) {
	s.submit(log.OpDelete, func(ctx context.Context) error {
		return s.store.Goals.Delete(ctx, id)
	})
}

// Contribute adds amount to a goal's savings. A negative amount withdraws;
// savings never drop below zero.
func (s *GoalService) Contribute(goalID int64, amount decimal.Decimal) {
	s.submit(log.OpContribute, func(ctx context.Context) error {
		if amount.IsZero() {
			return invalid(core.ErrInvalidAmount)
		}
		return s.store.Goals.Mutate(ctx, func(ctx context.Context, c storage.Collection[core.Goal]) error {
			g, err := c.Get(ctx, goalID)
			if err != nil {
				return err
			}
			g = g.Contribute(amount, s.opts.Now())
			if err := c.Update(ctx, g); err != nil {
				return err
			}
			s.logger.InfoContext(ctx, "Goal contribution",
				log.FieldGoalID, goalID,
				log.FieldAmount, core.FormatAmount(amount),
				"current", core.FormatAmount(g.CurrentAmount))
			return nil
		})
	})
}
