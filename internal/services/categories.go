package services

import (
	"context"
	"strings"

	"cashorganizer/internal/core"
	"cashorganizer/internal/log"
	"cashorganizer/internal/records"
)

type CategoryState struct {
	Categories []core.Category
	Income     []core.Category
	Expense    []core.Category
	Err        error
}

type CategoryService struct {
	*holder[CategoryState]
}

func NewCategoryService(store *records.Store, opts Options) *CategoryService {
	s := &CategoryService{}
	s.holder = newHolder(store, log.ComponentCategories, opts, s.compute)
	s.refresh()
	follow(s.holder, store.Categories.Subscribe())
	return s
}

func (s *CategoryService) compute(err error) CategoryState {
	all := s.store.Categories.Current()
	st := CategoryState{
		Categories: all,
		Income:     make([]core.Category, 0),
		Expense:    make([]core.Category, 0),
		Err:        err,
	}
	for _, c := range all {
		if c.IsExpense() {
			st.Expense = append(st.Expense, c)
		} else {
			st.Income = append(st.Income, c)
		}
	}
	return st
}

// Add creates a category. Duplicate names are allowed.
func (s *CategoryService) Add(name string, typ core.TransactionType) {
	s.submit(log.OpCreate, func(ctx context.Context) error {
		c := core.Category{Name: strings.TrimSpace(name), Type: typ}
		if err := c.Validate(); err != nil {
			return invalid(err)
		}
		id, err := s.store.Categories.Insert(ctx, c)
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "Category added", log.FieldID, id, log.FieldCategory, c.Name, log.FieldType, c.Type)
		return nil
	})
}

// ResetDefaults deletes every record and restores the seed.
func (s *CategoryService) ResetDefaults() {
	s.submit(log.OpReset, func(ctx context.Context) error {
		return s.store.Reset(ctx, s.opts.Seed, s.opts.SeedExamples)
	})
}
