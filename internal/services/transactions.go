package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cashorganizer/internal/core"
	"cashorganizer/internal/log"
	"cashorganizer/internal/period"
	"cashorganizer/internal/records"
)

// TransactionState is the display state of the transaction list.
type TransactionState struct {
	All             []core.Transaction
	Filtered        []core.Transaction
	Period          period.DisplayPeriod
	Range           period.Range
	Balance         decimal.Decimal
	FilteredBalance decimal.Decimal
	Err             error
}

type TransactionService struct {
	*holder[TransactionState]
	period period.DisplayPeriod
}

// NewTransactionService starts a holder showing every transaction.
func NewTransactionService(store *records.Store, opts Options) *TransactionService {
	s := &TransactionService{period: period.All}
	s.holder = newHolder(store, log.ComponentTransactions, opts, s.compute)
	s.refresh()
	follow(s.holder, store.Transactions.Subscribe())
	return s
}

func (s *TransactionService) compute(err error) TransactionState {
	all := s.store.Transactions.Current()
	r := period.RangeFor(s.period, s.opts.Now(), s.opts.Location)

	filtered := make([]core.Transaction, 0, len(all))
	for _, tx := range all {
		if r.Contains(tx.Date) {
			filtered = append(filtered, tx)
		}
	}
	return TransactionState{
		All:             all,
		Filtered:        filtered,
		Period:          s.period,
		Range:           r,
		Balance:         Balance(all),
		FilteredBalance: Balance(filtered),
		Err:             err,
	}
}

// Balance is income minus expenses.
func Balance(txs []core.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			sum = sum.Add(tx.Amount)
		case core.Expense:
			sum = sum.Sub(tx.Amount)
		}
	}
	return sum
}

// Add records a new transaction.
func (s *TransactionService) Add(amount decimal.Decimal, typ core.TransactionType, category string, date time.Time, note string) {
	s.submit(log.OpCreate, func(ctx context.Context) error {
		now := s.opts.Now()
		tx := core.Transaction{
			Amount:    amount,
			Type:      typ,
			Category:  category,
			Date:      date,
			Note:      note,
			CreatedAt: now,
		}
		if tx.Date.IsZero() {
			tx.Date = now
		}
		if err := tx.Validate(); err != nil {
			return invalid(err)
		}
		id, err := s.store.Transactions.Insert(ctx, tx)
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "Transaction added",
			log.FieldID, id,
			log.FieldType, tx.Type,
			log.FieldAmount, core.FormatAmount(tx.Amount),
			log.FieldCategory, tx.Category)
		return nil
	})
}

// Update replaces every field of an existing transaction except its id and
// creation time.
func (s *TransactionService) Update(tx core.Transaction) {
	s.submit(log.OpUpdate, func(ctx context.Context) error {
		if err := tx.Validate(); err != nil {
			return invalid(err)
		}
		existing, err := s.store.Transactions.Get(ctx, tx.ID)
		if err != nil {
			return err
		}
		if tx.CreatedAt.IsZero() {
			tx.CreatedAt = existing.CreatedAt
		}
		return s.store.Transactions.Update(ctx, tx)
	})
}

// Delete removes the transaction with id.
func (s *TransactionService) Delete(id int64) {
	s.submit(log.OpDelete, func(ctx context.Context) error {
		return s.store.Transactions.Delete(ctx, id)
	})
}

// SetPeriod changes the display filter.
func (s *TransactionService) SetPeriod(p period.DisplayPeriod) {
	s.submit(log.OpSetPeriod, func(ctx context.Context) error {
		if _, err := period.ParseDisplayPeriod(string(p)); err != nil {
			return invalid(err)
		}
		s.mu.Lock()
		s.period = p
		s.mu.Unlock()
		return nil
	})
}
