// Package memory provides an in-memory Repository used by tests and as the
// default backend when no SQLite path is configured.
package memory

import (
	"context"
	"sync"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

type Store struct {
	mu      sync.Mutex
	budget  *core.BudgetConfig
	records []core.ExpenseRecord
	nextID  int64
}

var _ storage.Repository = (*Store)(nil)

func New() *Store {
	return &Store{nextID: 1}
}

func (s *Store) LoadBudget(_ context.Context) (*core.BudgetConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.budget == nil {
		return nil, nil
	}
	cfg := *s.budget
	return &cfg, nil
}

func (s *Store) SaveBudget(_ context.Context, cfg core.BudgetConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget = &cfg
	return nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return core.ExpenseRecord{}, core.ErrExpenseNotFound
}

func (s *Store) ListExpenses(_ context.Context, categories []string) ([]core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var filter map[string]struct{}
	if len(categories) > 0 {
		filter = make(map[string]struct{}, len(categories))
		for _, c := range categories {
			filter[c] = struct{}{}
		}
	}

	out := make([]core.ExpenseRecord, 0, len(s.records))
	for _, rec := range s.records {
		if filter != nil {
			if _, ok := filter[rec.Category]; !ok {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) RecordCharge(_ context.Context, cfg core.BudgetConfig, rec core.ExpenseRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget = &cfg
	rec.ID = s.nextID
	s.nextID++
	s.records = append(s.records, rec)
	return rec.ID, nil
}

func (s *Store) RecordRefund(_ context.Context, cfg *core.BudgetConfig, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.records {
		if rec.ID == id {
			if cfg != nil {
				c := *cfg
				s.budget = &c
			}
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return core.ErrExpenseNotFound
}

func (s *Store) Close() error { return nil }
