package memory

import (
	"context"
	"sync"

	"orderboard/internal/core"
	ports "orderboard/internal/sheets"
)

var _ ports.AggregatePublisher = (*Store)(nil)

// Store keeps the last published tables in memory.
type Store struct {
	mu     sync.Mutex
	tables map[string]core.Table
	calls  int
	err    error
}

func New() *Store {
	return &Store{tables: make(map[string]core.Table)}
}

// FailWith makes subsequent publishes return err. A nil err clears it.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Publish replaces the stored copy of every table.
func (s *Store) Publish(_ context.Context, tables []core.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	for _, t := range tables {
		rows := make([][]core.Cell, len(t.Rows))
		for i, r := range t.Rows {
			rows[i] = append([]core.Cell(nil), r...)
		}
		t.Rows = rows
		t.Columns = append([]core.Column(nil), t.Columns...)
		s.tables[t.Name] = t
	}
	return nil
}

// Table returns the last published table with the given name.
func (s *Store) Table(name string) (core.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	return t, ok
}

// Calls returns how many times Publish was called.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
