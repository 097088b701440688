// Package store persists payment transactions with an index of the single
// active transaction per (event, attendee).
package store

import (
	"context"
	"sync"
	"time"

	"registrar/internal/domain"
	"registrar/pkg/platform/sentinel"
)

// InMemoryStore keeps transactions in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*domain.PaymentTransaction
	active map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[string]*domain.PaymentTransaction),
		active: make(map[string]string),
	}
}

func activeKey(eventID, attendeeID string) string {
	return eventID + ":" + attendeeID
}

func owned(tx *domain.PaymentTransaction) bool {
	return tx.EventID != "" && tx.AttendeeID != ""
}

// Save upserts tx. A terminal transaction drops out of the active index, and
// a transaction with no owner never enters it.
func (s *InMemoryStore) Save(_ context.Context, tx *domain.PaymentTransaction) error {
	if tx == nil || tx.PaymentID == "" {
		return sentinel.ErrInvalidState
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[tx.PaymentID] = tx.Clone()
	if !owned(tx) {
		return nil
	}
	key := activeKey(tx.EventID, tx.AttendeeID)
	if tx.Status.IsTerminal() {
		if s.active[key] == tx.PaymentID {
			delete(s.active, key)
		}
		return nil
	}
	s.active[key] = tx.PaymentID
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, paymentID string) (*domain.PaymentTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.byID[paymentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return tx.Clone(), nil
}

// FindActive returns the non-terminal, unexpired transaction for the pair.
func (s *InMemoryStore) FindActive(_ context.Context, eventID, attendeeID string, now time.Time) (*domain.PaymentTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.active[activeKey(eventID, attendeeID)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	tx, ok := s.byID[id]
	if !ok || !tx.IsActive(now) {
		return nil, sentinel.ErrNotFound
	}
	return tx.Clone(), nil
}
