// Package store provides bounded in-memory storage for evaluation records.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lemonberrylabs/timecalc/pkg/types"
)

// DefaultCapacity is the number of evaluations kept when none is configured.
const DefaultCapacity = 1000

// EvaluationState represents the outcome of an evaluation.
type EvaluationState string

const (
	EvaluationSucceeded EvaluationState = "SUCCEEDED"
	EvaluationFailed    EvaluationState = "FAILED"
)

// Evaluation is a stored evaluation of one expression.
type Evaluation struct {
	ID         string           `json:"id"`
	Expression string           `json:"expression"`
	State      EvaluationState  `json:"state"`
	Result     *types.Value     `json:"result,omitempty"`
	Display    string           `json:"display,omitempty"`
	Error      *EvaluationError `json:"error,omitempty"`
	CreateTime time.Time        `json:"createTime"`
	Duration   time.Duration    `json:"-"`
	Cached     bool             `json:"cached,omitempty"`
}

// EvaluationError describes why an evaluation failed.
type EvaluationError struct {
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Verdict reports whether the evaluation produced a boolean result.
func (e *Evaluation) Verdict() bool {
	return e.Result != nil && e.Result.Type() == types.TypeBool
}

// Store is a thread-safe, bounded, in-memory history of evaluations. When
// full, the oldest evaluation is dropped.
type Store struct {
	mu       sync.RWMutex
	capacity int
	order    []string // oldest first
	byID     map[string]*Evaluation
}

// New creates a new empty store holding at most capacity evaluations. A
// capacity below one selects DefaultCapacity.
func New(capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		byID:     make(map[string]*Evaluation),
	}
}

// Capacity returns the maximum number of stored evaluations.
func (s *Store) Capacity() int {
	return s.capacity
}

// Add stores an evaluation, assigning an ID and creation time if unset.
func (s *Store) Add(e *Evaluation) *Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreateTime.IsZero() {
		e.CreateTime = time.Now()
	}
	if _, exists := s.byID[e.ID]; !exists {
		s.order = append(s.order, e.ID)
	}
	s.byID[e.ID] = e

	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.byID, oldest)
	}
	return e
}

// Get retrieves an evaluation by ID.
func (s *Store) Get(id string) (*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("evaluation '%s' not found", id)
	}
	return e, nil
}

// List returns up to limit evaluations, newest first. A limit below one
// returns all of them.
func (s *Store) List(limit int) []*Evaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.order)
	if limit < 1 || limit > n {
		limit = n
	}
	result := make([]*Evaluation, 0, limit)
	for i := n - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.byID[s.order[i]])
	}
	return result
}

// Len returns the number of stored evaluations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Counts returns the number of succeeded and failed evaluations.
func (s *Store) Counts() (succeeded, failed int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.byID {
		switch e.State {
		case EvaluationSucceeded:
			succeeded++
		case EvaluationFailed:
			failed++
		}
	}
	return succeeded, failed
}

// Clear removes all evaluations.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = nil
	s.byID = make(map[string]*Evaluation)
}
