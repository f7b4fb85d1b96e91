package report

import (
	"context"
	"sync"

	"guestlist/internal/report/models"
)

// InMemory keeps reports in insertion order.
type InMemory struct {
	mu      sync.RWMutex
	reports []*models.ErrorReport
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Create(_ context.Context, r *models.ErrorReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = int64(len(s.reports)) + 1
	c := *r
	s.reports = append(s.reports, &c)
	return nil
}

// List returns reports ordered by ID.
func (s *InMemory) List(_ context.Context) ([]*models.ErrorReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ErrorReport, 0, len(s.reports))
	for _, r := range s.reports {
		c := *r
		out = append(out, &c)
	}
	return out, nil
}
