package guest

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"guestlist/internal/guest/models"
	"guestlist/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded guest store. Create checks and inserts under one
// lock, so it gives the same uniqueness guarantees as the Postgres indexes.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	guests map[int64]*models.Guest
}

func NewInMemory() *InMemory {
	return &InMemory{guests: make(map[int64]*models.Guest)}
}

func (s *InMemory) Create(_ context.Context, g *models.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByNameLocked(g.Name, g.Lastname) != nil {
		return ErrDuplicateName
	}
	if g.IsLeader {
		for _, existing := range s.guests {
			if existing.IsLeader && existing.Email == g.Email {
				return ErrDuplicateEmail
			}
		}
	} else {
		if g.CompanionOf == nil {
			return ErrLeaderNotFound
		}
		leader, ok := s.guests[*g.CompanionOf]
		if !ok || !leader.IsLeader {
			return ErrLeaderNotFound
		}
	}

	s.nextID++
	g.ID = s.nextID
	s.guests[g.ID] = clone(g)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(g), nil
}

// FindByName matches name and lastname case-insensitively.
func (s *InMemory) FindByName(_ context.Context, name, lastname string) (*models.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g := s.findByNameLocked(name, lastname); g != nil {
		return clone(g), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) findByNameLocked(name, lastname string) *models.Guest {
	for _, g := range s.guests {
		if strings.EqualFold(g.Name, name) && strings.EqualFold(g.Lastname, lastname) {
			return g
		}
	}
	return nil
}

// FindByEmail matches exactly. Only leaders carry an email.
func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.guests {
		if g.Email != "" && g.Email == email {
			return clone(g), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, id int64, patch models.Patch) (*models.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if other := s.findByNameLocked(patch.Name, patch.Lastname); other != nil && other.ID != id {
		return nil, ErrDuplicateName
	}
	g.Name = patch.Name
	g.Lastname = patch.Lastname
	if patch.Menu != nil {
		g.Menu = *patch.Menu
	}
	return clone(g), nil
}

func (s *InMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guests[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if g.IsLeader {
		return ErrLeaderDeletion
	}
	delete(s.guests, id)
	return nil
}

// List returns guests matching filter ordered by lastname, then name, then ID.
func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]*models.Guest, 0, len(s.guests))
	for _, g := range s.guests {
		if filter.LeadersOnly && !g.IsLeader {
			continue
		}
		if filter.CompanionOf != nil && !g.BelongsTo(*filter.CompanionOf) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(g.Name), query) &&
			!strings.Contains(strings.ToLower(g.Lastname), query) {
			continue
		}
		out = append(out, clone(g))
	}
	slices.SortFunc(out, func(a, b *models.Guest) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Lastname), strings.ToLower(b.Lastname)),
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.guests), nil
}

// CountByMenu keys guests without a menu under "".
func (s *InMemory) CountByMenu(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int)
	for _, g := range s.guests {
		out[g.Menu]++
	}
	return out, nil
}

func clone(g *models.Guest) *models.Guest {
	c := *g
	if g.CompanionOf != nil {
		leader := *g.CompanionOf
		c.CompanionOf = &leader
	}
	return &c
}
