package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"intake/internal/intake/models"
	"intake/pkg/platform/sentinel"
)

// InMemoryStore keeps applications in process. Uniqueness mirrors the SQL constraints.
type InMemoryStore struct {
	mu           sync.RWMutex
	applications map[uuid.UUID]*models.Application
	byEmail      map[string]uuid.UUID
	byRoll       map[string]uuid.UUID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		applications: make(map[uuid.UUID]*models.Application),
		byEmail:      make(map[string]uuid.UUID),
		byRoll:       make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[app.EmailAddress]; ok {
		return sentinel.Conflict(models.FieldEmail)
	}
	if _, ok := s.byRoll[app.UniversityRollNumber]; ok {
		return sentinel.Conflict(models.FieldUniversityRoll)
	}
	if _, ok := s.applications[app.ID]; ok {
		return sentinel.Conflict("id")
	}

	stored := *app
	s.applications[app.ID] = &stored
	s.byEmail[app.EmailAddress] = app.ID
	s.byRoll[app.UniversityRollNumber] = app.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *app
	return &cp, nil
}

func (s *InMemoryStore) FindByEmail(ctx context.Context, email string) (*models.Application, error) {
	return s.findByIndex(ctx, s.byEmail, email)
}

func (s *InMemoryStore) FindByRollNumber(ctx context.Context, roll string) (*models.Application, error) {
	return s.findByIndex(ctx, s.byRoll, roll)
}

func (s *InMemoryStore) findByIndex(ctx context.Context, index map[string]uuid.UUID, key string) (*models.Application, error) {
	s.mu.RLock()
	id, ok := index[key]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *InMemoryStore) ListNewestFirst(_ context.Context) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Application, 0, len(s.applications))
	for _, app := range s.applications {
		cp := *app
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Application) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}
