package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"intake/internal/certificate/models"
	"intake/pkg/platform/sentinel"
)

// InMemoryStore keeps certificates in process. The mutex serializes serial allocation.
type InMemoryStore struct {
	mu           sync.RWMutex
	prefix       string
	certificates map[uuid.UUID]*models.Certificate
	byApp        map[uuid.UUID]uuid.UUID
	sequences    map[int]int
}

func NewInMemoryStore(serialPrefix string) *InMemoryStore {
	return &InMemoryStore{
		prefix:       serialPrefix,
		certificates: make(map[uuid.UUID]*models.Certificate),
		byApp:        make(map[uuid.UUID]uuid.UUID),
		sequences:    make(map[int]int),
	}
}

// Create allocates the next serial for the issue year and stores cert.
func (s *InMemoryStore) Create(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byApp[cert.ApplicationID]; ok {
		return sentinel.Conflict(models.FieldApplicationID)
	}
	if _, ok := s.certificates[cert.ID]; ok {
		return sentinel.Conflict("id")
	}

	year := cert.IssuedAt.Year()
	cert.AssignSerial(s.prefix, s.sequences[year]+1)
	s.sequences[year] = cert.Sequence

	stored := *cert
	s.certificates[cert.ID] = &stored
	s.byApp[cert.ApplicationID] = cert.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cert, ok := s.certificates[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *cert
	return &cp, nil
}

func (s *InMemoryStore) FindByApplicationID(ctx context.Context, applicationID uuid.UUID) (*models.Certificate, error) {
	s.mu.RLock()
	id, ok := s.byApp[applicationID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *InMemoryStore) UpdateURL(_ context.Context, id uuid.UUID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cert, ok := s.certificates[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	cert.CertificateURL = url
	return nil
}
