package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// userRepoMock is an in-memory userRepo keyed by ID.
type userRepoMock struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User

	GetByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
}

func newUserRepoMock(users ...domain.User) *userRepoMock {
	m := &userRepoMock{users: map[uuid.UUID]domain.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *userRepoMock) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *userRepoMock) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *userRepoMock) Create(_ context.Context, u domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) || existing.Username == u.Username {
			return nil, domain.ErrAlreadyExists
		}
	}
	m.users[u.ID] = u
	return &u, nil
}

func (m *userRepoMock) UpdateRole(_ context.Context, id uuid.UUID, role domain.UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Role = role
	m.users[id] = u
	return nil
}
