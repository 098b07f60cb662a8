package repositories

import (
	"sort"
	"time"

	"foodhub/internal/apperrors"
	"foodhub/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	store *MemoryStore
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository(store *MemoryStore) *MockUserRepository {
	return &MockUserRepository{store: store}
}

// Create adds a new user.
func (r *MockUserRepository) Create(user *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleCustomer
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.store.users[user.ID] = *user
	return nil
}

// GetByUsername returns a user by username.
func (r *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	return r.find(username, func(u models.User) bool { return u.Username == username })
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	return r.find(email, func(u models.User) bool { return u.Email == email })
}

// GetByID returns a user by ID.
func (r *MockUserRepository) GetByID(id string) (*models.User, error) {
	return r.find(id, func(u models.User) bool { return u.ID == id })
}

// GetIDsByRoles returns the ids of every user holding one of roles.
func (r *MockUserRepository) GetIDsByRoles(roles ...models.Role) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	wanted := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		wanted[role] = true
	}
	var users []models.User
	for _, u := range r.store.users {
		if wanted[u.Role] {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids, nil
}

func (r *MockUserRepository) find(key string, match func(models.User) bool) (*models.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, &apperrors.NotFoundError{Resource: "user", ID: key}
}
