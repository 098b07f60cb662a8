package repositories

import (
	"fmt"
	"sort"
	"time"

	"foodhub/internal/apperrors"
	"foodhub/internal/models"

	"github.com/google/uuid"
)

// MockDeliveryPersonRepository is an in-memory implementation of DeliveryPersonRepository.
type MockDeliveryPersonRepository struct {
	store *MemoryStore
}

// NewMockDeliveryPersonRepository creates a new instance of MockDeliveryPersonRepository.
func NewMockDeliveryPersonRepository(store *MemoryStore) *MockDeliveryPersonRepository {
	return &MockDeliveryPersonRepository{store: store}
}

// GetAll lists delivery people by name.
func (r *MockDeliveryPersonRepository) GetAll() ([]models.DeliveryPerson, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	people := make([]models.DeliveryPerson, 0, len(r.store.deliveryPeople))
	for _, p := range r.store.deliveryPeople {
		people = append(people, p)
	}
	sort.Slice(people, func(i, j int) bool { return people[i].Name < people[j].Name })
	return people, nil
}

// GetByID retrieves a delivery person by ID.
func (r *MockDeliveryPersonRepository) GetByID(id string) (*models.DeliveryPerson, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	person, ok := r.store.deliveryPeople[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "delivery person", ID: id}
	}
	return &person, nil
}

// Create adds a delivery person. The phone number must be unused.
func (r *MockDeliveryPersonRepository) Create(person *models.DeliveryPerson) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, p := range r.store.deliveryPeople {
		if p.Phone == person.Phone {
			return &apperrors.ConflictError{Reason: fmt.Sprintf("phone '%s' already registered", person.Phone)}
		}
	}
	if person.ID == "" {
		person.ID = uuid.New().String()
	}
	now := time.Now()
	person.CreatedAt, person.UpdatedAt = now, now
	r.store.deliveryPeople[person.ID] = *person
	return nil
}
