package repositories

import (
	"errors"
	"fmt"
	"strings"

	"foodhub/internal/apperrors"
	"foodhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMDeliveryPersonRepository is a GORM implementation of DeliveryPersonRepository.
type GORMDeliveryPersonRepository struct {
	db *gorm.DB
}

// NewGORMDeliveryPersonRepository creates a new instance of GORMDeliveryPersonRepository.
func NewGORMDeliveryPersonRepository(db *gorm.DB) *GORMDeliveryPersonRepository {
	return &GORMDeliveryPersonRepository{db: db}
}

// GetAll lists delivery people by name.
func (r *GORMDeliveryPersonRepository) GetAll() ([]models.DeliveryPerson, error) {
	var people []models.DeliveryPerson
	if err := r.db.Order("name").Find(&people).Error; err != nil {
		return nil, fmt.Errorf("failed to get delivery people: %w", err)
	}
	return people, nil
}

// GetByID retrieves a delivery person by ID.
func (r *GORMDeliveryPersonRepository) GetByID(id string) (*models.DeliveryPerson, error) {
	var person models.DeliveryPerson
	if err := r.db.First(&person, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "delivery person", ID: id}
		}
		return nil, fmt.Errorf("failed to get delivery person %s: %w", id, err)
	}
	return &person, nil
}

// Create adds a delivery person. The phone number must be unused.
func (r *GORMDeliveryPersonRepository) Create(person *models.DeliveryPerson) error {
	var count int64
	if err := r.db.Model(&models.DeliveryPerson{}).Where("phone = ?", person.Phone).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check delivery person phone: %w", err)
	}
	if count > 0 {
		return &apperrors.ConflictError{Reason: fmt.Sprintf("phone '%s' already registered", person.Phone)}
	}
	if person.ID == "" {
		person.ID = uuid.New().String()
	}
	if err := r.db.Create(person).Error; err != nil {
		if isUniqueViolation(err) {
			return &apperrors.ConflictError{Reason: fmt.Sprintf("phone '%s' already registered", person.Phone)}
		}
		return fmt.Errorf("failed to create delivery person: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
