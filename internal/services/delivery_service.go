package services

import (
	"strings"

	"foodhub/internal/apperrors"
	"foodhub/internal/models"
	"foodhub/internal/repositories"
)

// CreateDeliveryPersonRequest registers a courier.
type CreateDeliveryPersonRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"required,min=7,max=20"`
}

// DeliveryService manages delivery people.
type DeliveryService struct {
	repo repositories.DeliveryPersonRepository
}

// NewDeliveryService creates a new DeliveryService.
func NewDeliveryService(repo repositories.DeliveryPersonRepository) *DeliveryService {
	return &DeliveryService{repo: repo}
}

// List returns every delivery person.
func (s *DeliveryService) List(identity Identity) ([]models.DeliveryPerson, error) {
	if !identity.IsStaff() {
		return nil, &apperrors.ForbiddenError{Reason: "only staff can list delivery people"}
	}
	return s.repo.GetAll()
}

// Create registers a delivery person with a unique phone number.
func (s *DeliveryService) Create(identity Identity, req CreateDeliveryPersonRequest) (*models.DeliveryPerson, error) {
	if !identity.IsStaff() {
		return nil, &apperrors.ForbiddenError{Reason: "only staff can register delivery people"}
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	person := &models.DeliveryPerson{Name: req.Name, Phone: req.Phone}
	if err := s.repo.Create(person); err != nil {
		return nil, err
	}
	return person, nil
}
