package repositories

import "foodhub/internal/models"

// DeliveryPersonRepository defines the interface for courier records.
type DeliveryPersonRepository interface {
	GetAll() ([]models.DeliveryPerson, error)
	GetByID(id string) (*models.DeliveryPerson, error)
	Create(person *models.DeliveryPerson) error
}
