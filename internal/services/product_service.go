package services

import (
	"strings"

	"foodhub/internal/apperrors"
	"foodhub/internal/models"
	"foodhub/internal/repositories"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct validates and stores a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := normalizeProduct(product); err != nil {
		return err
	}
	return s.repo.Create(product)
}

// UpdateProduct validates and overwrites an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := normalizeProduct(product); err != nil {
		return err
	}
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

func normalizeProduct(product *models.Product) error {
	product.Name = strings.TrimSpace(product.Name)
	product.Category = strings.TrimSpace(product.Category)
	if product.Availability == "" {
		product.Availability = models.AvailabilityAvailable
	}

	fields := map[string]string{}
	if l := len(product.Name); l < 2 || l > 150 {
		fields["name"] = "name must be between 2 and 150 characters"
	}
	if product.Price.IsNegative() {
		fields["price"] = "price must not be negative"
	}
	if product.Quantity.IsNegative() {
		fields["quantity"] = "quantity must not be negative"
	}
	if !product.Availability.Valid() {
		fields["availability"] = "availability must be one of available, wait_time, unavailable"
	}
	if len(fields) > 0 {
		return &apperrors.ValidationError{Fields: fields}
	}
	return nil
}
