package repositories

import (
	"errors"
	"fmt"
	"sort"

	"foodhub/internal/apperrors"
	"foodhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetAll retrieves all orders, newest first.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByUser retrieves the orders placed by userID, newest first.
func (r *GORMOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	return loadOrder(r.db, "id = ?", id)
}

// GetByReference retrieves the order carrying a payment reference.
func (r *GORMOrderRepository) GetByReference(reference string) (*models.Order, error) {
	return loadOrder(r.db, "payment_reference = ?", reference)
}

// SetPaymentReference stores the reference of the latest payment attempt.
func (r *GORMOrderRepository) SetPaymentReference(orderID, reference string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", orderID).Update("payment_reference", reference)
	if res.Error != nil {
		return fmt.Errorf("failed to store payment reference for order %s: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperrors.NotFoundError{Resource: "order", ID: orderID}
	}
	return nil
}

// PlaceOrder reserves stock for every line, writes the order with its items and
// records the staff notifications inside a single transaction.
func (r *GORMOrderRepository) PlaceOrder(cmd PlaceOrderCommand) (*models.Order, error) {
	order := cmd.Order
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Stock rows are always locked in product id order.
		reserved := make(map[string]*models.Product, len(cmd.Lines))
		for _, line := range linesByProduct(cmd.Lines) {
			product, err := reserveStock(tx, line)
			if err != nil {
				return err
			}
			reserved[product.ID] = product
		}

		order.Items = make([]models.OrderItem, 0, len(cmd.Lines))
		for _, line := range cmd.Lines {
			product := reserved[line.ProductID]
			order.Items = append(order.Items, models.OrderItem{
				ID:          uuid.New().String(),
				OrderID:     order.ID,
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				Price:       product.Price,
			})
		}

		if err := checkDeclaredTotal(order, cmd.DeclaredTotal); err != nil {
			return err
		}
		order.TotalPrice = cmd.DeclaredTotal

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return createNotifications(tx, attachOrder(cmd.Notifications, order.ID))
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// linesByProduct returns a copy of lines sorted by product id.
func linesByProduct(lines []OrderLine) []OrderLine {
	sorted := append([]OrderLine(nil), lines...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })
	return sorted
}

// reserveStock decrements the product's quantity only if enough is on hand.
// The conditional UPDATE takes the row lock, so concurrent placements against
// the same product are serialized by the database.
func reserveStock(tx *gorm.DB, line OrderLine) (*models.Product, error) {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND quantity >= ? AND availability <> ?", line.ProductID, line.Quantity, models.AvailabilityUnavailable).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", line.Quantity))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to reserve stock for product %s: %w", line.ProductID, res.Error)
	}

	var product models.Product
	if err := tx.First(&product, "id = ?", line.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "product", ID: line.ProductID}
		}
		return nil, fmt.Errorf("failed to load product %s: %w", line.ProductID, err)
	}

	if res.RowsAffected == 0 {
		if product.Availability == models.AvailabilityUnavailable {
			return nil, apperrors.NewValidationError("items", fmt.Sprintf("product %s is unavailable", product.Name))
		}
		return nil, insufficientStock(product, line.Quantity)
	}
	return &product, nil
}

// ApplyPayment performs the unpaid to paid transition at most once. The
// conditional UPDATE is the compare-and-set: concurrent callers for the same
// order see RowsAffected == 1 exactly once.
func (r *GORMOrderRepository) ApplyPayment(cmd ApplyPaymentCommand) (*models.Order, bool, error) {
	var (
		order   *models.Order
		applied bool
	)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"status":         models.OrderStatusPaid,
			"paid_at":        cmd.PaidAt,
		}
		if cmd.Reference != "" {
			updates["payment_reference"] = cmd.Reference
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", cmd.OrderID, models.PaymentStatusUnpaid).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to mark order %s paid: %w", cmd.OrderID, res.Error)
		}

		var err error
		order, err = loadOrder(tx, "id = ?", cmd.OrderID)
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		if cmd.Notify == nil {
			return nil
		}
		return createNotifications(tx, []models.Notification{cmd.Notify(*order)})
	})
	if err != nil {
		return nil, false, err
	}
	return order, applied, nil
}

// AssignDelivery points a delivery person at the order and marks it sent.
func (r *GORMOrderRepository) AssignDelivery(cmd AssignDeliveryCommand) (*models.Order, error) {
	var order *models.Order
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadOrder(tx, "id = ?", cmd.OrderID); err != nil {
			return err
		}
		person, err := resolveDeliveryPerson(tx, cmd)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", cmd.OrderID).Updates(map[string]interface{}{
			"delivery_person_id": person.ID,
			"delivery_status":    models.DeliveryStatusSent,
			"status":             models.OrderStatusOnDelivery,
		}).Error; err != nil {
			return fmt.Errorf("failed to assign delivery for order %s: %w", cmd.OrderID, err)
		}
		if err := tx.Model(&models.DeliveryPerson{}).Where("id = ?", person.ID).Update("order_id", cmd.OrderID).Error; err != nil {
			return fmt.Errorf("failed to point delivery person %s at order %s: %w", person.ID, cmd.OrderID, err)
		}
		person.OrderID = &cmd.OrderID

		order, err = loadOrder(tx, "id = ?", cmd.OrderID)
		if err != nil {
			return err
		}
		if cmd.Notify == nil {
			return nil
		}
		return createNotifications(tx, []models.Notification{cmd.Notify(*order, *person)})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func resolveDeliveryPerson(tx *gorm.DB, cmd AssignDeliveryCommand) (*models.DeliveryPerson, error) {
	var person models.DeliveryPerson
	if cmd.DeliveryPersonID != "" {
		if err := tx.First(&person, "id = ?", cmd.DeliveryPersonID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &apperrors.NotFoundError{Resource: "delivery person", ID: cmd.DeliveryPersonID}
			}
			return nil, fmt.Errorf("failed to load delivery person %s: %w", cmd.DeliveryPersonID, err)
		}
		return &person, nil
	}

	err := tx.First(&person, "phone = ?", cmd.Phone).Error
	if err == nil {
		return &person, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up delivery person by phone: %w", err)
	}
	person = models.DeliveryPerson{ID: uuid.New().String(), Name: cmd.Name, Phone: cmd.Phone}
	if err := tx.Create(&person).Error; err != nil {
		return nil, fmt.Errorf("failed to create delivery person: %w", err)
	}
	return &person, nil
}

// UpdateStatus sets the order and/or delivery status without transition checks.
func (r *GORMOrderRepository) UpdateStatus(cmd UpdateStatusCommand) (*models.Order, error) {
	var order *models.Order
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadOrder(tx, "id = ?", cmd.OrderID); err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if cmd.Status != nil {
			updates["status"] = *cmd.Status
		}
		if cmd.DeliveryStatus != nil {
			updates["delivery_status"] = *cmd.DeliveryStatus
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Order{}).Where("id = ?", cmd.OrderID).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update status for order %s: %w", cmd.OrderID, err)
			}
		}

		var err error
		order, err = loadOrder(tx, "id = ?", cmd.OrderID)
		if err != nil {
			return err
		}
		if cmd.Notify == nil {
			return nil
		}
		return createNotifications(tx, []models.Notification{cmd.Notify(*order)})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func loadOrder(db *gorm.DB, query string, arg string) (*models.Order, error) {
	var order models.Order
	if err := db.Preload("Items").First(&order, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Resource: "order", ID: arg}
		}
		return nil, fmt.Errorf("failed to load order %s: %w", arg, err)
	}
	return &order, nil
}
