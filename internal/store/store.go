package store

import (
	"context"
	"errors"
	"time"

	"mrchooks/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("already exists")
)

// StorageError reports a failure of the underlying database, including a
// transaction that had to be rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Wrap turns a driver error into a StorageError. Nil, ErrNotFound,
// ErrConflict and ErrInvalidInput pass through untouched.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidInput) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Repository is the persistence contract. RecordSale and RecordLoss are
// atomic: either every row and stock decrement lands or none does.
type Repository interface {
	Ping(ctx context.Context) error
	CountTables(ctx context.Context) (int, error)

	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product, initialStock int) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListInventory(ctx context.Context) ([]domain.InventoryRecord, error)
	UpsertInventory(ctx context.Context, productID string, beginning int, stock int, at time.Time) (*domain.InventoryRecord, error)

	RecordSale(ctx context.Context, sale domain.Sale, discount *domain.Discount) (untracked []string, err error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error)
	CountDiscountUses(ctx context.Context, idNumber string, from time.Time, to time.Time) (int, error)

	RecordLoss(ctx context.Context, loss domain.Loss) (untracked bool, err error)
	ListLosses(ctx context.Context, from *time.Time, to *time.Time) ([]domain.Loss, error)

	CreateExpense(ctx context.Context, expense domain.Expense) error
	ListExpenses(ctx context.Context, from *time.Time, to *time.Time) ([]domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	CreateDelivery(ctx context.Context, delivery domain.Delivery) error
	ListDeliveries(ctx context.Context, from *time.Time, to *time.Time) ([]domain.Delivery, error)
	DeleteDelivery(ctx context.Context, id string) error

	CreateUnsold(ctx context.Context, unsold domain.UnsoldProduct) error
	ListUnsold(ctx context.Context) ([]domain.UnsoldProduct, error)

	CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error
	GetPurchaseOrder(ctx context.Context, id string) (*domain.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context) ([]domain.PurchaseOrder, error)
	UpdatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder, replaceItems bool) error
	DeletePurchaseOrder(ctx context.Context, id string) error

	ListSettings(ctx context.Context) (map[string]string, error)
	GetSetting(ctx context.Context, key string) (value string, updatedAt time.Time, err error)
	PutSetting(ctx context.Context, key string, value string, at time.Time) error

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
