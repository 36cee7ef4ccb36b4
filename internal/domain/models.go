package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentCash  = "Cash"
	PaymentGCash = "GCash"
)

const (
	DiscountWholeChicken = "whole_chicken"
	DiscountPWD          = "pwd"
	DiscountSenior       = "senior"
)

const (
	POStatusPending   = "Pending"
	POStatusOrdered   = "Ordered"
	POStatusReceived  = "Received"
	POStatusCancelled = "Cancelled"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Cost        decimal.Decimal `json:"cost" db:"cost"`
	Description string          `json:"description" db:"description"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

type ProductCreateRequest struct {
	Name         string           `json:"name" validate:"required,max=120"`
	Price        *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Cost         *decimal.Decimal `json:"cost" validate:"required,gte=0"`
	Description  string           `json:"description" validate:"max=500"`
	IsActive     *bool            `json:"is_active"`
	InitialStock int              `json:"initial_stock" validate:"gte=0"`
}

type ProductUpdateRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gte=0"`
	Cost        *decimal.Decimal `json:"cost,omitempty" validate:"omitempty,gte=0"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

// InventoryRecord is the single stock row kept per product.
type InventoryRecord struct {
	ID          string    `json:"id" db:"id"`
	ProductID   string    `json:"product_id" db:"product_id"`
	ProductName string    `json:"product_name,omitempty" db:"product_name"`
	Beginning   int       `json:"beginning" db:"beginning"`
	Stock       int       `json:"stock" db:"stock"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type InventoryAdjustRequest struct {
	Beginning *int `json:"beginning" validate:"required,gte=0"`
	Stock     *int `json:"stock" validate:"required,gte=0"`
}

type Sale struct {
	ID             string          `json:"id" db:"id"`
	EmployeeID     string          `json:"employee_id,omitempty" db:"employee_id"`
	PaymentMethod  string          `json:"payment_method" db:"payment_method"`
	GCashReference string          `json:"gcash_reference,omitempty" db:"gcash_reference"`
	Date           time.Time       `json:"date" db:"date"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	DiscountTotal  decimal.Decimal `json:"discount_total" db:"discount_total"`
	Total          decimal.Decimal `json:"total" db:"total"`
	Items          []SaleItem      `json:"items"`
	Discounts      []Discount      `json:"discounts"`
}

type SaleItem struct {
	ID          string          `json:"id" db:"id"`
	SaleID      string          `json:"sale_id" db:"sale_id"`
	ProductID   string          `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Cost        decimal.Decimal `json:"cost" db:"cost"`
	Discount    decimal.Decimal `json:"discount" db:"discount"`
	Total       decimal.Decimal `json:"total" db:"total"`
}

type Discount struct {
	ID           string          `json:"id" db:"id"`
	SaleID       string          `json:"sale_id" db:"sale_id"`
	Type         string          `json:"type" db:"type"`
	IDNumber     string          `json:"id_number,omitempty" db:"id_number"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	Date         time.Time       `json:"date" db:"date"`
	EmployeeName string          `json:"employee_name,omitempty" db:"employee_name"`
}

type SaleItemInput struct {
	ProductID   string          `json:"product_id" validate:"required"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Cost        decimal.Decimal `json:"cost" validate:"gte=0"`
}

type DiscountInput struct {
	Type         string          `json:"type" validate:"required"`
	IDNumber     string          `json:"id_number"`
	Amount       decimal.Decimal `json:"amount" validate:"gte=0"`
	EmployeeName string          `json:"employee_name"`
}

type SaleRequest struct {
	EmployeeID     string          `json:"employee_id"`
	PaymentMethod  string          `json:"payment_method" validate:"required"`
	GCashReference string          `json:"gcash_reference"`
	Items          []SaleItemInput `json:"items" validate:"required,min=1,dive"`
	Discount       *DiscountInput  `json:"discount"`
	Date           *time.Time      `json:"date"`
}

// SaleReceipt is what the recorder hands back after a committed sale.
type SaleReceipt struct {
	SaleID              string          `json:"sale_id"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	DiscountTotal       decimal.Decimal `json:"discount_total"`
	Total               decimal.Decimal `json:"total"`
	UntrackedProductIDs []string        `json:"untracked_product_ids,omitempty"`
}

type SaleFilter struct {
	From *time.Time
	To   *time.Time
}

type DiscountUsage struct {
	IDNumber string `json:"id_number"`
	Date     string `json:"date"`
	Count    int    `json:"count"`
}

type Expense struct {
	ID          string          `json:"id" db:"id"`
	Date        time.Time       `json:"date" db:"date"`
	Category    string          `json:"category" db:"category"`
	Description string          `json:"description" db:"description"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Remarks     string          `json:"remarks" db:"remarks"`
}

type ExpenseCreateRequest struct {
	Date        *time.Time       `json:"date"`
	Category    string           `json:"category" validate:"required"`
	Description string           `json:"description" validate:"required"`
	Amount      *decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Remarks     string           `json:"remarks"`
}

type Delivery struct {
	ID          string          `json:"id" db:"id"`
	Date        time.Time       `json:"date" db:"date"`
	Description string          `json:"description" db:"description"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Driver      string          `json:"driver" db:"driver"`
	Remarks     string          `json:"remarks" db:"remarks"`
}

type DeliveryCreateRequest struct {
	Date        *time.Time       `json:"date"`
	Description string           `json:"description" validate:"required"`
	Amount      *decimal.Decimal `json:"amount" validate:"required,gte=0"`
	Driver      string           `json:"driver" validate:"required"`
	Remarks     string           `json:"remarks"`
}

type Loss struct {
	ID          string          `json:"id" db:"id"`
	ProductID   string          `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Reason      string          `json:"reason" db:"reason"`
	Remarks     string          `json:"remarks" db:"remarks"`
	Cost        decimal.Decimal `json:"cost" db:"cost"`
	Date        time.Time       `json:"date" db:"date"`
}

type LossRequest struct {
	ProductID   string           `json:"product_id" validate:"required"`
	ProductName string           `json:"product_name" validate:"required"`
	Quantity    int              `json:"quantity" validate:"gt=0"`
	Reason      string           `json:"reason" validate:"required"`
	Remarks     string           `json:"remarks"`
	Cost        *decimal.Decimal `json:"cost" validate:"required,gte=0"`
	Date        *time.Time       `json:"date"`
}

type UnsoldProduct struct {
	ID          string          `json:"id" db:"id"`
	ProductID   string          `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Reason      string          `json:"reason" db:"reason"`
	Date        time.Time       `json:"date" db:"date"`
	RecordedBy  string          `json:"recorded_by" db:"recorded_by"`
}

type UnsoldCreateRequest struct {
	ProductID   string           `json:"product_id" validate:"required"`
	ProductName string           `json:"product_name" validate:"required"`
	Quantity    int              `json:"quantity" validate:"gt=0"`
	Price       *decimal.Decimal `json:"price" validate:"required,gt=0"`
	Reason      string           `json:"reason" validate:"required"`
	RecordedBy  string           `json:"recorded_by"`
	Date        *time.Time       `json:"date"`
}

type PurchaseOrder struct {
	ID       string              `json:"id" db:"id"`
	PONumber string              `json:"po_number" db:"po_number"`
	Supplier string              `json:"supplier" db:"supplier"`
	Status   string              `json:"status" db:"status"`
	Date     time.Time           `json:"date" db:"date"`
	Total    decimal.Decimal     `json:"total" db:"total"`
	Items    []PurchaseOrderItem `json:"items,omitempty"`
}

type PurchaseOrderItem struct {
	ID          string          `json:"id" db:"id"`
	POID        string          `json:"po_id" db:"po_id"`
	ProductID   string          `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	Total       decimal.Decimal `json:"total" db:"total"`
}

type PurchaseOrderItemInput struct {
	ProductID   string           `json:"product_id" validate:"required"`
	ProductName string           `json:"product_name" validate:"required"`
	Quantity    int              `json:"quantity" validate:"gt=0"`
	UnitCost    decimal.Decimal  `json:"unit_cost" validate:"gte=0"`
	Total       *decimal.Decimal `json:"total" validate:"omitempty,gte=0"`
}

type PurchaseOrderCreateRequest struct {
	PONumber string                   `json:"po_number" validate:"required"`
	Supplier string                   `json:"supplier" validate:"required"`
	Status   string                   `json:"status"`
	Date     *time.Time               `json:"date"`
	Total    *decimal.Decimal         `json:"total" validate:"omitempty,gte=0"`
	Items    []PurchaseOrderItemInput `json:"items" validate:"dive"`
}

type PurchaseOrderUpdateRequest struct {
	PONumber *string                  `json:"po_number,omitempty" validate:"omitempty,min=1"`
	Supplier *string                  `json:"supplier,omitempty" validate:"omitempty,min=1"`
	Status   *string                  `json:"status,omitempty"`
	Date     *time.Time               `json:"date,omitempty"`
	Total    *decimal.Decimal         `json:"total,omitempty" validate:"omitempty,gte=0"`
	Items    []PurchaseOrderItemInput `json:"items,omitempty" validate:"omitempty,dive"`
}

type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     any       `json:"value" db:"-"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type SettingUpdateRequest struct {
	Value any `json:"value"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type EmployeeCreateRequest struct {
	Username string `json:"username" validate:"required,min=4,max=40"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin employee"`
}

type EmployeeUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string    `db:"username"`
	Password  string    `db:"password"`
	Role      string    `db:"role"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

type HealthStatus struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Tables    int    `json:"tables"`
	Timestamp string `json:"timestamp"`
}
