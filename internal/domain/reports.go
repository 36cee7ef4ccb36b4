package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportInput is the raw, already persisted data a report is computed from.
type ReportInput struct {
	From       time.Time
	To         time.Time
	Sales      []Sale
	Expenses   []Expense
	Deliveries []Delivery
	Losses     []Loss
	Inventory  []InventoryRecord
	Products   []Product
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

type PaymentTotal struct {
	PaymentMethod string          `json:"payment_method"`
	Transactions  int             `json:"transactions"`
	Total         decimal.Decimal `json:"total"`
}

type ProductPerformance struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Units       int             `json:"units"`
	GrossSales  decimal.Decimal `json:"gross_sales"`
	Discounts   decimal.Decimal `json:"discounts"`
	NetSales    decimal.Decimal `json:"net_sales"`
	Cost        decimal.Decimal `json:"cost"`
	Profit      decimal.Decimal `json:"profit"`
}

// Totals holds the reconciliation figures shared by every report.
type Totals struct {
	Transactions    int             `json:"transactions"`
	GrossSales      decimal.Decimal `json:"gross_sales"`
	Discounts       decimal.Decimal `json:"discounts"`
	NetSales        decimal.Decimal `json:"net_sales"`
	Expenses        decimal.Decimal `json:"expenses"`
	NetProfit       decimal.Decimal `json:"net_profit"`
	DeliveriesTotal decimal.Decimal `json:"deliveries_total"`
	LossesTotal     decimal.Decimal `json:"losses_total"`
}

type DailyReconciliation struct {
	Date           string          `json:"date"`
	Totals         Totals          `json:"totals"`
	BeginningValue decimal.Decimal `json:"beginning_value"`
	EndingValue    decimal.Decimal `json:"ending_value"`
	ExpenseByType  []CategoryTotal `json:"expenses_by_category"`
	ByPayment      []PaymentTotal  `json:"by_payment"`
}

type PeriodSummary struct {
	From          string               `json:"from"`
	To            string               `json:"to"`
	Totals        Totals               `json:"totals"`
	CostOfGoods   decimal.Decimal      `json:"cost_of_goods"`
	GrossProfit   decimal.Decimal      `json:"gross_profit"`
	MarginPercent decimal.Decimal      `json:"margin_percent"`
	AverageSale   decimal.Decimal      `json:"average_sale"`
	BestProduct   string               `json:"best_product"`
	Products      []ProductPerformance `json:"products"`
	ExpenseByType []CategoryTotal      `json:"expenses_by_category"`
}
