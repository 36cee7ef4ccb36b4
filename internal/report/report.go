// Package report computes reconciliation figures from already loaded rows.
// Nothing here touches storage and nothing is cached.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"mrchooks/backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// ComputeTotals derives the shared figures. Deliveries and losses are
// reported on their own lines and are not part of net profit.
func ComputeTotals(in domain.ReportInput) domain.Totals {
	t := domain.Totals{
		Transactions:    len(in.Sales),
		GrossSales:      decimal.Zero,
		Discounts:       decimal.Zero,
		Expenses:        decimal.Zero,
		DeliveriesTotal: decimal.Zero,
		LossesTotal:     decimal.Zero,
	}
	for _, sale := range in.Sales {
		for _, item := range sale.Items {
			t.GrossSales = t.GrossSales.Add(domain.LineTotal(item.Quantity, item.Price))
		}
		for _, d := range sale.Discounts {
			t.Discounts = t.Discounts.Add(d.Amount)
		}
	}
	for _, e := range in.Expenses {
		t.Expenses = t.Expenses.Add(e.Amount)
	}
	for _, d := range in.Deliveries {
		t.DeliveriesTotal = t.DeliveriesTotal.Add(d.Amount)
	}
	for _, l := range in.Losses {
		t.LossesTotal = t.LossesTotal.Add(l.Cost)
	}
	t.NetSales = t.GrossSales.Sub(t.Discounts)
	t.NetProfit = t.NetSales.Sub(t.Expenses)
	return t
}

// Daily builds the reconciliation for one business day. date is the
// already formatted local day.
func Daily(date string, in domain.ReportInput) domain.DailyReconciliation {
	r := domain.DailyReconciliation{
		Date:           date,
		Totals:         ComputeTotals(in),
		BeginningValue: decimal.Zero,
		EndingValue:    decimal.Zero,
		ExpenseByType:  expensesByCategory(in.Expenses),
		ByPayment:      byPayment(in.Sales),
	}

	costs := make(map[string]decimal.Decimal, len(in.Products))
	for _, p := range in.Products {
		costs[p.ID] = p.Cost
	}
	for _, rec := range in.Inventory {
		cost, ok := costs[rec.ProductID]
		if !ok {
			continue
		}
		r.BeginningValue = r.BeginningValue.Add(cost.Mul(decimal.NewFromInt(int64(rec.Beginning))))
		r.EndingValue = r.EndingValue.Add(cost.Mul(decimal.NewFromInt(int64(rec.Stock))))
	}
	return r
}

// Summary builds the period report with profitability and the per-product
// breakdown.
func Summary(from string, to string, in domain.ReportInput) domain.PeriodSummary {
	s := domain.PeriodSummary{
		From:          from,
		To:            to,
		Totals:        ComputeTotals(in),
		CostOfGoods:   decimal.Zero,
		MarginPercent: decimal.Zero,
		AverageSale:   decimal.Zero,
		ExpenseByType: expensesByCategory(in.Expenses),
	}

	s.Products = productPerformance(in.Sales)
	for _, p := range s.Products {
		s.CostOfGoods = s.CostOfGoods.Add(p.Cost)
	}
	s.GrossProfit = s.Totals.NetSales.Sub(s.CostOfGoods)
	if s.Totals.NetSales.IsPositive() {
		s.MarginPercent = s.GrossProfit.Div(s.Totals.NetSales).Mul(hundred).Round(2)
	}
	if s.Totals.Transactions > 0 {
		s.AverageSale = s.Totals.NetSales.Div(decimal.NewFromInt(int64(s.Totals.Transactions))).Round(2)
	}
	if len(s.Products) > 0 {
		s.BestProduct = s.Products[0].ProductName
	}
	return s
}

func expensesByCategory(expenses []domain.Expense) []domain.CategoryTotal {
	index := make(map[string]int)
	out := make([]domain.CategoryTotal, 0, 8)
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, domain.CategoryTotal{Category: e.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
		out[i].Count++
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Category < out[b].Category })
	return out
}

func byPayment(sales []domain.Sale) []domain.PaymentTotal {
	index := make(map[string]int)
	out := make([]domain.PaymentTotal, 0, 2)
	for _, sale := range sales {
		i, ok := index[sale.PaymentMethod]
		if !ok {
			i = len(out)
			index[sale.PaymentMethod] = i
			out = append(out, domain.PaymentTotal{PaymentMethod: sale.PaymentMethod, Total: decimal.Zero})
		}
		out[i].Transactions++
		out[i].Total = out[i].Total.Add(sale.Total)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].PaymentMethod < out[b].PaymentMethod })
	return out
}

// productPerformance groups sale lines by product, most units first.
func productPerformance(sales []domain.Sale) []domain.ProductPerformance {
	index := make(map[string]int)
	out := make([]domain.ProductPerformance, 0, 16)
	for _, sale := range sales {
		for _, item := range sale.Items {
			i, ok := index[item.ProductID]
			if !ok {
				i = len(out)
				index[item.ProductID] = i
				out = append(out, domain.ProductPerformance{
					ProductID:   item.ProductID,
					ProductName: item.ProductName,
					GrossSales:  decimal.Zero,
					Discounts:   decimal.Zero,
					Cost:        decimal.Zero,
				})
			}
			qty := decimal.NewFromInt(int64(item.Quantity))
			out[i].Units += item.Quantity
			out[i].GrossSales = out[i].GrossSales.Add(domain.LineTotal(item.Quantity, item.Price))
			out[i].Discounts = out[i].Discounts.Add(item.Discount)
			out[i].Cost = out[i].Cost.Add(item.Cost.Mul(qty))
		}
	}
	for i := range out {
		out[i].NetSales = out[i].GrossSales.Sub(out[i].Discounts)
		out[i].Profit = out[i].NetSales.Sub(out[i].Cost)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Units != out[b].Units {
			return out[a].Units > out[b].Units
		}
		return out[a].ProductName < out[b].ProductName
	})
	return out
}
