package report

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"mrchooks/backend/internal/domain"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func seededInput() domain.ReportInput {
	return domain.ReportInput{
		Sales: []domain.Sale{
			{
				ID:            "s1",
				PaymentMethod: domain.PaymentCash,
				Total:         d("100"),
				Items: []domain.SaleItem{
					{ProductID: "p1", ProductName: "Liempo", Quantity: 2, Price: d("50"), Cost: d("30")},
				},
			},
			{
				ID:            "s2",
				PaymentMethod: domain.PaymentGCash,
				Total:         d("330"),
				Items: []domain.SaleItem{
					{ProductID: "p2", ProductName: "Whole Chicken", Quantity: 1, Price: d("350"), Cost: d("200"), Discount: d("20")},
				},
				Discounts: []domain.Discount{{Type: domain.DiscountSenior, Amount: d("20")}},
			},
		},
		Expenses: []domain.Expense{
			{Category: "utilities", Amount: d("50")},
			{Category: "supplies", Amount: d("25.50")},
			{Category: "utilities", Amount: d("10")},
		},
		Deliveries: []domain.Delivery{{Amount: d("40")}},
		Losses:     []domain.Loss{{Quantity: 1, Cost: d("30")}},
		Products: []domain.Product{
			{ID: "p1", Cost: d("30")},
			{ID: "p2", Cost: d("200")},
		},
		Inventory: []domain.InventoryRecord{
			{ProductID: "p1", Beginning: 10, Stock: 8},
			{ProductID: "p2", Beginning: 5, Stock: 4},
			{ProductID: "gone", Beginning: 3, Stock: 3},
		},
	}
}

func TestComputeTotalsArithmetic(t *testing.T) {
	got := ComputeTotals(seededInput())

	if got.Transactions != 2 {
		t.Fatalf("expected 2 transactions, got %d", got.Transactions)
	}
	checks := map[string][2]decimal.Decimal{
		"gross":      {got.GrossSales, d("450")},
		"discounts":  {got.Discounts, d("20")},
		"net":        {got.NetSales, d("430")},
		"expenses":   {got.Expenses, d("85.50")},
		"profit":     {got.NetProfit, d("344.50")},
		"deliveries": {got.DeliveriesTotal, d("40")},
		"losses":     {got.LossesTotal, d("30")},
	}
	for name, pair := range checks {
		if !pair[0].Equal(pair[1]) {
			t.Fatalf("%s: got %s want %s", name, pair[0], pair[1])
		}
	}
}

func TestComputeTotalsEmpty(t *testing.T) {
	got := ComputeTotals(domain.ReportInput{})
	if got.Transactions != 0 || !got.NetProfit.IsZero() {
		t.Fatalf("expected zero totals, got %+v", got)
	}
}

func TestDailyBreakdowns(t *testing.T) {
	r := Daily("2025-03-01", seededInput())

	if len(r.ByPayment) != 2 || r.ByPayment[0].PaymentMethod != domain.PaymentCash || !r.ByPayment[1].Total.Equal(d("330")) {
		t.Fatalf("unexpected payment breakdown %+v", r.ByPayment)
	}
	if len(r.ExpenseByType) != 2 || r.ExpenseByType[1].Category != "utilities" || r.ExpenseByType[1].Count != 2 {
		t.Fatalf("unexpected expense breakdown %+v", r.ExpenseByType)
	}
	// 10×30 + 5×200, the orphan row has no product cost.
	if !r.BeginningValue.Equal(d("1300")) || !r.EndingValue.Equal(d("1040")) {
		t.Fatalf("unexpected inventory values %s / %s", r.BeginningValue, r.EndingValue)
	}
}

func TestSummaryProfitability(t *testing.T) {
	s := Summary("2025-03-01", "2025-03-07", seededInput())

	if !s.CostOfGoods.Equal(d("260")) {
		t.Fatalf("expected cost of goods 260, got %s", s.CostOfGoods)
	}
	if !s.GrossProfit.Equal(d("170")) {
		t.Fatalf("expected gross profit 170, got %s", s.GrossProfit)
	}
	if !s.MarginPercent.Equal(d("39.53")) {
		t.Fatalf("expected margin 39.53, got %s", s.MarginPercent)
	}
	if !s.AverageSale.Equal(d("215")) {
		t.Fatalf("expected average 215, got %s", s.AverageSale)
	}
	if s.BestProduct != "Liempo" {
		t.Fatalf("expected Liempo as best product, got %q", s.BestProduct)
	}
	if !s.Products[1].NetSales.Equal(d("330")) || !s.Products[1].Profit.Equal(d("130")) {
		t.Fatalf("unexpected product row %+v", s.Products[1])
	}
}

func TestSummaryWithoutSales(t *testing.T) {
	s := Summary("2025-03-01", "2025-03-01", domain.ReportInput{})
	if !s.MarginPercent.IsZero() || !s.AverageSale.IsZero() || s.BestProduct != "" {
		t.Fatalf("expected empty summary, got %+v", s)
	}
}

func TestDailyCSV(t *testing.T) {
	out, err := DailyCSV(Daily("2025-03-01", seededInput()))
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	body := string(out)
	for _, want := range []string{
		"section,key,value\n",
		"summary,net_profit,344.50\n",
		"payment,GCash_total,330.00\n",
		"expense,supplies,25.50\n",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in\n%s", want, body)
		}
	}
}

func TestDailyHTMLEscapes(t *testing.T) {
	in := seededInput()
	in.Expenses = append(in.Expenses, domain.Expense{Category: "<script>alert(1)</script>", Amount: d("1")})

	out, err := DailyHTML(Daily("2025-03-01", in))
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if strings.Contains(string(out), "<script>") {
		t.Fatalf("expected category to be escaped")
	}
	if !strings.Contains(string(out), "₱430.00") {
		t.Fatalf("expected net sales in output")
	}
}
