package report

import (
	"bytes"
	"encoding/csv"
	"html/template"
	"strconv"

	"github.com/shopspring/decimal"

	"mrchooks/backend/internal/domain"
)

// DailyCSV renders the reconciliation as section,key,value rows.
func DailyCSV(r domain.DailyReconciliation) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"section", "key", "value"},
		{"summary", "date", r.Date},
		{"summary", "transactions", strconv.Itoa(r.Totals.Transactions)},
		{"summary", "gross_sales", r.Totals.GrossSales.StringFixed(2)},
		{"summary", "discounts", r.Totals.Discounts.StringFixed(2)},
		{"summary", "net_sales", r.Totals.NetSales.StringFixed(2)},
		{"summary", "expenses", r.Totals.Expenses.StringFixed(2)},
		{"summary", "net_profit", r.Totals.NetProfit.StringFixed(2)},
		{"summary", "deliveries_total", r.Totals.DeliveriesTotal.StringFixed(2)},
		{"summary", "losses_total", r.Totals.LossesTotal.StringFixed(2)},
		{"inventory", "beginning_value", r.BeginningValue.StringFixed(2)},
		{"inventory", "ending_value", r.EndingValue.StringFixed(2)},
	}
	for _, p := range r.ByPayment {
		rows = append(rows,
			[]string{"payment", p.PaymentMethod + "_transactions", strconv.Itoa(p.Transactions)},
			[]string{"payment", p.PaymentMethod + "_total", p.Total.StringFixed(2)},
		)
	}
	for _, e := range r.ExpenseByType {
		rows = append(rows, []string{"expense", e.Category, e.Amount.StringFixed(2)})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var dailyHTMLTmpl = template.Must(template.New("daily-reconciliation").Funcs(template.FuncMap{
	"peso": func(v decimal.Decimal) string { return "₱" + v.StringFixed(2) },
}).Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Daily Reconciliation {{.Date}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    td.num { text-align: right; }
  </style>
</head>
<body>
  <h2>Mr. Chooks Daily Reconciliation {{.Date}}</h2>
  <p>Transactions: {{.Totals.Transactions}}</p>
  <table>
    <tbody>
      <tr><td>Gross sales</td><td class="num">{{peso .Totals.GrossSales}}</td></tr>
      <tr><td>Discounts</td><td class="num">{{peso .Totals.Discounts}}</td></tr>
      <tr><td>Net sales</td><td class="num">{{peso .Totals.NetSales}}</td></tr>
      <tr><td>Expenses</td><td class="num">{{peso .Totals.Expenses}}</td></tr>
      <tr><td>Net profit</td><td class="num">{{peso .Totals.NetProfit}}</td></tr>
      <tr><td>Deliveries</td><td class="num">{{peso .Totals.DeliveriesTotal}}</td></tr>
      <tr><td>Losses</td><td class="num">{{peso .Totals.LossesTotal}}</td></tr>
      <tr><td>Inventory value (beginning / ending)</td><td class="num">{{peso .BeginningValue}} / {{peso .EndingValue}}</td></tr>
    </tbody>
  </table>

  <h3>By Payment</h3>
  <table>
    <thead><tr><th>Payment</th><th>Transactions</th><th>Total</th></tr></thead>
    <tbody>{{range .ByPayment}}<tr><td>{{.PaymentMethod}}</td><td class="num">{{.Transactions}}</td><td class="num">{{peso .Total}}</td></tr>{{end}}</tbody>
  </table>

  <h3>Expenses</h3>
  <table>
    <thead><tr><th>Category</th><th>Entries</th><th>Amount</th></tr></thead>
    <tbody>{{range .ExpenseByType}}<tr><td>{{.Category}}</td><td class="num">{{.Count}}</td><td class="num">{{peso .Amount}}</td></tr>{{end}}</tbody>
  </table>
</body>
</html>
`))

// DailyHTML renders a printable page; field values are escaped by
// html/template.
func DailyHTML(r domain.DailyReconciliation) ([]byte, error) {
	var buf bytes.Buffer
	if err := dailyHTMLTmpl.Execute(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
