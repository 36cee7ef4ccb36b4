package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/metrics"
	"mrchooks/backend/internal/store"
	"mrchooks/backend/internal/xid"
)

// SettingMaxDiscount overrides the configured discount cap when present.
const SettingMaxDiscount = "max_discount"

var discountTypes = map[string]struct{}{
	domain.DiscountWholeChicken: {},
	domain.DiscountPWD:          {},
	domain.DiscountSenior:       {},
}

// RecordSale validates the request, prices it and persists header, lines,
// stock decrements and the discount row in one transaction.
func (s *Service) RecordSale(ctx context.Context, req domain.SaleRequest) (domain.SaleReceipt, error) {
	sale, discount, err := s.buildSale(ctx, req)
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			metrics.SaleFailures.WithLabelValues("validation").Inc()
		}
		return domain.SaleReceipt{}, err
	}

	untracked, err := s.repo.RecordSale(ctx, sale, discount)
	if err != nil {
		metrics.SaleFailures.WithLabelValues("storage").Inc()
		s.log(ctx).Error().Err(err).Str("sale_id", sale.ID).Msg("sale rolled back")
		return domain.SaleReceipt{}, err
	}

	metrics.SalesRecorded.WithLabelValues(sale.PaymentMethod).Inc()
	if len(untracked) > 0 {
		metrics.UntrackedStock.WithLabelValues("sale").Add(float64(len(untracked)))
		s.log(ctx).Warn().
			Str("sale_id", sale.ID).
			Strs("product_ids", untracked).
			Msg("sold products have no inventory row, stock not decremented")
	}
	s.invalidateCatalog(ctx)
	s.logAudit(ctx, "sale_record", "sale", sale.ID, "payment="+sale.PaymentMethod+",total="+sale.Total.StringFixed(2))

	return domain.SaleReceipt{
		SaleID:              sale.ID,
		Subtotal:            sale.Subtotal,
		DiscountTotal:       sale.DiscountTotal,
		Total:               sale.Total,
		UntrackedProductIDs: untracked,
	}, nil
}

func (s *Service) buildSale(ctx context.Context, req domain.SaleRequest) (domain.Sale, *domain.Discount, error) {
	if err := validate(req); err != nil {
		return domain.Sale{}, nil, err
	}

	method, ok := canonicalPaymentMethod(req.PaymentMethod)
	if !ok {
		return domain.Sale{}, nil, invalid("payment_method must be Cash or GCash")
	}
	reference := strings.TrimSpace(req.GCashReference)
	if method == domain.PaymentGCash && reference == "" {
		return domain.Sale{}, nil, invalid("gcash_reference is required for GCash payments")
	}

	for i, in := range req.Items {
		if !domain.IsCentavos(in.Price) || !domain.IsCentavos(in.Cost) {
			return domain.Sale{}, nil, invalid("items[%d]: price and cost must be whole centavos", i)
		}
	}

	names, err := s.missingNames(ctx, req.Items)
	if err != nil {
		return domain.Sale{}, nil, err
	}

	sale := domain.Sale{
		ID:             xid.New("sale"),
		EmployeeID:     s.saleEmployee(ctx, req.EmployeeID),
		PaymentMethod:  method,
		GCashReference: reference,
		Date:           s.dateOr(req.Date),
		Subtotal:       decimal.Zero,
		Items:          make([]domain.SaleItem, 0, len(req.Items)),
	}
	lineTotals := make([]decimal.Decimal, 0, len(req.Items))
	for _, in := range req.Items {
		name := strings.TrimSpace(in.ProductName)
		if name == "" {
			name = names[in.ProductID]
		}
		lineTotal := domain.LineTotal(in.Quantity, in.Price)
		lineTotals = append(lineTotals, lineTotal)
		sale.Subtotal = sale.Subtotal.Add(lineTotal)
		sale.Items = append(sale.Items, domain.SaleItem{
			ProductID:   in.ProductID,
			ProductName: name,
			Quantity:    in.Quantity,
			Price:       in.Price,
			Cost:        in.Cost,
			Total:       lineTotal,
		})
	}

	discount, err := s.buildDiscount(ctx, req.Discount, sale.Subtotal)
	if err != nil {
		return domain.Sale{}, nil, err
	}
	sale.DiscountTotal = decimal.Zero
	if discount != nil {
		sale.DiscountTotal = discount.Amount
	}
	sale.Total = decimal.Max(decimal.Zero, sale.Subtotal.Sub(sale.DiscountTotal))

	for i, share := range allocateDiscount(lineTotals, sale.Subtotal, sale.DiscountTotal) {
		sale.Items[i].Discount = share
	}
	return sale, discount, nil
}

func (s *Service) buildDiscount(ctx context.Context, in *domain.DiscountInput, subtotal decimal.Decimal) (*domain.Discount, error) {
	if in == nil {
		return nil, nil
	}
	kind := strings.ToLower(strings.TrimSpace(in.Type))
	if _, ok := discountTypes[kind]; !ok {
		return nil, invalid("discount type must be whole_chicken, pwd or senior")
	}
	idNumber := strings.TrimSpace(in.IDNumber)
	if (kind == domain.DiscountPWD || kind == domain.DiscountSenior) && idNumber == "" {
		return nil, invalid("id_number is required for %s discounts", kind)
	}
	if !domain.IsCentavos(in.Amount) {
		return nil, invalid("discount amount must be whole centavos")
	}
	amount := in.Amount
	if limit := s.maxDiscountFor(ctx); amount.GreaterThan(limit) {
		return nil, invalid("discount amount exceeds the maximum of %s", limit.StringFixed(2))
	}
	if amount.GreaterThan(subtotal) {
		return nil, invalid("discount amount exceeds the subtotal")
	}

	return &domain.Discount{
		Type:         kind,
		IDNumber:     idNumber,
		Amount:       amount,
		EmployeeName: strings.TrimSpace(in.EmployeeName),
	}, nil
}

func (s *Service) maxDiscountFor(ctx context.Context) decimal.Decimal {
	raw, _, err := s.repo.GetSetting(ctx, SettingMaxDiscount)
	if err != nil {
		if !isNotFound(err) {
			s.log(ctx).Warn().Err(err).Msg("max discount setting unavailable, using configured value")
		}
		return s.maxDiscount
	}
	limit, err := decimal.NewFromString(strings.Trim(strings.TrimSpace(raw), `"`))
	if err != nil || limit.IsNegative() {
		return s.maxDiscount
	}
	return limit
}

func (s *Service) missingNames(ctx context.Context, items []domain.SaleItemInput) (map[string]string, error) {
	ids := make([]string, 0)
	for _, item := range items {
		if strings.TrimSpace(item.ProductName) == "" {
			ids = append(ids, item.ProductID)
		}
	}
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, p := range products {
		names[id] = p.Name
	}
	return names, nil
}

func canonicalPaymentMethod(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cash":
		return domain.PaymentCash, true
	case "gcash":
		return domain.PaymentGCash, true
	default:
		return "", false
	}
}

// saleEmployee attributes the sale. Employees always record under their own
// account; an admin may name another employee.
func (s *Service) saleEmployee(ctx context.Context, requested string) string {
	requested = strings.TrimSpace(requested)
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return requested
	}
	if requested == "" || actor.Role != domain.RoleAdmin {
		return actor.Username
	}
	return requested
}

var centavo = decimal.New(1, -2)

// allocateDiscount splits discount across lines in proportion to their
// totals using largest remainders: every share is floored to the centavo
// and the leftover centavos go to the lines with the biggest fractional
// parts. Shares stay within [0, line total] and sum to discount when
// discount <= subtotal. A zero subtotal yields zero shares.
func allocateDiscount(lineTotals []decimal.Decimal, subtotal decimal.Decimal, discount decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(lineTotals))
	for i := range shares {
		shares[i] = decimal.Zero
	}
	if !subtotal.IsPositive() || !discount.IsPositive() {
		return shares
	}

	hundred := decimal.NewFromInt(100)
	fractions := make([]decimal.Decimal, len(lineTotals))
	order := make([]int, 0, len(lineTotals))
	leftover := discount.Mul(hundred).Floor()
	for i, lt := range lineTotals {
		if !lt.IsPositive() {
			continue
		}
		exact := discount.Mul(lt).Div(subtotal).Mul(hundred)
		cents := decimal.Min(exact.Floor(), lt.Mul(hundred).Floor())
		shares[i] = cents.Mul(centavo)
		fractions[i] = exact.Sub(cents)
		leftover = leftover.Sub(cents)
		order = append(order, i)
	}

	sort.SliceStable(order, func(a, b int) bool {
		return fractions[order[a]].GreaterThan(fractions[order[b]])
	})
	for leftover.IsPositive() {
		given := false
		for _, i := range order {
			if !leftover.IsPositive() {
				break
			}
			next := shares[i].Add(centavo)
			if next.GreaterThan(lineTotals[i]) {
				continue
			}
			shares[i] = next
			leftover = leftover.Sub(decimal.NewFromInt(1))
			given = true
		}
		if !given {
			break
		}
	}
	return shares
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, startDate string, endDate string) ([]domain.Sale, error) {
	from, to, err := s.parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSales(ctx, domain.SaleFilter{From: from, To: to})
}

// DiscountUsage counts discount rows carrying idNumber on one local day.
func (s *Service) DiscountUsage(ctx context.Context, idNumber string, date string) (domain.DiscountUsage, error) {
	idNumber = strings.TrimSpace(idNumber)
	if idNumber == "" {
		return domain.DiscountUsage{}, invalid("id_number is required")
	}
	day, err := s.parseDay(date)
	if err != nil {
		return domain.DiscountUsage{}, err
	}
	count, err := s.repo.CountDiscountUses(ctx, idNumber, day, day.AddDate(0, 0, 1))
	if err != nil {
		return domain.DiscountUsage{}, err
	}
	return domain.DiscountUsage{
		IDNumber: idNumber,
		Date:     day.Format(time.DateOnly),
		Count:    count,
	}, nil
}
