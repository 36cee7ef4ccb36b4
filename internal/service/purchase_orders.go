package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/xid"
)

var poStatuses = []string{
	domain.POStatusPending,
	domain.POStatusOrdered,
	domain.POStatusReceived,
	domain.POStatusCancelled,
}

func canonicalPOStatus(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.POStatusPending, true
	}
	for _, status := range poStatuses {
		if strings.EqualFold(raw, status) {
			return status, true
		}
	}
	return "", false
}

func poItems(inputs []domain.PurchaseOrderItemInput) ([]domain.PurchaseOrderItem, decimal.Decimal) {
	items := make([]domain.PurchaseOrderItem, 0, len(inputs))
	sum := decimal.Zero
	for _, in := range inputs {
		total := domain.LineTotal(in.Quantity, in.UnitCost)
		if in.Total != nil {
			total = *in.Total
		}
		total = domain.RoundMoney(total)
		items = append(items, domain.PurchaseOrderItem{
			ProductID:   in.ProductID,
			ProductName: strings.TrimSpace(in.ProductName),
			Quantity:    in.Quantity,
			UnitCost:    in.UnitCost,
			Total:       total,
		})
		sum = sum.Add(total)
	}
	return items, sum
}

func (s *Service) CreatePurchaseOrder(ctx context.Context, req domain.PurchaseOrderCreateRequest) (domain.PurchaseOrder, error) {
	req.PONumber = strings.TrimSpace(req.PONumber)
	req.Supplier = strings.TrimSpace(req.Supplier)
	if err := validate(req); err != nil {
		return domain.PurchaseOrder{}, err
	}
	status, ok := canonicalPOStatus(req.Status)
	if !ok {
		return domain.PurchaseOrder{}, invalid("status must be one of %s", strings.Join(poStatuses, ", "))
	}

	items, itemsTotal := poItems(req.Items)
	po := domain.PurchaseOrder{
		ID:       xid.New("po"),
		PONumber: req.PONumber,
		Supplier: req.Supplier,
		Status:   status,
		Date:     s.dateOr(req.Date),
		Total:    itemsTotal,
		Items:    items,
	}
	if req.Total != nil {
		po.Total = domain.RoundMoney(*req.Total)
	}

	if err := s.repo.CreatePurchaseOrder(ctx, po); err != nil {
		return domain.PurchaseOrder{}, err
	}
	s.logAudit(ctx, "purchase_order_create", "purchase_order", po.ID, "po_number="+po.PONumber)
	return s.GetPurchaseOrder(ctx, po.ID)
}

func (s *Service) GetPurchaseOrder(ctx context.Context, id string) (domain.PurchaseOrder, error) {
	po, err := s.repo.GetPurchaseOrder(ctx, id)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	return *po, nil
}

func (s *Service) ListPurchaseOrders(ctx context.Context) ([]domain.PurchaseOrder, error) {
	return s.repo.ListPurchaseOrders(ctx)
}

// UpdatePurchaseOrder applies the present fields. A non-nil Items slice
// replaces every item, and the total follows the new items unless given.
func (s *Service) UpdatePurchaseOrder(ctx context.Context, id string, req domain.PurchaseOrderUpdateRequest) (domain.PurchaseOrder, error) {
	if err := validate(req); err != nil {
		return domain.PurchaseOrder{}, err
	}
	current, err := s.repo.GetPurchaseOrder(ctx, id)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	next := *current
	if req.PONumber != nil {
		next.PONumber = strings.TrimSpace(*req.PONumber)
	}
	if req.Supplier != nil {
		next.Supplier = strings.TrimSpace(*req.Supplier)
	}
	if next.PONumber == "" || next.Supplier == "" {
		return domain.PurchaseOrder{}, invalid("po_number and supplier must not be blank")
	}
	if req.Status != nil {
		status, ok := canonicalPOStatus(*req.Status)
		if !ok {
			return domain.PurchaseOrder{}, invalid("status must be one of %s", strings.Join(poStatuses, ", "))
		}
		next.Status = status
	}
	if req.Date != nil {
		next.Date = req.Date.UTC()
	}
	replace := req.Items != nil
	if replace {
		next.Items, next.Total = poItems(req.Items)
	}
	if req.Total != nil {
		next.Total = domain.RoundMoney(*req.Total)
	}

	if err := s.repo.UpdatePurchaseOrder(ctx, next, replace); err != nil {
		return domain.PurchaseOrder{}, err
	}
	s.logAudit(ctx, "purchase_order_update", "purchase_order", id, "status="+next.Status)
	return s.GetPurchaseOrder(ctx, id)
}

func (s *Service) DeletePurchaseOrder(ctx context.Context, id string) error {
	if err := s.repo.DeletePurchaseOrder(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "purchase_order_delete", "purchase_order", id, "")
	return nil
}
