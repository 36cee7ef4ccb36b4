package service

import (
	"context"
	"fmt"
	"strings"

	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/metrics"
	"mrchooks/backend/internal/xid"
)

// RecordLoss stores a spoiled or wasted item and takes it out of stock.
// The product has to exist in the catalog.
func (s *Service) RecordLoss(ctx context.Context, req domain.LossRequest) (domain.Loss, error) {
	req.ProductName = strings.TrimSpace(req.ProductName)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := validate(req); err != nil {
		return domain.Loss{}, err
	}
	if _, err := s.repo.GetProduct(ctx, req.ProductID); err != nil {
		if isNotFound(err) {
			return domain.Loss{}, invalid("product %s does not exist", req.ProductID)
		}
		return domain.Loss{}, err
	}

	loss := domain.Loss{
		ID:          xid.New("loss"),
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		Reason:      req.Reason,
		Remarks:     strings.TrimSpace(req.Remarks),
		Cost:        domain.RoundMoney(*req.Cost),
		Date:        s.dateOr(req.Date),
	}
	tracked, err := s.repo.RecordLoss(ctx, loss)
	if err != nil {
		return domain.Loss{}, err
	}

	metrics.LossesRecorded.Inc()
	if !tracked {
		metrics.UntrackedStock.WithLabelValues("loss").Inc()
		s.log(ctx).Warn().Str("loss_id", loss.ID).Str("product_id", loss.ProductID).Msg("lost product has no inventory row, stock not decremented")
	}
	s.invalidateCatalog(ctx)
	s.logAudit(ctx, "loss_record", "loss", loss.ID, fmt.Sprintf("product=%s,qty=%d,reason=%s", loss.ProductID, loss.Quantity, loss.Reason))
	return loss, nil
}

func (s *Service) ListLosses(ctx context.Context, startDate string, endDate string) ([]domain.Loss, error) {
	from, to, err := s.parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.repo.ListLosses(ctx, from, to)
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	req.Category = strings.TrimSpace(req.Category)
	req.Description = strings.TrimSpace(req.Description)
	if err := validate(req); err != nil {
		return domain.Expense{}, err
	}
	expense := domain.Expense{
		ID:          xid.New("exp"),
		Date:        s.dateOr(req.Date),
		Category:    req.Category,
		Description: req.Description,
		Amount:      domain.RoundMoney(*req.Amount),
		Remarks:     strings.TrimSpace(req.Remarks),
	}
	if err := s.repo.CreateExpense(ctx, expense); err != nil {
		return domain.Expense{}, err
	}
	s.logAudit(ctx, "expense_create", "expense", expense.ID, "amount="+expense.Amount.StringFixed(2))
	return expense, nil
}

func (s *Service) ListExpenses(ctx context.Context, startDate string, endDate string) ([]domain.Expense, error) {
	from, to, err := s.parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.repo.ListExpenses(ctx, from, to)
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "expense_delete", "expense", id, "")
	return nil
}

func (s *Service) CreateDelivery(ctx context.Context, req domain.DeliveryCreateRequest) (domain.Delivery, error) {
	req.Description = strings.TrimSpace(req.Description)
	req.Driver = strings.TrimSpace(req.Driver)
	if err := validate(req); err != nil {
		return domain.Delivery{}, err
	}
	delivery := domain.Delivery{
		ID:          xid.New("dlv"),
		Date:        s.dateOr(req.Date),
		Description: req.Description,
		Amount:      domain.RoundMoney(*req.Amount),
		Driver:      req.Driver,
		Remarks:     strings.TrimSpace(req.Remarks),
	}
	if err := s.repo.CreateDelivery(ctx, delivery); err != nil {
		return domain.Delivery{}, err
	}
	s.logAudit(ctx, "delivery_create", "delivery", delivery.ID, "driver="+delivery.Driver)
	return delivery, nil
}

func (s *Service) ListDeliveries(ctx context.Context, startDate string, endDate string) ([]domain.Delivery, error) {
	from, to, err := s.parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDeliveries(ctx, from, to)
}

func (s *Service) DeleteDelivery(ctx context.Context, id string) error {
	if err := s.repo.DeleteDelivery(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "delivery_delete", "delivery", id, "")
	return nil
}

// CreateUnsold records leftover stock. RecordedBy falls back to the
// authenticated user.
func (s *Service) CreateUnsold(ctx context.Context, req domain.UnsoldCreateRequest) (domain.UnsoldProduct, error) {
	req.ProductName = strings.TrimSpace(req.ProductName)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := validate(req); err != nil {
		return domain.UnsoldProduct{}, err
	}
	recordedBy := strings.TrimSpace(req.RecordedBy)
	if recordedBy == "" {
		if actor, ok := ActorFromContext(ctx); ok {
			recordedBy = actor.Username
		}
	}
	unsold := domain.UnsoldProduct{
		ID:          xid.New("uns"),
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		Price:       domain.RoundMoney(*req.Price),
		Reason:      req.Reason,
		Date:        s.dateOr(req.Date),
		RecordedBy:  recordedBy,
	}
	if err := s.repo.CreateUnsold(ctx, unsold); err != nil {
		return domain.UnsoldProduct{}, err
	}
	return unsold, nil
}

func (s *Service) ListUnsold(ctx context.Context) ([]domain.UnsoldProduct, error) {
	return s.repo.ListUnsold(ctx)
}
