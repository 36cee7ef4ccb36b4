package service

import (
	"context"
	"strings"
	"time"

	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/report"
)

// DailyReport reconciles one local business day. An empty date means today.
func (s *Service) DailyReport(ctx context.Context, date string) (domain.DailyReconciliation, error) {
	day, err := s.parseDay(date)
	if err != nil {
		return domain.DailyReconciliation{}, err
	}
	in, err := s.reportInput(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return domain.DailyReconciliation{}, err
	}
	return report.Daily(day.Format(time.DateOnly), in), nil
}

// Summary reports over startDate..endDate (both inclusive local days) or
// over a named period: today, week (last seven days) or month (to date).
func (s *Service) Summary(ctx context.Context, startDate string, endDate string, period string) (domain.PeriodSummary, error) {
	from, to, err := s.summaryRange(startDate, endDate, period)
	if err != nil {
		return domain.PeriodSummary{}, err
	}
	in, err := s.reportInput(ctx, from, to)
	if err != nil {
		return domain.PeriodSummary{}, err
	}
	return report.Summary(from.Format(time.DateOnly), to.AddDate(0, 0, -1).Format(time.DateOnly), in), nil
}

func (s *Service) summaryRange(startDate string, endDate string, period string) (time.Time, time.Time, error) {
	today := s.localToday()
	tomorrow := today.AddDate(0, 0, 1)

	if strings.TrimSpace(startDate) == "" && strings.TrimSpace(endDate) == "" {
		switch strings.ToLower(strings.TrimSpace(period)) {
		case "", "today":
			return today, tomorrow, nil
		case "week":
			return today.AddDate(0, 0, -6), tomorrow, nil
		case "month":
			return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, s.loc), tomorrow, nil
		default:
			return time.Time{}, time.Time{}, invalid("period must be today, week or month")
		}
	}

	from, err := s.parseDay(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	last, err := s.parseDay(endDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if last.Before(from) {
		return time.Time{}, time.Time{}, invalid("startDate must not be after endDate")
	}
	return from, last.AddDate(0, 0, 1), nil
}

func (s *Service) reportInput(ctx context.Context, from time.Time, to time.Time) (domain.ReportInput, error) {
	in := domain.ReportInput{From: from, To: to}
	var err error

	if in.Sales, err = s.repo.ListSales(ctx, domain.SaleFilter{From: &from, To: &to}); err != nil {
		return domain.ReportInput{}, err
	}
	if in.Expenses, err = s.repo.ListExpenses(ctx, &from, &to); err != nil {
		return domain.ReportInput{}, err
	}
	if in.Deliveries, err = s.repo.ListDeliveries(ctx, &from, &to); err != nil {
		return domain.ReportInput{}, err
	}
	if in.Losses, err = s.repo.ListLosses(ctx, &from, &to); err != nil {
		return domain.ReportInput{}, err
	}
	if in.Inventory, err = s.repo.ListInventory(ctx); err != nil {
		return domain.ReportInput{}, err
	}
	if in.Products, err = s.repo.ListProducts(ctx); err != nil {
		return domain.ReportInput{}, err
	}
	return in, nil
}
