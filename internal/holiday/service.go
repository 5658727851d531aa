package holiday

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/period"
)

type RepositoryAPI interface {
	Create(ctx context.Context, h *PublicHoliday) error
	Update(ctx context.Context, h *PublicHoliday) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*PublicHoliday, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*PublicHoliday, error)
	ListRecurring(ctx context.Context) ([]*PublicHoliday, error)
	ExistsOn(ctx context.Context, date time.Time) (bool, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func parseDate(field, raw string) (time.Time, error) {
	date, err := clock.ParseDate(raw)
	if err != nil {
		return time.Time{}, internal.NewValidationFieldError(field, field+" must be a YYYY-MM-DD date", internal.ErrCodeInvalidDate)
	}
	return date, nil
}

func (s *Service) Create(ctx context.Context, dto CreateHolidayDTO) (*PublicHoliday, error) {
	date, err := parseDate("date", dto.Date)
	if err != nil {
		return nil, err
	}
	h := &PublicHoliday{
		Name:        dto.Name,
		Date:        date,
		Description: dto.Description,
		IsRecurring: dto.IsRecurring,
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, h); err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeConflict) {
			return nil, err
		}
		s.logger.Error("failed to create public holiday", "error", err, "date", dto.Date)
		return nil, internal.NewInternalError("failed to create public holiday", err)
	}

	s.logger.Info("public holiday created", "holiday_id", h.ID, "date", dto.Date, "recurring", h.IsRecurring)
	return h, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateHolidayDTO) (*PublicHoliday, error) {
	h, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if dto.Name != nil {
		h.Name = *dto.Name
	}
	if dto.Date != nil {
		if h.Date, err = parseDate("date", *dto.Date); err != nil {
			return nil, err
		}
	}
	if dto.Description != nil {
		h.Description = *dto.Description
	}
	if dto.IsRecurring != nil {
		h.IsRecurring = *dto.IsRecurring
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, h); err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeConflict) {
			return nil, err
		}
		s.logger.Error("failed to update public holiday", "error", err, "holiday_id", id)
		return nil, internal.NewInternalError("failed to update public holiday", err)
	}
	return h, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete public holiday", "error", err, "holiday_id", id)
		return internal.NewInternalError("failed to delete public holiday", err)
	}
	s.logger.Info("public holiday deleted", "holiday_id", id)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*PublicHoliday, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if internal.IsErrorType(err, internal.ErrorTypeNotFound) {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to get public holiday", err)
	}
	return h, nil
}

// List returns holidays dated inside [from, to], plus recurring holidays of
// other years projected onto the years of the range. A stored holiday wins
// over a projection falling on the same date.
func (s *Service) List(ctx context.Context, from, to time.Time) ([]*PublicHoliday, error) {
	from, to = clock.DateOf(from), clock.DateOf(to)
	if to.Before(from) {
		return nil, internal.NewValidationFieldError("to", "to must not be before from", internal.ErrCodeInvalidDate)
	}

	direct, err := s.repo.ListBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("failed to list public holidays", "error", err)
		return nil, internal.NewInternalError("failed to list public holidays", err)
	}
	recurring, err := s.repo.ListRecurring(ctx)
	if err != nil {
		s.logger.Error("failed to list recurring holidays", "error", err)
		return nil, internal.NewInternalError("failed to list public holidays", err)
	}

	covered := make(map[int64]bool, len(direct))
	for _, h := range direct {
		covered[period.EpochDay(h.Date)] = true
	}
	holidays := direct
	for _, h := range recurring {
		for year := from.Year(); year <= to.Year(); year++ {
			projected, ok := h.InYear(year)
			if !ok || projected.Date.Before(from) || projected.Date.After(to) {
				continue
			}
			day := period.EpochDay(projected.Date)
			if covered[day] {
				continue
			}
			covered[day] = true
			holidays = append(holidays, projected)
		}
	}

	sort.SliceStable(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})
	return holidays, nil
}

func (s *Service) ListForMonth(ctx context.Context, ym period.YearMonth) ([]*PublicHoliday, error) {
	return s.List(ctx, ym.Start(), ym.End())
}

func (s *Service) ListForYear(ctx context.Context, year int) ([]*PublicHoliday, error) {
	return s.List(ctx, clock.Date(year, time.January, 1), clock.Date(year, time.December, 31))
}

// IsHoliday checks stored dates only; recurring projections are not considered.
func (s *Service) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	return s.repo.ExistsOn(ctx, clock.DateOf(date))
}
