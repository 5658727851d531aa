package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/database"
	holidayDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/holiday"
	"github.com/frahmantamala/leave-management/internal/holiday"
)

type HolidayRepository struct {
	db *gorm.DB
}

func NewHolidayRepository(db *gorm.DB) holiday.RepositoryAPI {
	return &HolidayRepository{db: db}
}

func duplicateDate() error {
	return internal.NewConflictError("a public holiday already exists on this date", internal.ErrCodeHolidayDuplicate)
}

func (r *HolidayRepository) Create(ctx context.Context, h *holiday.PublicHoliday) error {
	model := holiday.ToDataModel(h)
	if err := database.Conn(ctx, r.db).Create(model).Error; err != nil {
		if database.IsDuplicate(err) {
			return duplicateDate()
		}
		return err
	}
	h.ID = model.ID
	h.CreatedAt = model.CreatedAt
	return nil
}

func (r *HolidayRepository) Update(ctx context.Context, h *holiday.PublicHoliday) error {
	err := database.Conn(ctx, r.db).
		Model(&holidayDatamodel.PublicHoliday{ID: h.ID}).
		Select("name", "date", "description", "is_recurring").
		Updates(holiday.ToDataModel(h)).Error
	if database.IsDuplicate(err) {
		return duplicateDate()
	}
	return err
}

func (r *HolidayRepository) Delete(ctx context.Context, id int64) error {
	return database.Conn(ctx, r.db).Delete(&holidayDatamodel.PublicHoliday{}, id).Error
}

func (r *HolidayRepository) GetByID(ctx context.Context, id int64) (*holiday.PublicHoliday, error) {
	var model holidayDatamodel.PublicHoliday
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrHolidayNotFound
		}
		return nil, err
	}
	return holiday.FromDataModel(&model), nil
}

func (r *HolidayRepository) find(q *gorm.DB) ([]*holiday.PublicHoliday, error) {
	var models []*holidayDatamodel.PublicHoliday
	if err := q.Order("date ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return holiday.FromDataModelSlice(models), nil
}

func (r *HolidayRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*holiday.PublicHoliday, error) {
	return r.find(database.Conn(ctx, r.db).Where("date >= ? AND date <= ?", from, to))
}

func (r *HolidayRepository) ListRecurring(ctx context.Context) ([]*holiday.PublicHoliday, error) {
	return r.find(database.Conn(ctx, r.db).Where("is_recurring = ?", true))
}

func (r *HolidayRepository) ExistsOn(ctx context.Context, date time.Time) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&holidayDatamodel.PublicHoliday{}).
		Where("date = ?", date).
		Count(&count).Error
	return count > 0, err
}
