package holiday

import (
	"time"

	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	holidayDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/holiday"
)

type PublicHoliday struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Description string    `json:"description,omitempty"`
	IsRecurring bool      `json:"is_recurring"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *PublicHoliday) Validate() error {
	v := validation.NewValidator()
	v.Field("name", h.Name).Required().MaxLength(100)
	v.Field("date", h.Date).Required()
	v.Field("description", h.Description).MaxLength(255)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// InYear moves a recurring holiday to the same day and month of year. It
// reports false when the day does not exist in that year (29 February).
func (h *PublicHoliday) InYear(year int) (*PublicHoliday, bool) {
	date := clock.Date(year, h.Date.Month(), h.Date.Day())
	if date.Month() != h.Date.Month() {
		return nil, false
	}
	projected := *h
	projected.Date = date
	return &projected, true
}

func ToDataModel(h *PublicHoliday) *holidayDatamodel.PublicHoliday {
	return &holidayDatamodel.PublicHoliday{
		ID:          h.ID,
		Name:        h.Name,
		Date:        h.Date,
		Description: h.Description,
		IsRecurring: h.IsRecurring,
		CreatedAt:   h.CreatedAt,
	}
}

func FromDataModel(h *holidayDatamodel.PublicHoliday) *PublicHoliday {
	return &PublicHoliday{
		ID:          h.ID,
		Name:        h.Name,
		Date:        clock.DateOf(h.Date),
		Description: h.Description,
		IsRecurring: h.IsRecurring,
		CreatedAt:   h.CreatedAt,
	}
}

func FromDataModelSlice(holidays []*holidayDatamodel.PublicHoliday) []*PublicHoliday {
	result := make([]*PublicHoliday, len(holidays))
	for i, h := range holidays {
		result[i] = FromDataModel(h)
	}
	return result
}
