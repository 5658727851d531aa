package holiday

type CreateHolidayDTO struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Description string `json:"description"`
	IsRecurring bool   `json:"is_recurring"`
}

type UpdateHolidayDTO struct {
	Name        *string `json:"name,omitempty"`
	Date        *string `json:"date,omitempty"`
	Description *string `json:"description,omitempty"`
	IsRecurring *bool   `json:"is_recurring,omitempty"`
}

type HolidaysResponse struct {
	Holidays []*PublicHoliday `json:"holidays"`
}
