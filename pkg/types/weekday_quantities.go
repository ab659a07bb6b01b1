package types

import "github.com/grocerly/grocerly-backend/pkg/enums"

// WeekdayQuantities is the fixed per-weekday quantity schedule of a
// subscription line item. One column per weekday; no free-form keys.
type WeekdayQuantities struct {
	Monday    int `gorm:"column:qty_monday;not null;default:0" json:"monday"`
	Tuesday   int `gorm:"column:qty_tuesday;not null;default:0" json:"tuesday"`
	Wednesday int `gorm:"column:qty_wednesday;not null;default:0" json:"wednesday"`
	Thursday  int `gorm:"column:qty_thursday;not null;default:0" json:"thursday"`
	Friday    int `gorm:"column:qty_friday;not null;default:0" json:"friday"`
	Saturday  int `gorm:"column:qty_saturday;not null;default:0" json:"saturday"`
	Sunday    int `gorm:"column:qty_sunday;not null;default:0" json:"sunday"`
}

// QuantityFor returns the scheduled quantity for the given weekday.
func (w WeekdayQuantities) QuantityFor(day enums.Weekday) int {
	switch day {
	case enums.WeekdayMonday:
		return w.Monday
	case enums.WeekdayTuesday:
		return w.Tuesday
	case enums.WeekdayWednesday:
		return w.Wednesday
	case enums.WeekdayThursday:
		return w.Thursday
	case enums.WeekdayFriday:
		return w.Friday
	case enums.WeekdaySaturday:
		return w.Saturday
	case enums.WeekdaySunday:
		return w.Sunday
	}
	return 0
}

// SelectedWeekdays returns the weekdays with a positive quantity, in calendar order.
func (w WeekdayQuantities) SelectedWeekdays() []enums.Weekday {
	var selected []enums.Weekday
	for _, day := range enums.Weekdays {
		if w.QuantityFor(day) > 0 {
			selected = append(selected, day)
		}
	}
	return selected
}

// HasAnyQuantity reports whether at least one weekday is scheduled.
func (w WeekdayQuantities) HasAnyQuantity() bool {
	return len(w.SelectedWeekdays()) > 0
}

// HasNegativeQuantity reports whether any weekday carries a negative value.
func (w WeekdayQuantities) HasNegativeQuantity() bool {
	for _, day := range enums.Weekdays {
		if w.QuantityFor(day) < 0 {
			return true
		}
	}
	return false
}
