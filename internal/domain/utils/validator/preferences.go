package validator

// MaxHoursBefore caps the reminder offset at thirty days.
const MaxHoursBefore = 24 * 30

func HoursBefore(hours int) bool {
	return hours >= 0 && hours <= MaxHoursBefore
}
