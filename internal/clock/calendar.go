// internal/clock/calendar.go
package clock

var monthOffset = [12]int{0, 3, 3, 6, 1, 4, 6, 2, 5, 0, 3, 5}

var daysPerMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// ComputeWeekday returns the weekday (Sunday = 0) of a date in 2000-2099.
// year is 0..99 binary, month 1..12, day 1..31. An out-of-range month
// yields -1.
func ComputeWeekday(year, month, day int) int {
	if month < 1 || month > 12 {
		return -1
	}
	offset := 6 + year + year/4 + monthOffset[month-1] + day
	if year%4 == 0 && month < 3 {
		offset--
	}
	return offset % 7
}

// DaysInMonth returns the last day of month (1..12) in year 0..99.
// An out-of-range month yields 31.
func DaysInMonth(year, month int) byte {
	if month < 1 || month > 12 {
		return 31
	}
	n := daysPerMonth[month-1]
	if month == 2 && year%4 == 0 {
		n++
	}
	return byte(n)
}
