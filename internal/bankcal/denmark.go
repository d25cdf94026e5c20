package bankcal

import (
	"time"

	"budget-allocation-engine/internal/models"
)

// easterSunday computes Gregorian Easter via the anonymous computus.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return models.NewDate(year, time.Month(month), day)
}

// danishHolidays returns every day Danish banks are closed in the year.
// Movable feasts hang off Easter Sunday. Great Prayer Day was abolished
// as a public holiday from 2024.
func danishHolidays(year int) []time.Time {
	easter := easterSunday(year)

	days := []time.Time{
		models.NewDate(year, time.January, 1),  // New Year's Day
		easter.AddDate(0, 0, -3),               // Maundy Thursday
		easter.AddDate(0, 0, -2),               // Good Friday
		easter,                                 // Easter Sunday
		easter.AddDate(0, 0, 1),                // Easter Monday
		easter.AddDate(0, 0, 39),               // Ascension Day
		easter.AddDate(0, 0, 40),               // Bank closing day after Ascension
		easter.AddDate(0, 0, 49),               // Whit Sunday
		easter.AddDate(0, 0, 50),               // Whit Monday
		models.NewDate(year, time.June, 5),     // Constitution Day
		models.NewDate(year, time.December, 24),
		models.NewDate(year, time.December, 25),
		models.NewDate(year, time.December, 26),
		models.NewDate(year, time.December, 31),
	}

	if year < 2024 {
		days = append(days, easter.AddDate(0, 0, 26)) // Great Prayer Day
	}

	return days
}
