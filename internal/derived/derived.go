// Package derived computes respondent values that are never persisted.
package derived

import (
	"math"
	"time"
)

// Age returns the number of whole years between the calendar date dob and the
// UTC calendar date of now. Dates after now yield 0.
func Age(dob, now time.Time) int {
	if dob.IsZero() {
		return 0
	}

	dy, dm, dd := dob.Date()
	ny, nm, nd := now.UTC().Date()

	years := ny - dy
	if nm < dm || (nm == dm && nd < dd) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// BMI returns weight / (height in metres)^2 rounded to two decimals, or 0 when
// either measurement is not positive.
func BMI(heightCm, weightKg float64) float64 {
	if heightCm <= 0 || weightKg <= 0 || math.IsNaN(heightCm) || math.IsNaN(weightKg) {
		return 0
	}

	metres := heightCm / 100
	return math.Round(weightKg/(metres*metres)*100) / 100
}
