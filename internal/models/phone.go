package models

import "strings"

// PhoneDigits strips every non-digit rune from s.
func PhoneDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone renders a phone number as (DDD)-DDD-DDDD when it holds exactly
// ten digits. Any other input is returned unchanged.
func FormatPhone(s string) string {
	d := PhoneDigits(s)
	if len(d) != 10 {
		return s
	}
	return "(" + d[0:3] + ")-" + d[3:6] + "-" + d[6:10]
}
