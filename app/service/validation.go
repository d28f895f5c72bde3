package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	dateLayout       = "2006-01-02"
	maxCommentLength = 500
	maxNameLength    = 255
	maxEmailLength   = 255
)

var (
	phonePattern = regexp.MustCompile(`^(?:(?:\+|00)33|0)\s*[1-9](?:[\s.-]*\d{2}){4}$`)
	clockPattern = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

func validateName(v *ValidationError, name string) string {
	name = strings.TrimSpace(name)
	switch n := utf8.RuneCountInString(name); {
	case n < 2:
		v.Add("name", "must be at least 2 characters")
	case n > maxNameLength:
		v.Add("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	return name
}

func validateEmail(v *ValidationError, email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		v.Add("email", "is required")
		return email
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || len(email) > maxEmailLength {
		v.Add("email", "must be a valid email address")
	}
	return email
}

func validatePhone(v *ValidationError, phone string) string {
	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		v.Add("phone", "must be a valid French phone number")
	}
	return phone
}

func validateComment(v *ValidationError, comment string) *string {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil
	}
	if utf8.RuneCountInString(comment) > maxCommentLength {
		v.Add("comment", fmt.Sprintf("must be at most %d characters", maxCommentLength))
	}
	return &comment
}

// validateDate accepts YYYY-MM-DD not before today in loc.
func validateDate(v *ValidationError, date string, now time.Time, loc *time.Location) string {
	date = strings.TrimSpace(date)
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		v.Add("date", "must be a date in YYYY-MM-DD format")
		return date
	}
	today := now.In(loc).Format(dateLayout)
	if day.Format(dateLayout) < today {
		v.Add("date", "must not be in the past")
	}
	return day.Format(dateLayout)
}

// validateTimeRange normalizes H:MM or HH:MM to HH:MM and requires start < end.
func validateTimeRange(v *ValidationError, start, end string) (string, string) {
	normStart, okStart := normalizeClock(start)
	if !okStart {
		v.Add("start_time", "must be a time in HH:MM format")
	}
	normEnd, okEnd := normalizeClock(end)
	if !okEnd {
		v.Add("end_time", "must be a time in HH:MM format")
	}
	if okStart && okEnd && normStart >= normEnd {
		v.Add("end_time", "must be after start_time")
	}
	return normStart, normEnd
}

func validatePersons(v *ValidationError, persons, min, max int) {
	if persons < min || persons > max {
		v.Add("persons", fmt.Sprintf("must be between %d and %d", min, max))
	}
}

func normalizeClock(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if !clockPattern.MatchString(raw) {
		return raw, false
	}
	hh, mm, _ := strings.Cut(raw, ":")
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return raw, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return raw, false
	}
	return fmt.Sprintf("%02d:%02d", h, m), true
}
