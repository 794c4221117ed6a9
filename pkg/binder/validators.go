package binder

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var (
	dateRE = regexp.MustCompile(`^\d{4}-(0[0-9]|1[0-2])-(0[0-9]|1[0-9]|2[0-9]|3[0-1])$`)

	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	}

	// now is swapped out in tests.
	now = time.Now
)

// ParseTimestamp parses an RFC 3339 timestamp, a timestamp without a zone, or
// a bare YYYY-MM-DD date. Values without a zone are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized timestamp %q", value)
}

// dateValidator ensures the value matches the format YYYY-MM-DD or the empty
// string. The reason the empty string is allowed is that this validator can be
// used to clear out values. However, this is only useful in that case, so if
// you're using this validator but want the value to be required, add a `ne=` to
// the validate tag so that the empty string is disallowed.
func dateValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return dateRE.MatchString(value)
}

// timestampValidator ensures the value can be read by ParseTimestamp.
func timestampValidator(fl validator.FieldLevel) bool {
	_, err := ParseTimestamp(fl.Field().String())
	return err == nil
}

// futureValidator ensures the value is a timestamp strictly after the current
// time.
func futureValidator(fl validator.FieldLevel) bool {
	t, err := ParseTimestamp(fl.Field().String())
	if err != nil {
		return false
	}
	return t.After(now())
}
