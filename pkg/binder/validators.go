package binder

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"time"

	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/go-playground/validator/v10"
)

// DateLayout is the format the date validator accepts.
const DateLayout = "2006-01-02"

var (
	dateRE = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])$`)
)

// ParseDate parses a value that passed the date validator. The empty string
// parses to nil.
func ParseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return nil, errcodes.ValidationError(fmt.Sprintf("%q isn't a valid date", value))
	}
	return &t, nil
}

// dateValidator accepts YYYY-MM-DD or the empty string. The empty string is
// how a payload clears a date; pair the tag with required when it can't be
// cleared.
func dateValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return dateRE.MatchString(value)
}

// ratingValidator accepts 0 to 5 in steps of 0.25. Values in between are
// rejected rather than rounded.
func ratingValidator(fl validator.FieldLevel) bool {
	field := fl.Field()
	//exhaustive:ignore
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		return models.ValidRating(field.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return models.ValidRating(float64(field.Int()))
	default:
		return false
	}
}

func readStatusValidator(fl validator.FieldLevel) bool {
	return models.IsValidReadStatus(fl.Field().String())
}

// urlValidator only allows absolute http(s) links. Empty clears the value.
func urlValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
