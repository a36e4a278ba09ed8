package binder

import (
	"fmt"
	"reflect"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/segmentio/encoding/json"
)

// Validation tags used by catalogue payloads.
const (
	date       = "date"
	mx         = "max"
	mn         = "min"
	oneof      = "oneof"
	rating     = "rating"
	readStatus = "read_status"
	required   = "required"
	webURL     = "url"
)

func formatUnmarshalTypeError(err *json.UnmarshalTypeError) string {
	return fmt.Sprintf("%q should be of type %s", strings.Trim(err.Field, "."), err.Type)
}

func formatSchemaConversionError(err schema.ConversionError) string {
	return fmt.Sprintf("%q should be of type %s", err.Key, err.Type)
}

func formatValidationError(err validator.FieldError, trans ut.Translator) string {
	field := err.Field()

	switch err.Tag() {
	case date:
		return fmt.Sprintf("%q should be in the format of YYYY-MM-DD", field)
	case mx:
		return boundMessage(err, "less than or equal to")
	case mn:
		return boundMessage(err, "greater than or equal to")
	case rating:
		return fmt.Sprintf("%q must be between 0 and 5 in steps of 0.25", field)
	case readStatus:
		return fmt.Sprintf("%q must be one of the following: \"Reading\", \"Completed\", \"Abandoned\"", field)
	case webURL:
		return fmt.Sprintf("%q must be an http or https URL", field)
	case oneof:
		valids := []string{}
		for _, p := range strings.Fields(err.Param()) {
			valids = append(valids, fmt.Sprintf("%q", p))
		}
		return fmt.Sprintf("%q must be one of the following: %s", field, strings.Join(valids, ", "))
	case required:
		return fmt.Sprintf("%q is required", field)
	default:
		// Translate falls back to the raw error text when the tag has no
		// translation.
		if trans != nil {
			if msg := err.Translate(trans); msg != err.Error() {
				return msg
			}
		}
		return fmt.Sprintf("%q is invalid", field)
	}
}

// boundMessage renders min and max failures. Numbers compare by value,
// strings by character count and slices by element count.
func boundMessage(err validator.FieldError, relation string) string {
	field, param := err.Field(), err.Param()

	var unit string
	//exhaustive:ignore
	switch err.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%q must be %s %s", field, relation, param)
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = "element"
	default:
		unit = "character"
	}
	if param != "1" {
		unit += "s"
	}
	return fmt.Sprintf("%q length must be %s %s %s", field, relation, param, unit)
}
