package binder

import (
	"fmt"
	"reflect"
	"strings"
	timepkg "time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/segmentio/encoding/json"
)

const (
	date      = "date"
	future    = "future"
	gt        = "gt"
	gte       = "gte"
	mx        = "max"
	mn        = "min"
	oneof     = "oneof"
	required  = "required"
	timestamp = "timestamp"
	uuid      = "uuid"
)

var (
	timeType = reflect.TypeOf(timepkg.Time{})
)

func formatUnmarshalTypeError(err *json.UnmarshalTypeError) string {
	field := strings.Trim(err.Field, ".")
	if field == "" {
		return fmt.Sprintf("payload should be of type %s", err.Type)
	}
	return fmt.Sprintf("%q should be of type %s", field, err.Type)
}

func formatSchemaConversionError(err schema.ConversionError) string {
	return fmt.Sprintf("%q should be of type %s", err.Key, err.Type)
}

func isNumeric(k reflect.Kind) bool {
	switch k { //nolint:exhaustive
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func lengthUnit(kind reflect.Kind, param string) string {
	unit := "character"
	if kind == reflect.Slice {
		unit = "element"
	}
	if param != "1" {
		unit += "s"
	}
	return unit
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()

	switch err.Tag() {
	case date:
		return fmt.Sprintf("%q should be in the format of YYYY-MM-DD", field)
	case future:
		return fmt.Sprintf("%q must be in the future", field)
	case gt, gte:
		v := err.Param()
		if v == "" && err.Type() == timeType {
			v = "now"
		}
		if err.Tag() == gte {
			return fmt.Sprintf("%q must be greater than or equal to %s", field, v)
		}
		return fmt.Sprintf("%q must be greater than %s", field, v)
	case mx:
		if isNumeric(err.Kind()) {
			return fmt.Sprintf("%q must be less than or equal to %s", field, err.Param())
		}
		return fmt.Sprintf("%q length must be less than or equal to %s %s", field, err.Param(), lengthUnit(err.Kind(), err.Param()))
	case mn:
		if isNumeric(err.Kind()) {
			return fmt.Sprintf("%q must be greater than or equal to %s", field, err.Param())
		}
		return fmt.Sprintf("%q length must be greater than or equal to %s %s", field, err.Param(), lengthUnit(err.Kind(), err.Param()))
	case oneof:
		valids := []string{}
		for _, p := range strings.Fields(err.Param()) {
			valids = append(valids, fmt.Sprintf("%q", p))
		}
		return fmt.Sprintf("%q must be one of the following: %s", field, strings.Join(valids, ", "))
	case required:
		return fmt.Sprintf("%q is required", field)
	case timestamp:
		return fmt.Sprintf("%q is not a valid date", field)
	case uuid:
		return fmt.Sprintf("%q is not a valid identifier", field)
	default:
		return fmt.Sprintf("%q failed the %q check", field, err.Tag())
	}
}
