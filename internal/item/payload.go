package item

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// schemaField is the key used for errors which are not specific to any field
	schemaField = "_schema"

	msgRequired     = "Missing data for required field."
	msgNull         = "Field may not be null."
	msgUnknownField = "Unknown field."
	msgNotString    = "Not a valid string."
	msgNotNumber    = "Not a valid number."
	msgNotFinite    = "Special numeric values (nan or infinity) are not permitted."
	msgInvalidType  = "Invalid input type."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	vld := validator.New(validator.WithRequiredStructEnabled())
	// field errors are reported with the JSON names, since that's what the client sent
	vld.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return vld
}

// Payload is the request body accepted for creating or updating an item.
// Fields are pointers so that a missing field can be told apart from a zero value.
type Payload struct {
	Name  *string  `json:"name" validate:"required,min=1"`
	Price *float64 `json:"price" validate:"required"`
}

func NewPayload(name string, price float64) Payload {
	return Payload{Name: &name, Price: &price}
}

func (pl *Payload) Validate() error {
	fields := pl.fieldErrors()
	if len(fields) == 0 {
		return nil
	}
	return &InputError{Fields: fields}
}

func (pl *Payload) fieldErrors() map[string][]string {
	err := validate.Struct(pl)
	if err == nil {
		return nil
	}

	fields := make(map[string][]string, 2)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields[schemaField] = []string{err.Error()}
		return fields
	}

	for _, ferr := range verrs {
		fields[ferr.Field()] = append(fields[ferr.Field()], fieldMessage(ferr))
	}

	return fields
}

func fieldMessage(ferr validator.FieldError) string {
	switch ferr.Tag() {
	case "required":
		return msgRequired
	case "min":
		return fmt.Sprintf("Shorter than minimum length %s.", ferr.Param())
	default:
		return fmt.Sprintf("Failed validation on '%s'.", ferr.Tag())
	}
}

// DecodePayload reads a JSON object from body and validates it. All problems found are
// reported together, per field, as an *InputError.
func DecodePayload(body io.Reader) (*Payload, error) {
	raw := map[string]json.RawMessage{}
	err := json.NewDecoder(body).Decode(&raw)
	if err != nil {
		return nil, &InputError{Fields: map[string][]string{schemaField: {msgInvalidType}}}
	}

	payload := &Payload{}
	fields := make(map[string][]string, 2)

	for key, value := range raw {
		switch key {
		case "name":
			if isNull(value) {
				fields[key] = []string{msgNull}
				continue
			}
			name, msg := decodeString(value)
			if msg != "" {
				fields[key] = []string{msg}
				continue
			}
			payload.Name = &name

		case "price":
			if isNull(value) {
				fields[key] = []string{msgNull}
				continue
			}
			price, msg := decodeNumber(value)
			if msg != "" {
				fields[key] = []string{msg}
				continue
			}
			payload.Price = &price

		default:
			fields[key] = []string{msgUnknownField}
		}
	}

	for field, msgs := range payload.fieldErrors() {
		// a type error is more useful than "missing" for the same field
		if _, exists := fields[field]; !exists {
			fields[field] = msgs
		}
	}

	if len(fields) > 0 {
		return nil, &InputError{Fields: fields}
	}

	return payload, nil
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

func decodeString(value json.RawMessage) (string, string) {
	str := ""
	if json.Unmarshal(value, &str) != nil {
		return "", msgNotString
	}
	return str, ""
}

// decodeNumber accepts a JSON number, or a string holding one (e.g. "4.99").
// Booleans, objects, arrays and unparsable strings are rejected.
func decodeNumber(value json.RawMessage) (float64, string) {
	num := 0.0
	if json.Unmarshal(value, &num) == nil {
		return num, ""
	}

	str := ""
	if json.Unmarshal(value, &str) != nil {
		return 0, msgNotNumber
	}

	num, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, msgNotNumber
	}
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, msgNotFinite
	}

	return num, ""
}

// InputError holds validation messages per field. It wraps ErrInvalidInput.
type InputError struct {
	Fields map[string][]string
}

func (ierr *InputError) Error() string {
	keys := make([]string, 0, len(ierr.Fields))
	for key := range ierr.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, strings.Join(ierr.Fields[key], " ")))
	}

	return fmt.Sprintf("%s (%s)", ErrInvalidInput.Error(), strings.Join(parts, "; "))
}

func (ierr *InputError) Unwrap() error {
	return ErrInvalidInput
}

// AsInputError returns the *InputError in err's chain, if any.
func AsInputError(err error) *InputError {
	var ierr *InputError
	if errors.As(err, &ierr) {
		return ierr
	}
	return nil
}
