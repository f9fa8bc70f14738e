package user

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/users-api/internal/types"
)

// errAgeNotNumber is reported when age cannot be read as a number.
var errAgeNotNumber = errors.New("field Age must be a number")

// newValidator returns a validator with the "age" tag registered. The
// tag accepts exactly what parseAge accepts.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("age", func(fl validator.FieldLevel) bool {
		_, err := parseAge(fl.Field().String())
		return err == nil
	})
	return v
}

// parseAge reads a textual age the way a loose number cast would:
// surrounding whitespace is ignored, decimal, exponent and 0x/0o/0b
// integer forms are accepted. A blank value means "absent" and yields
// nil. NaN and infinities are rejected.
func parseAge(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var age float64
	if n, ok := parsePrefixedInt(s); ok {
		age = float64(n)
	} else {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errAgeNotNumber
		}
		age = f
	}

	if math.IsNaN(age) || math.IsInf(age, 0) {
		return nil, errAgeNotNumber
	}
	return &age, nil
}

// parsePrefixedInt handles 0x, 0o and 0b literals, which ParseFloat
// does not take without a binary exponent.
func parsePrefixedInt(s string) (int64, bool) {
	if len(s) < 3 || s[0] != '0' || strings.Contains(s, "_") {
		return 0, false
	}
	switch s[1] {
	case 'x', 'X', 'o', 'O', 'b', 'B':
	default:
		return 0, false
	}
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// updateBody is the raw PUT payload. Each value is kept undecoded so it
// can be coerced individually: a string age is read as a number and a
// non-string gender or email keeps its literal JSON text.
type updateBody struct {
	Age    json.RawMessage `json:"age"`
	Gender json.RawMessage `json:"gender"`
	Email  json.RawMessage `json:"email"`
}

// decodeUpdate reads the PUT body into the fields that replace the
// stored user. An empty body replaces every field with "absent".
func decodeUpdate(r io.Reader) (types.UserFields, error) {
	var body updateBody
	if err := json.NewDecoder(r).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return types.UserFields{}, err
	}

	var (
		fields types.UserFields
		err    error
	)
	if fields.Age, err = coerceAge(body.Age); err != nil {
		return types.UserFields{}, err
	}
	if fields.Gender, err = coerceString("gender", body.Gender); err != nil {
		return types.UserFields{}, err
	}
	if fields.Email, err = coerceString("email", body.Email); err != nil {
		return types.UserFields{}, err
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func coerceAge(raw json.RawMessage) (*float64, error) {
	if isNull(raw) {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case float64:
		return &v, nil
	case string:
		return parseAge(v)
	default:
		return nil, errAgeNotNumber
	}
}

func coerceString(field string, raw json.RawMessage) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case string:
		return &v, nil
	case float64, bool:
		s := string(raw)
		return &s, nil
	default:
		return nil, fmt.Errorf("field %s must be a string", field)
	}
}
