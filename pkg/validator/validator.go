package validator

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MessageTag is the struct tag holding the client-facing message of a field.
// A "%v" verb in the message is replaced with the received value.
const MessageTag = "msg"

var indianPhone = regexp.MustCompile(`^(\+91[\-\s]?)?[6-9]\d{9}$`)

// Validator validates request structs and returns one message per failed field.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Registration of built-in-named tags cannot fail; panics only on programmer error.
	mustRegister(v, "indian_phone", func(fl validator.FieldLevel) bool {
		return indianPhone.MatchString(fl.Field().String())
	})
	mustRegister(v, "intrange", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
		if err != nil {
			return false
		}
		return inRange(float64(n), fl.Param())
	})
	mustRegister(v, "decrange", func(fl validator.FieldLevel) bool {
		f, err := strconv.ParseFloat(strings.TrimSpace(fl.Field().String()), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
		return inRange(f, fl.Param())
	})

	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// inRange checks n against a "lo" or "lo hi" parameter.
func inRange(n float64, param string) bool {
	bounds := strings.Fields(param)
	if len(bounds) == 0 {
		return true
	}
	lo, err := strconv.ParseFloat(bounds[0], 64)
	if err != nil || n < lo {
		return false
	}
	if len(bounds) > 1 {
		hi, err := strconv.ParseFloat(bounds[1], 64)
		if err != nil || n > hi {
			return false
		}
	}
	return true
}

// Struct validates s and returns the messages of every failed field in
// declaration order, or nil when s is valid.
func (v *Validator) Struct(s interface{}) []string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	t := reflect.TypeOf(s)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, message(t, fe))
	}
	return messages
}

func message(t reflect.Type, fe validator.FieldError) string {
	if sf, ok := t.FieldByName(fe.StructField()); ok {
		if msg := sf.Tag.Get(MessageTag); msg != "" {
			if strings.Contains(msg, "%v") {
				return fmt.Sprintf(msg, fe.Value())
			}
			return msg
		}
	}
	return fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
}
