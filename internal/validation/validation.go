// Package validation checks request payloads before they reach a workflow.
// Every failing field is reported, in struct order, under its JSON name.
package validation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/EmpoweredVote/meal-tracker/internal/apperr"
)

const maxBodyBytes = 1 << 20

// Rules are the tunable parts of the username and password checks.
type Rules struct {
	MinPasswordLength int
	PasswordSymbols   string
}

func DefaultRules() Rules {
	return Rules{MinPasswordLength: 8, PasswordSymbols: "@$!%*#?&"}
}

type Validator struct {
	v     *validator.Validate
	rules Rules
}

func New(rules Rules) *Validator {
	if rules.MinPasswordLength < 1 {
		rules.MinPasswordLength = DefaultRules().MinPasswordLength
	}
	if rules.PasswordSymbols == "" {
		rules.PasswordSymbols = DefaultRules().PasswordSymbols
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	val := &Validator{v: v, rules: rules}
	_ = v.RegisterValidation("usernamechars", func(fl validator.FieldLevel) bool {
		return val.usernameChars(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return val.ValidPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("rfc3339", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.RFC3339, fl.Field().String())
		return err == nil
	})
	return val
}

func (v *Validator) isSymbol(r rune) bool {
	return strings.ContainsRune(v.rules.PasswordSymbols, r)
}

func (v *Validator) usernameChars(s string) bool {
	for _, r := range s {
		if !isASCIIAlnum(r) && !v.isSymbol(r) {
			return false
		}
	}
	return true
}

// ValidUsername applies the register rules: 3 to 30 characters drawn from
// ASCII letters, digits and the symbol set.
func (v *Validator) ValidUsername(s string) bool {
	n := len([]rune(s))
	return n >= 3 && n <= 30 && v.usernameChars(s)
}

// ValidPassword requires the minimum length, at least one letter, one digit
// and one symbol, and nothing outside those classes.
func (v *Validator) ValidPassword(s string) bool {
	if len([]rune(s)) < v.rules.MinPasswordLength {
		return false
	}
	var letter, digit, symbol bool
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			digit = true
		case v.isSymbol(r):
			symbol = true
		default:
			return false
		}
	}
	return letter && digit && symbol
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// Struct validates s and returns one FieldError per failing field, with
// messages in the given language. A nil result means s is valid.
func (v *Validator) Struct(s any, lang language.Tag) []apperr.FieldError {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperr.FieldError{{Message: printer(lang).Sprintf(msgInvalid, "request")}}
	}

	p := printer(lang)
	out := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperr.FieldError{Field: fe.Field(), Message: v.message(p, fe)})
	}
	return out
}

func (v *Validator) message(p *message.Printer, fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return p.Sprintf(msgRequired, field)
	case "min":
		return p.Sprintf(msgMin, field, fe.Param())
	case "max":
		return p.Sprintf(msgMax, field, fe.Param())
	case "usernamechars":
		return p.Sprintf(msgUsernameChars, field, v.rules.PasswordSymbols)
	case "password":
		return p.Sprintf(msgPassword, field, v.rules.MinPasswordLength, v.rules.PasswordSymbols)
	case "eqfield":
		return p.Sprintf(msgMismatch, field)
	case "rfc3339":
		return p.Sprintf(msgTimestamp, field)
	default:
		return p.Sprintf(msgInvalid, field)
	}
}

// Decode reads a JSON body of at most 1 MiB into dst. Unknown fields are
// ignored. Malformed input is a validation error with a body-level message.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation(apperr.FieldError{Message: printer(Locale(r)).Sprintf(msgBody)})
	}
	return nil
}

// DecodeAndValidate decodes the body into dst and validates it, localizing
// messages from the request.
func (v *Validator) DecodeAndValidate(r *http.Request, dst any) error {
	if err := Decode(r, dst); err != nil {
		return err
	}
	if fields := v.Struct(dst, Locale(r)); len(fields) > 0 {
		return apperr.Validation(fields...)
	}
	return nil
}
