package validators

import (
	"regexp"
	"strings"
	"time"
)

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{5,18}[0-9]$`)
	hmRe    = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

const (
	CodeRequired = "required"
	CodeInvalid  = "invalid_format"
	CodeNegative = "negative_value"
	CodeNotIn    = "not_allowed"
)

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors collects field problems for one form submission.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Code)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e *Errors) add(code, field, msg string) {
	*e = append(*e, FieldError{Code: code, Field: field, Message: msg})
}

func (e *Errors) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.add(CodeRequired, field, "Campo obrigatório.")
	}
}

// Email validates only when a value was given; pair with Required when
// the field is mandatory.
func (e *Errors) Email(field, value string) {
	if value != "" && !IsEmail(value) {
		e.add(CodeInvalid, field, "E-mail inválido.")
	}
}

func (e *Errors) Phone(field, value string) {
	if value != "" && !IsPhone(value) {
		e.add(CodeInvalid, field, "Telefone inválido.")
	}
}

func (e *Errors) HourMinute(field, value string) {
	if value != "" && !hmRe.MatchString(value) {
		e.add(CodeInvalid, field, "Horário deve estar no formato HH:MM.")
	}
}

func (e *Errors) Date(field, value string) {
	if value == "" {
		return
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		e.add(CodeInvalid, field, "Data deve estar no formato AAAA-MM-DD.")
	}
}

func (e *Errors) NonNegative(field string, v *float64) {
	if v != nil && *v < 0 {
		e.add(CodeNegative, field, "Valor não pode ser negativo.")
	}
}

func (e *Errors) NonNegativeInt(field string, v int) {
	if v < 0 {
		e.add(CodeNegative, field, "Valor não pode ser negativo.")
	}
}

func (e *Errors) OneOf(field, value string, allowed ...string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	e.add(CodeNotIn, field, "Valor não permitido: "+strings.Join(allowed, ", ")+".")
}

func IsEmail(s string) bool {
	return emailRe.MatchString(s)
}

func IsPhone(s string) bool {
	return phoneRe.MatchString(strings.TrimSpace(s))
}
