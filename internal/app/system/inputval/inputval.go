// Package inputval validates decoded request bodies with waffle/pantry/validate
// and turns rule failures into messages fit for API clients.
//
//	type contactInput struct {
//	    Email string `json:"email" validate:"required,email,max=254" label:"Email"`
//	    Phone string `json:"phone" validate:"phone" label:"Phone"`
//	}
//
//	if res := inputval.Validate(in); res.HasErrors() {
//	    return apperr.NewValidation(res.First())
//	}
package inputval

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// Result collects the failures for one struct.
type Result struct {
	Errors []FieldError
}

func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// customRule is a string predicate registered under name, with the
// message suffix appended to the field label on failure.
type customRule struct {
	name    string
	check   func(string) bool
	message string
}

var customRules = []customRule{
	{"sectionid", IsValidSectionID, " may only contain letters, digits, '-' and '_'."},
	// An empty phone passes; pair with "required" when it is mandatory.
	{"phone", func(s string) bool { return s == "" || IsValidPhone(s) }, " must be a valid phone number."},
	{"poststatus", models.IsValidPostStatus, " must be draft or published."},
}

var (
	validatorOnce sync.Once
	validator     *validate.Validator
)

func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		validator = validate.New(validate.WithStopOnFirstError())
		for _, cr := range customRules {
			check := cr.check
			validator.RegisterRuleFunc(cr.name, func(value any) bool {
				s, ok := value.(string)
				return ok && check(s)
			}, cr.name)
		}
	})
	return validator
}

// Validate checks s (a struct or pointer to one) against its validate tags.
// Field names in messages come from the "label" tag.
//
// Built-in rules: required, email, oneof, min, max.
// Custom rules: sectionid, phone, poststatus.
func Validate(s any) *Result {
	res := &Result{}
	err := getValidator().Struct(s)
	if err == nil {
		return res
	}
	errs, ok := err.(validate.Errors)
	if !ok {
		return res
	}

	labels := fieldLabels(s)
	for _, e := range errs {
		label := labels[e.Field]
		if label == "" {
			label = e.Field
		}
		res.Errors = append(res.Errors, FieldError{
			Field:   e.Field,
			Label:   label,
			Message: message(label, e.Rule, e.Param),
		})
	}
	return res
}

// fieldLabels maps both the Go field name and the json name to the label tag.
func fieldLabels(s any) map[string]string {
	labels := map[string]string{}
	t := reflect.TypeOf(s)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return labels
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		label := f.Tag.Get("label")
		if label == "" {
			continue
		}
		labels[f.Name] = label
		if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
			labels[name] = label
		}
	}
	return labels
}

func message(label, rule, param string) string {
	switch rule {
	case "required":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min":
		return label + " must be at least " + param + " characters."
	case "max":
		return label + " must be at most " + param + " characters."
	}
	for _, cr := range customRules {
		if cr.name == rule {
			return label + cr.message
		}
	}
	return label + " is invalid."
}

var (
	sectionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)
	phonePattern     = regexp.MustCompile(`^\+?[0-9 ().-]{7,25}$`)
)

// IsValidSectionID reports whether s is usable as a section identifier.
func IsValidSectionID(s string) bool {
	return sectionIDPattern.MatchString(s)
}

// IsValidPhone accepts 7 to 20 digits with common separators.
func IsValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	if !phonePattern.MatchString(s) {
		return false
	}
	digits := 0
	for _, c := range s {
		if c >= '0' && c <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 20
}
