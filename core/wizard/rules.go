package wizard

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tutordesk/core"
)

type RuleKind int

const (
	KindText RuleKind = iota
	KindSet
	KindNumber
	KindCheck
)

// Rule is one check of a step. Text, set and number rules run a validator tag against the field value;
// check rules run a custom predicate over all the fields.
type Rule struct {
	Field   string
	Label   string
	Kind    RuleKind
	Tag     string
	Message string
	When    func(Fields) bool // rule only applies when true
	Check   func(Fields) bool
}

func Text(field, label, tag string) Rule {
	return Rule{Field: field, Label: label, Kind: KindText, Tag: tag}
}

func Set(field, label, tag string) Rule {
	return Rule{Field: field, Label: label, Kind: KindSet, Tag: tag}
}

func Number(field, label, tag string) Rule {
	return Rule{Field: field, Label: label, Kind: KindNumber, Tag: tag}
}

func Check(field, message string, check func(Fields) bool) Rule {
	return Rule{Field: field, Kind: KindCheck, Message: message, Check: check}
}

func (r Rule) WithMessage(message string) Rule {
	r.Message = message
	return r
}

func (r Rule) If(cond func(Fields) bool) Rule {
	r.When = cond
	return r
}

// Step is one page of a wizard.
type Step struct {
	ID    string
	Title string
	Rules []Rule
}

// Validator checks a step's rules against the fields.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator(validate *validator.Validate, translator ut.Translator) *Validator {
	return &Validator{validate: validate, translator: translator}
}

// Validate returns the error of the first failing rule of step, or nil.
// It has no side effects.
func (v *Validator) Validate(step Step, fields Fields) []core.FieldError {
	for _, rule := range step.Rules {
		if msg, ok := v.check(rule, fields); !ok {
			return []core.FieldError{{Field: rule.Field, Error: msg}}
		}
	}
	return nil
}

// ValidateAll validates the steps in order and stops at the first failing one.
func (v *Validator) ValidateAll(steps []Step, fields Fields) []core.FieldError {
	for _, step := range steps {
		if errs := v.Validate(step, fields); len(errs) > 0 {
			return errs
		}
	}
	return nil
}

func (v *Validator) check(rule Rule, fields Fields) (string, bool) {
	if rule.When != nil && !rule.When(fields) {
		return "", true
	}

	var value interface{}
	switch rule.Kind {
	case KindCheck:
		if rule.Check(fields) {
			return "", true
		}
		return rule.Message, false
	case KindSet:
		value = fields.Strings(rule.Field)
	case KindNumber:
		n, ok := fields.Number(rule.Field)
		if !ok {
			return v.message(rule, rule.Label+" must be a number"), false
		}
		value = n
	default:
		value = core.CleanString(fields.String(rule.Field))
	}

	err := v.validate.Var(value, rule.Tag)
	if err == nil {
		return "", true
	}
	if vErrs, ok := err.(validator.ValidationErrors); ok && len(vErrs) > 0 {
		// Var errors carry no field name; the label leads the translation.
		return v.message(rule, rule.Label+vErrs[0].Translate(v.translator)), false
	}
	return v.message(rule, rule.Label+" is invalid"), false
}

func (v *Validator) message(rule Rule, fallback string) string {
	if rule.Message != "" {
		return rule.Message
	}
	return fallback
}
