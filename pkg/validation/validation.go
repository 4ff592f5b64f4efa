package validation

import (
	"math"
	"sort"
	"strings"

	"github.com/bitechdev/furniture-admin/pkg/common"
	"github.com/bitechdev/furniture-admin/pkg/registry"
	"github.com/go-playground/validator/v10"
)

// Options controls how a schema is turned into a validator.
type Options struct {
	// Partial makes every field optional. Used for updates, where omitted
	// fields are left untouched.
	Partial bool
}

// tagsByType holds the validator rules applied to a present value of each
// declared type, after its Go type has been checked.
var tagsByType = map[registry.DataType]string{
	registry.TypeString: "min=1",
	registry.TypeNumber: "finite",
	registry.TypeDate:   "",
}

type fieldRule struct {
	name      string
	fieldType registry.DataType
	required  bool
	tag       string
}

// Validator checks a normalized payload against a table schema. It never
// sees raw input: run payload.Normalize first.
type Validator struct {
	rules    []fieldRule
	validate *validator.Validate
}

// Build produces a validator for schema. Rules are ordered by field name so
// error messages are stable.
func Build(schema map[string]registry.FieldSchema, opts Options) *Validator {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	v := &Validator{
		rules:    make([]fieldRule, 0, len(names)),
		validate: newValidate(),
	}
	for _, name := range names {
		field := schema[name]
		v.rules = append(v.rules, fieldRule{
			name:      name,
			fieldType: field.Type,
			required:  field.Required && !opts.Partial,
			tag:       tagsByType[field.Type],
		})
	}
	return v
}

// Validate returns a *common.ValidationError naming every missing or
// invalid field, or nil.
func (v *Validator) Validate(payload map[string]interface{}) error {
	var missing, invalid []string

	for _, rule := range v.rules {
		value, ok := payload[rule.name]
		if !ok {
			if rule.required {
				missing = append(missing, rule.name)
			}
			continue
		}
		if !v.checkValue(rule, value) {
			invalid = append(invalid, rule.name)
		}
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(invalid, ", "))
	}

	fields := append(append([]string{}, missing...), invalid...)
	sort.Strings(fields)
	return &common.ValidationError{
		Fields:  fields,
		Message: strings.Join(parts, "; "),
	}
}

func (v *Validator) checkValue(rule fieldRule, value interface{}) bool {
	switch rule.fieldType {
	case registry.TypeNumber:
		f, ok := value.(float64)
		if !ok {
			return false
		}
		return v.validate.Var(f, rule.tag) == nil
	case registry.TypeString, registry.TypeDate:
		s, ok := value.(string)
		if !ok {
			return false
		}
		if rule.tag == "" {
			return true
		}
		return v.validate.Var(s, rule.tag) == nil
	default:
		return true
	}
}

func newValidate() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return validate
}
