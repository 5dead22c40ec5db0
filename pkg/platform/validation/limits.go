package validation

import dErrors "entangledu/pkg/domain-errors"

// Mint request field limits. The issuer signs whatever title it is given, so
// these bound what ends up in the append-only log.
const (
	MaxRecipientLength   = 256
	MaxLessonIDLength    = 64
	MaxLessonTitleLength = 256
)

// CheckRequired rejects a blank field.
func CheckRequired(fieldName, value string) error {
	if value == "" {
		return dErrors.New(dErrors.CodeInvalidRequest, fieldName+" is required")
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length in bytes.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.Newf(dErrors.CodeInvalidRequest, "%s exceeds max length of %d", fieldName, max)
	}
	return nil
}

// Field pairs a name with a value and its limit for CheckFields.
type Field struct {
	Name     string
	Value    string
	Max      int
	Required bool
}

// CheckFields returns the first violation among fields, in order.
func CheckFields(fields ...Field) error {
	for _, f := range fields {
		if f.Required {
			if err := CheckRequired(f.Name, f.Value); err != nil {
				return err
			}
		}
		if err := CheckStringLength(f.Name, f.Value, f.Max); err != nil {
			return err
		}
	}
	return nil
}
