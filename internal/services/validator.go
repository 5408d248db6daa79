package services

import (
	"github.com/asaskevich/govalidator"
)

type Validator struct {
	Errors map[string]interface{}
}

func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]interface{})}
}

func (v *Validator) HasErrors() bool {
	return len(v.Errors) > 0
}

// Check records message under key when ok is false. The first failure of a key wins.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// CheckID validates a required record identifier.
func (v *Validator) CheckID(id, key string) {
	if id == "" {
		v.AddError(key, key+" is required")
		return
	}
	v.Check(govalidator.IsUUID(id), key, key+" must be a valid UUID")
}

// ValidationError returns the collected failures as a lease error, or nil when there are none.
func (v *Validator) ValidationError(message string) error {
	if !v.HasErrors() {
		return nil
	}
	return NewValidationError(message, v.Errors)
}
