package config

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorInstance *validator.Validate
	validatorOnce     sync.Once
)

// validate returns the shared validator with the `configured` rule registered.
func validate() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("configured", isConfigured)
		validatorInstance = v
	})
	return validatorInstance
}

// isConfigured rejects empty strings and the placeholders from the example .env.
func isConfigured(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return false
	}
	return !strings.Contains(s, UserIDPlaceholder) && !strings.Contains(s, SQLitePathPlaceholder)
}
