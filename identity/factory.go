package identity

import (
	"fmt"

	"filevault/config"
)

// NewValidator builds the validator selected by cfg.Mode.
func NewValidator(cfg config.Auth) (Validator, error) {
	switch cfg.Mode {
	case config.AuthModeRemote:
		return NewRemoteValidator(cfg.URL, cfg.Timeout), nil
	case config.AuthModeJWT:
		return NewJWTValidator(cfg.JWTSecret), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}
