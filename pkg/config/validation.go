package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/fshare/internal/bytesize"
	"github.com/marmos91/fshare/internal/protocol/security"
	"github.com/marmos91/fshare/pkg/adapter/fshare"
)

// MaxFrameSizeLimit is the largest accepted server.max_frame_size.
const MaxFrameSizeLimit = 64 * bytesize.MiB

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their configuration key rather than the Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.Split(f.Tag.Get("mapstructure"), ",")[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct tags and the constraints that span fields.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	var errs []error

	if cfg.Server.MaxFrameSize < fshare.DefaultDownloadChunkSize {
		errs = append(errs, fmt.Errorf("server.max_frame_size: must be at least %d bytes, got %s",
			fshare.DefaultDownloadChunkSize, cfg.Server.MaxFrameSize))
	}
	if cfg.Server.MaxFrameSize > MaxFrameSizeLimit {
		errs = append(errs, fmt.Errorf("server.max_frame_size: must not exceed %s, got %s",
			MaxFrameSizeLimit, cfg.Server.MaxFrameSize))
	}

	if cfg.Auth.PasswordHash != "" {
		if _, err := security.NewBcryptCredential(cfg.Auth.PasswordHash); err != nil {
			errs = append(errs, fmt.Errorf("auth.password_hash: %w", err))
		}
	}

	if cfg.API.IsEnabled() && cfg.API.Port == cfg.Server.Port {
		errs = append(errs, fmt.Errorf("api.port: %d is already used by server.port", cfg.API.Port))
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Port != 0 && cfg.Metrics.Port == cfg.Server.Port {
		errs = append(errs, fmt.Errorf("metrics.port: %d is already used by server.port", cfg.Metrics.Port))
	}

	return errors.Join(errs...)
}

// formatValidationErrors renders validator errors as "key: rule" lines.
func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (value: %v)", key, rule, fe.Value()))
	}
	return errors.New(strings.Join(msgs, "\n"))
}
