package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nadi-pro/browser/pkg/config"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "with field",
			err:  &ConfigError{Field: "server.listen_address", Message: "value is required"},
			want: "config error in server.listen_address: value is required",
		},
		{
			name: "without field",
			err:  &ConfigError{Message: "file not found"},
			want: "config error: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := NewCommandError("serve", underlyingErr)

	if got, want := err.Error(), "command serve failed: underlying error"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, underlyingErr) {
		t.Error("errors.Is() should work with CommandError.Unwrap()")
	}
}

func TestConfigErrors(t *testing.T) {
	verr := config.ValidationError{Errors: []config.FieldError{
		{Field: "sampling.rate", Message: "must be at most 1"},
		{Field: "privacy.strategy", Message: "invalid value"},
	}}

	t.Run("validation error", func(t *testing.T) {
		got := ConfigErrors(fmt.Errorf("load: %w", verr))
		if len(got) != 2 {
			t.Fatalf("got %d errors, want 2", len(got))
		}
		if got[0].Field != "sampling.rate" || got[1].Field != "privacy.strategy" {
			t.Errorf("fields = %q, %q", got[0].Field, got[1].Field)
		}
	})

	t.Run("plain error", func(t *testing.T) {
		got := ConfigErrors(errors.New("boom"))
		if len(got) != 1 || got[0].Field != "" || got[0].Message != "boom" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("nil", func(t *testing.T) {
		if got := ConfigErrors(nil); got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "config error", err: NewConfigError("", "bad"), want: ExitConfig},
		{name: "wrapped validation", err: fmt.Errorf("x: %w", config.ValidationError{}), want: ExitConfig},
		{name: "command error", err: NewCommandError("serve", errors.New("bind")), want: ExitFailure},
		{name: "command wrapping config", err: NewCommandError("serve", NewConfigError("a", "b")), want: ExitConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
