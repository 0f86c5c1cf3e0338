package notify

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"DriverOnboard/pkg/errors"
)

type serverErr struct{ msg string }

func (e serverErr) Error() string { return "status 400: " + e.msg }
func (e serverErr) UserMessage() string { return e.msg }

func TestErrorRoutesConfigErrorsToAlert(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder()

	Error(ctx, rec, fmt.Errorf("submit: %w", errors.BackendURLMissing))
	Error(ctx, rec, errors.PhoneNumberMissing)
	Error(ctx, rec, fmt.Errorf("reconcile: %w", errors.NetworkUnavailable))

	assert.Equal(t, []string{
		"Error: Backend URL not configured",
		"Error: Phone number not found",
	}, rec.Alerts)
	assert.Equal(t, []string{"Network unavailable"}, rec.Toasts)
}

func TestMessage(t *testing.T) {
	fe := errors.NewFieldError(errors.ValidationFailed, "", "firstName")
	assert.Equal(t, "Please fill all required fields: firstName", Message(fe))
	assert.Equal(t, "Invalid account", Message(fmt.Errorf("bank: %w", serverErr{"Invalid account"})))
	assert.Equal(t, "boom", Message(fmt.Errorf("boom")))
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.Toast(context.Background(), "Saved")
	w.Alert(context.Background(), "Error", "Backend URL not configured")

	assert.Equal(t, "! Saved\n[Error] Backend URL not configured\n", buf.String())
}
