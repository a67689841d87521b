package monitor

import (
	"errors"
	"fmt"
	"strings"

	"komonitor/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that knows the monitor frequency enum.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		return Frequency(fl.Field().Int()).Valid()
	})
	return v
}

// ValidateBatch validates every monitor on its own. It returns the monitors
// that passed, in order, and an InvalidInput error describing the rejected
// ones. One bad monitor never rejects its siblings.
func ValidateBatch(v *validator.Validate, batch []Monitor) ([]Monitor, error) {
	const op string = "service.monitor.validate_batch"

	valid := make([]Monitor, 0, len(batch))
	var sb strings.Builder
	for i := range batch {
		err := v.Struct(batch[i])
		if err == nil {
			valid = append(valid, batch[i])
			continue
		}
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return nil, apperror.New(apperror.Internal, op, err)
		}
		for _, fe := range ve {
			fmt.Fprintf(&sb, "monitor[%d] (%s): field '%s' failed on '%s'\n", i, batch[i].ID, fe.Namespace(), fe.Tag())
		}
	}

	if sb.Len() == 0 {
		return valid, nil
	}
	return valid, &apperror.Error{
		Kind:    apperror.InvalidInput,
		Op:      op,
		Message: strings.TrimSpace(sb.String()),
	}
}
