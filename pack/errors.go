package pack

import (
	"errors"
	"fmt"

	"github.com/llaa33219/plakker-web-sub000/domain"
	"github.com/llaa33219/plakker-web-sub000/pack/packrepo"
	"github.com/llaa33219/plakker-web-sub000/quota"
)

var (
	ErrNotConfigured = errors.New("content verification is not configured, uploads are disabled")
	ErrNotFound      = packrepo.ErrNotFound
)

// AdmissionError is returned when the client has used up its daily quota
type AdmissionError struct {
	Admission quota.Admission
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("daily upload limit reached (%d/%d), try again tomorrow", e.Admission.CurrentCount, e.Admission.Limit)
}

// ValidationError is a client error, Validation is set when items were already classified
type ValidationError struct {
	Message    string
	Validation *domain.Validation
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
