package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/user/logging-api/internal/domain"
)

// EntryValidator enforces structural and semantic correctness of a submitted
// log entry. It always returns the complete, ordered list of failures rather
// than stopping at the first one. The strict profile additionally requires
// request timing and non-empty request headers.
type EntryValidator struct {
	strict   bool
	validate *validator.Validate
}

// NewEntryValidator builds a validator for the given profile.
func NewEntryValidator(strict bool) *EntryValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report failures under the external JSON field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// required/oneof treat whitespace and case the wrong way for this contract,
	// so both rules are registered explicitly.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		level := fl.Field().String()
		for _, want := range domain.Levels {
			if strings.EqualFold(level, want) {
				return true
			}
		}
		return false
	})

	return &EntryValidator{strict: strict, validate: v}
}

// Validate returns every rule failure for the entry, in field order. An empty
// result means the entry is valid. A nil entry is itself a single failure and
// short-circuits all further checks.
func (ev *EntryValidator) Validate(entry *domain.LogEntry) []string {
	if entry == nil {
		return []string{"log entry is required"}
	}

	var failures []string

	if err := ev.validate.Struct(entry); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				failures = append(failures, failureMessage(fe))
			}
		} else {
			failures = append(failures, err.Error())
		}
	}

	if !entry.ResponseDateTime.IsZero() && !entry.RequestDateTime.IsZero() &&
		entry.ResponseDateTime.Before(entry.RequestDateTime) {
		failures = append(failures, "responseDateTime must not precede requestDateTime")
	}

	if ev.strict {
		if entry.RequestDateTime.IsZero() {
			failures = append(failures, "requestDateTime is required")
		}
		if len(entry.RequestHeaders) == 0 {
			failures = append(failures, "requestHeaders must contain at least one entry")
		}
	}

	return failures
}

func failureMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "timestamp":
		return "timestamp is required"
	case "level":
		return "level must be one of: " + strings.Join(domain.Levels, ", ")
	case "message":
		return "message is required and must not be blank"
	case "source":
		return "source is required and must not be blank"
	case "statusCode":
		return "statusCode must be between 100 and 599"
	case "remoteServerIp":
		return "remoteServerIp must be a valid IP address"
	}
	return fmt.Sprintf("%s failed validation on %s", fe.Field(), fe.Tag())
}
