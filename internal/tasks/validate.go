package tasks

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
	msgNullChar = "Null characters are not allowed."

	// MaxTitleLength bounds Task.Title in characters
	MaxTitleLength = 255
)

// Input carries task fields from a request body. Nil means the field was absent.
type Input struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// validateInput checks in in a fixed order: title, description, status.
// With partial set, absent fields are skipped; present ones are still checked.
func validateInput(in Input, partial bool) error {
	v := errs.NewValidationError()
	validateTitle(v, in.Title, partial)
	validateDescription(v, in.Description, partial)
	validateStatus(v, in.Status, partial)
	return v.Err()
}

func validateTitle(v *errs.ValidationError, title *string, partial bool) {
	if !present(v, "title", title, partial) {
		return
	}
	if strings.TrimSpace(*title) == "" {
		v.Add("title", msgBlank)
		return
	}
	if strings.ContainsRune(*title, 0) {
		v.Add("title", msgNullChar)
		return
	}
	if utf8.RuneCountInString(*title) > MaxTitleLength {
		v.Add("title", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxTitleLength))
	}
}

func validateDescription(v *errs.ValidationError, description *string, partial bool) {
	if !present(v, "description", description, partial) {
		return
	}
	if strings.TrimSpace(*description) == "" {
		v.Add("description", msgBlank)
		return
	}
	if strings.ContainsRune(*description, 0) {
		v.Add("description", msgNullChar)
	}
}

func validateStatus(v *errs.ValidationError, status *string, partial bool) {
	if !present(v, "status", status, partial) {
		return
	}
	if !models.TaskStatus(*status).Valid() {
		v.Add("status", fmt.Sprintf("%q is not a valid choice.", *status))
	}
}

// ParseStatusFilter validates the optional status query parameter
func ParseStatusFilter(raw string) (*models.TaskStatus, error) {
	if raw == "" {
		return nil, nil
	}
	status := models.TaskStatus(raw)
	if !status.Valid() {
		return nil, errs.FieldError("status", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", raw))
	}
	return &status, nil
}

// present reports whether the field should be validated further and records
// a required error when a mandatory field is absent.
func present(v *errs.ValidationError, field string, value *string, partial bool) bool {
	if value != nil {
		return true
	}
	if !partial {
		v.Add(field, msgRequired)
	}
	return false
}
