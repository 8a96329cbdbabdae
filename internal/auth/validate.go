package auth

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
	msgNullChar = "Null characters are not allowed."

	maxUsernameLength = 150
	maxNameLength     = 150
)

func requireNonBlank(v *errs.ValidationError, field string, value *string) {
	if value == nil {
		v.Add(field, msgRequired)
		return
	}
	if strings.TrimSpace(*value) == "" {
		v.Add(field, msgBlank)
		return
	}
	rejectNullChars(v, field, *value)
}

// rejectNullChars records an error when value holds a NUL byte and reports
// whether it did.
func rejectNullChars(v *errs.ValidationError, field, value string) bool {
	if strings.ContainsRune(value, 0) {
		v.Add(field, msgNullChar)
		return true
	}
	return false
}

func validateUsername(v *errs.ValidationError, username *string) {
	requireNonBlank(v, "username", username)
	if v.Has("username") {
		return
	}

	if utf8.RuneCountInString(*username) > maxUsernameLength {
		v.Add("username", fmt.Sprintf("Ensure this field has no more than %d characters.", maxUsernameLength))
	}
	for _, r := range *username {
		if !usernameRune(r) {
			v.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
			break
		}
	}
}

func usernameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case strings.ContainsRune("@.+-_", r):
		return true
	}
	return false
}

// validateName checks a person-name field. Optional names may be absent or empty.
func validateName(v *errs.ValidationError, field string, value *string, required bool) {
	if required {
		requireNonBlank(v, field, value)
		if v.Has(field) {
			return
		}
	}
	if value == nil {
		return
	}
	if !required && rejectNullChars(v, field, *value) {
		return
	}
	if required && utf8.RuneCountInString(*value) > maxNameLength {
		v.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}
}

func (s *Service) validateEmail(v *errs.ValidationError, email *string) {
	if email == nil || *email == "" {
		return
	}
	if rejectNullChars(v, "email", *email) {
		return
	}
	if err := s.validate.Var(*email, "email"); err != nil {
		v.Add("email", "Enter a valid email address.")
	}
}
