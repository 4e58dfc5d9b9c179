package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxNameLength bounds first and last names.
const MaxNameLength = 100

// MaxPageLimit caps the page size accepted by list endpoints.
const MaxPageLimit = 500

// ValidateName validates a member name field.
//
// The validation rules are intentionally conservative:
//   - No empty (or whitespace-only) names
//   - No control characters
//   - Maximum length of MaxNameLength characters
func ValidateName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidRequest, "%s cannot be empty", field)
	}

	if len([]rune(name)) > MaxNameLength {
		return New(ErrCodeInvalidRequest, "%s too long (max %d characters)", field, MaxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRequest, "%s contains invalid control characters", field)
		}
	}

	return nil
}

// relationCodeRegex matches relation codes such as SPOUSE or STEP_FATHER.
var relationCodeRegex = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ValidateRelationCode validates a relation master code.
// Codes are upper-case symbolic keys of at most 32 characters.
func ValidateRelationCode(code string) error {
	if code == "" {
		return New(ErrCodeInvalidRequest, "relation code cannot be empty")
	}
	if len(code) > 32 {
		return New(ErrCodeInvalidRequest, "relation code too long (max 32 characters)")
	}
	if !relationCodeRegex.MatchString(code) {
		return New(ErrCodeInvalidRequest, "invalid relation code: %q", code)
	}
	return nil
}

// ValidatePage checks 1-based pagination parameters.
func ValidatePage(page, limit int) error {
	if page < 1 {
		return New(ErrCodeInvalidRequest, "page must be >= 1, got %d", page)
	}
	if limit < 1 || limit > MaxPageLimit {
		return New(ErrCodeInvalidRequest, "limit must be between 1 and %d, got %d", MaxPageLimit, limit)
	}
	return nil
}
