package validator

import (
	"regexp"
	"strings"
)

var (
	// exerciseIDRegex validates exercise id format (alphanumeric, hyphens, underscores)
	exerciseIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// bodyPartRegex validates category names (letters, spaces, hyphens)
	bodyPartRegex = regexp.MustCompile(`^[a-z][a-z -]*$`)
)

// ValidateExerciseID checks if an exercise id is safe to put in a URL path
// and a cache key
func ValidateExerciseID(id string) error {
	if id == "" {
		return &ValidationError{Field: "id", Message: "Exercise id cannot be empty"}
	}
	if len(id) > 64 {
		return &ValidationError{Field: "id", Message: "Exercise id too long (max 64 characters)"}
	}
	if !exerciseIDRegex.MatchString(id) {
		return &ValidationError{Field: "id", Message: "Exercise id contains invalid characters"}
	}
	return nil
}

// NormalizeBodyPart lowercases and trims a category name
func NormalizeBodyPart(bodyPart string) string {
	return strings.ToLower(strings.TrimSpace(bodyPart))
}

// ValidateBodyPart checks a normalized category name
func ValidateBodyPart(bodyPart string) error {
	if bodyPart == "" {
		return &ValidationError{Field: "bodyPart", Message: "Body part cannot be empty"}
	}
	if len(bodyPart) > 32 {
		return &ValidationError{Field: "bodyPart", Message: "Body part too long (max 32 characters)"}
	}
	if !bodyPartRegex.MatchString(bodyPart) {
		return &ValidationError{Field: "bodyPart", Message: "Body part contains invalid characters"}
	}
	return nil
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
