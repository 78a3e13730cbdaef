package validation

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"
)

// ValidationError carries the offending field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	maxFilenameLength    = 255
)

// videoContentTypes are the upload formats the video backends accept.
var videoContentTypes = map[string]bool{
	"video/mp4":        true,
	"video/webm":       true,
	"video/quicktime":  true,
	"video/x-matroska": true,
}

// ValidateTitle checks a content title.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ValidationError{Field: "title", Message: "is required"}
	}
	if !utf8.ValidString(title) {
		return ValidationError{Field: "title", Message: "is not valid UTF-8"}
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return ValidationError{Field: "title", Message: fmt.Sprintf("must be at most %d characters", maxTitleLength)}
	}
	return nil
}

// ValidateDescription checks an optional content description.
func ValidateDescription(description string) error {
	if description == "" {
		return nil
	}
	if !utf8.ValidString(description) {
		return ValidationError{Field: "description", Message: "is not valid UTF-8"}
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return ValidationError{Field: "description", Message: fmt.Sprintf("must be at most %d characters", maxDescriptionLength)}
	}
	return nil
}

// ValidateFilename checks an upload filename. Path separators and
// traversal sequences are rejected before the name reaches a storage key.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ValidationError{Field: "filename", Message: "is required"}
	}
	if len(filename) > maxFilenameLength {
		return ValidationError{Field: "filename", Message: fmt.Sprintf("must be at most %d bytes", maxFilenameLength)}
	}
	if strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return ValidationError{Field: "filename", Message: "must not contain path separators"}
	}
	if path.Clean(filename) != filename {
		return ValidationError{Field: "filename", Message: "is not a clean file name"}
	}
	return nil
}

// ValidateVideoContentType checks that the declared upload format is one
// the video backends accept.
func ValidateVideoContentType(contentType string) error {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(normalized, ";"); i >= 0 {
		normalized = strings.TrimSpace(normalized[:i])
	}
	if !videoContentTypes[normalized] {
		return ValidationError{Field: "contentType", Message: "is not a supported video format"}
	}
	return nil
}
