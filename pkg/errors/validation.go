package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// Formats accepted by the exporters.
var Formats = []string{"svg", "dot", "graphviz", "png", "pdf", "json"}

var (
	mapIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// ValidateMapID validates a map identifier taken from a URL or flag.
// Ids are uuids or simple slugs; anything that could escape a file path or
// a query is rejected.
func ValidateMapID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidMapID, "map id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidMapID, "map id too long (max 128 characters)")
	}
	if !mapIDPattern.MatchString(id) {
		return New(ErrCodeInvalidMapID, "map id contains invalid characters: %q", id)
	}
	return nil
}

// ValidateSlug validates a product view slug: lowercase words separated by
// single dashes.
func ValidateSlug(slug string) error {
	if slug == "" {
		return New(ErrCodeInvalidSlug, "view slug cannot be empty")
	}
	if len(slug) > 128 {
		return New(ErrCodeInvalidSlug, "view slug too long (max 128 characters)")
	}
	if !slugPattern.MatchString(slug) {
		return New(ErrCodeInvalidSlug, "invalid view slug: %q", slug)
	}
	return nil
}

// ValidateFilename validates an export filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidFilename, "filename cannot be empty")
	}
	if len(filename) > 255 {
		return New(ErrCodeInvalidFilename, "filename too long (max 255 characters)")
	}
	for _, r := range filename {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidFilename, "filename contains invalid control characters")
		}
	}
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidFilename, "filename cannot contain path separators")
	}
	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidFilename, "filename cannot be a hidden file")
	}
	return nil
}

// ValidateFormat validates an export format name.
func ValidateFormat(format string) error {
	f := strings.ToLower(strings.TrimSpace(format))
	for _, ok := range Formats {
		if f == ok {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(Formats, ", "))
}
