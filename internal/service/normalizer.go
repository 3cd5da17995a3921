package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// ErrInvalidFilter is returned for an unrecognised map filter.
var ErrInvalidFilter = errors.New("invalid bin filter")

// ParseBinFilter accepts All, Battery or Mobile in any case. Empty means All.
func ParseBinFilter(raw string) (BinFilter, error) {
	value := strings.ToLower(sanitizeString(raw))
	switch value {
	case "", "all":
		return FilterAll, nil
	case "battery":
		return FilterBattery, nil
	case "mobile":
		return FilterMobile, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, raw)
	}
}

// normalizeBinID trims the id and maps blank input to nil.
func normalizeBinID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := sanitizeString(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}
