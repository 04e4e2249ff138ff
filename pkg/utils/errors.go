package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrConfigValidation = errors.New("configuration validation error")
	ErrScan             = errors.New("scan error")        // A single entry could not be read during discovery
	ErrGeneration       = errors.New("generation error")  // Sitemap rendering failed for a pass
	ErrCompression      = errors.New("compression error") // Wraps gzip errors, one document at a time
	ErrFilesystem       = errors.New("filesystem error")  // Wraps os errors
	ErrEmit             = errors.New("failed to emit artifact")
	ErrParsing          = errors.New("parsing error") // Wraps HTML/URL/XML parsing errors
)

// WrapErrorf wraps err with a formatted context message. Returns nil for a nil err.
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// CategorizeError maps an error to a predefined category string for logging/metrics.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	case errors.Is(err, ErrCompression):
		return "Output_Compression"
	case errors.Is(err, ErrEmit):
		if errors.Is(err, os.ErrPermission) {
			return "Output_Permission"
		}
		return "Output_Emit"
	case errors.Is(err, ErrScan):
		if errors.Is(err, os.ErrPermission) {
			return "Scan_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Scan_NotExist"
		}
		return "Scan_Other"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "URL") {
			return "Content_ParsingURL"
		}
		if strings.Contains(errMsg, "HTML") {
			return "Content_ParsingHTML"
		}
		if strings.Contains(errMsg, "XML") {
			return "Content_ParsingXML"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrGeneration):
		return "Generation_Failed"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		if errors.Is(err, os.ErrExist) {
			return "Filesystem_Exist"
		}
		return "Filesystem_Other"
	}

	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}
	if errors.Is(err, os.ErrPermission) {
		return "Filesystem_Permission"
	}

	return "Unknown"
}
