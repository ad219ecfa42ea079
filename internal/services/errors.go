package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransientFetch   = errors.New("transient fetch error")
	ErrUpstreamData     = errors.New("upstream data error")
	ErrRecordConversion = errors.New("record conversion error")
	ErrStoreRead        = errors.New("store read error")
	ErrStoreWrite       = errors.New("store write error")
	ErrBatchCommit      = errors.New("batch commit error")
	ErrConfiguration    = errors.New("configuration error")
	ErrValidation       = errors.New("validation error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransientFetch
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must fail the whole run. Everything else is
// recovered locally and folded into the run summary.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrUpstreamData), errors.Is(err, ErrBatchCommit),
		errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return true
	default:
		return false
	}
}

// Kind returns the taxonomy label for err, suitable for structured logs and
// summaries. Unclassified errors report "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTransientFetch):
		return "transient_fetch"
	case errors.Is(err, ErrUpstreamData):
		return "upstream_data"
	case errors.Is(err, ErrRecordConversion):
		return "record_conversion"
	case errors.Is(err, ErrStoreRead):
		return "store_read"
	case errors.Is(err, ErrStoreWrite):
		return "store_write"
	case errors.Is(err, ErrBatchCommit):
		return "batch_commit"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
