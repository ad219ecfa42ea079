package catalog

import (
	"fmt"
	"strings"
)

// Status is the upstream airing status of a series.
type Status string

const (
	StatusReleasing      Status = "RELEASING"
	StatusFinished       Status = "FINISHED"
	StatusNotYetReleased Status = "NOT_YET_RELEASED"
	StatusCancelled      Status = "CANCELLED"
	StatusHiatus         Status = "HIATUS"
)

var allStatuses = []Status{
	StatusReleasing,
	StatusFinished,
	StatusNotYetReleased,
	StatusCancelled,
	StatusHiatus,
}

// AllStatuses returns every known status in display order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a string into a Status.
func ParseStatus(value string) (Status, error) {
	normalized := Status(strings.ToUpper(strings.TrimSpace(value)))
	for _, s := range allStatuses {
		if s == normalized {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown series status %q", value)
}

// IsReleasing reports whether the series is currently airing.
func (s Status) IsReleasing() bool {
	return s == StatusReleasing
}
