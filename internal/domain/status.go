package domain

import "strings"

type Status string

func (s Status) String() string {
	return string(s)
}

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusArchived Status = "archived"
)

var Statuses = []Status{
	StatusActive,
	StatusInactive,
	StatusArchived,
}

// IsValid reports whether s is one of the known statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusArchived:
		return true
	default:
		return false
	}
}

// StatusFilter is a Status or StatusAll
type StatusFilter string

const StatusAll StatusFilter = "all"

// ParseStatusFilter normalizes user input. Unknown values fall back to "all".
func ParseStatusFilter(value string) StatusFilter {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	if s.IsValid() {
		return StatusFilter(s)
	}
	return StatusAll
}

// Matches reports whether a node with status s passes the filter
func (f StatusFilter) Matches(s Status) bool {
	if f == StatusAll || !Status(f).IsValid() {
		return true
	}
	return Status(f) == s
}
