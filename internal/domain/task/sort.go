package task

import (
	"strings"

	"github.com/geocoder89/taskhub/internal/apperr"
)

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortDueDate   SortField = "dueDate"
	SortPriority  SortField = "priority"
	SortStatus    SortField = "status"
	SortTitle     SortField = "title"
)

const DefaultSort = "-createdAt"

var ErrInvalidSort = apperr.Validation("invalid_sort", "sort must be one of createdAt, updatedAt, dueDate, priority, status, title (prefix with - for descending)")

type Sort struct {
	Field SortField
	Desc  bool
}

// ParseSort accepts "field" or "-field". Empty means DefaultSort.
func ParseSort(raw string) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = DefaultSort
	}

	s := Sort{}
	if strings.HasPrefix(raw, "-") {
		s.Desc = true
		raw = raw[1:]
	}

	switch f := SortField(raw); f {
	case SortCreatedAt, SortUpdatedAt, SortDueDate, SortPriority, SortStatus, SortTitle:
		s.Field = f
	default:
		return Sort{}, ErrInvalidSort
	}

	return s, nil
}

func (s Sort) String() string {
	if s.Desc {
		return "-" + string(s.Field)
	}
	return string(s.Field)
}
