package utils

import (
	"math"
	"strconv"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100

	// MaxPageNumber keeps (Number-1)*Limit from overflowing.
	MaxPageNumber = math.MaxInt / MaxPageLimit
)

type Page struct {
	Number int
	Limit  int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// ParsePage reads 1-based page and limit query values. Missing or invalid
// values fall back to page 1 and DefaultPageLimit; limit is capped at
// MaxPageLimit and page at MaxPageNumber.
func ParsePage(rawPage, rawLimit string) Page {
	p := Page{Number: 1, Limit: DefaultPageLimit}

	if n, err := strconv.Atoi(rawPage); err == nil && n > 0 {
		p.Number = min(n, MaxPageNumber)
	}

	if n, err := strconv.Atoi(rawLimit); err == nil && n > 0 {
		p.Limit = min(n, MaxPageLimit)
	}

	return p
}

type PageMeta struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
}

func NewPageMeta(p Page, total int) PageMeta {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PageMeta{CurrentPage: p.Number, TotalPages: pages, TotalItems: total}
}
