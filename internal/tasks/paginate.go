package tasks

import (
	"strconv"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
)

// PageSize resolves the requested page size. Missing, non-numeric or
// non-positive values fall back to the default; large values are capped.
func (s *Service) PageSize(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return s.defaultPageSize
	}
	if n > s.maxPageSize {
		return s.maxPageSize
	}
	return n
}

// parsePage resolves a 1-based page number. "last" is not supported.
func parsePage(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errs.ErrInvalidPage
	}
	return n, nil
}
