package query

import "errors"

// Query failures. Callers test with errors.Is; returned errors may wrap
// these with detail.
var (
	// ErrNotFound means no row matched (or, for single-cell lookups, the
	// match was ambiguous).
	ErrNotFound = errors.New("not found")

	// ErrInsufficientData means fewer than two periods exist for a change
	// calculation.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDivisionUndefined means the computation would divide by zero.
	ErrDivisionUndefined = errors.New("division undefined")
)

// Kind returns a stable label for err: "ok", "not_found",
// "insufficient_data", "division_undefined" or "error".
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrDivisionUndefined):
		return "division_undefined"
	default:
		return "error"
	}
}
