// Package query answers the aggregate questions served by the API over a
// dataset.Table: single-cell waste lookup, waste per period, per-capita
// extremes of a period and percentage change of the differentiated
// collection ratio.
//
// All functions are pure and O(n) in the table size. Missing or unusable
// data is reported through ErrNotFound, ErrInsufficientData and
// ErrDivisionUndefined; Kind maps an error to its response label.
package query
