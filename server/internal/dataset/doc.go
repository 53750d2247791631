// Package dataset loads the municipal waste statistics table and keeps the
// copy served by the API.
//
// Load(cfg) reads a CSV or XLSX file, maps the five required columns by
// header name and parses each row into a Record. Rows with a missing or
// non-numeric field are skipped and counted in Table.Skipped.
//
// A Table is immutable. Store hands out the current *Table and swaps it on
// Reload; Watch triggers reloads when the file changes on disk.
package dataset
