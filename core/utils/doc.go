// Package utils provides loose type conversion helpers.
//
// The game API is not strict about number encoding: damage totals and levels
// arrive as integers, floats or occasionally strings. The warera client decodes
// them through ToInt64 so a single odd value does not fail a whole page.
package utils
