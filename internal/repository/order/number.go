package order

import "fmt"

// FormatOrderNumber renders the human-readable order number. The millisecond
// timestamp keeps numbers roughly sortable by creation time; the sequence
// value guarantees uniqueness even for orders created in the same millisecond.
func FormatOrderNumber(unixMilli, seq int64) string {
	return fmt.Sprintf("ORD-%d-%04d", unixMilli, seq)
}
