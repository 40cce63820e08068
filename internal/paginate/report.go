package paginate

import "github.com/alnah/go-docpager/internal/pages"

// Report describes what one or more paginator runs placed. Pages are still
// truncated silently at the cap; the report is how callers find out.
type Report struct {
	// Rows is the number of line items offered to the items paginator.
	Rows int
	// PlacedRows is how many of them ended up on a page.
	PlacedRows int
	// TruncatedRows is Rows - PlacedRows.
	TruncatedRows int
	// Created counts continuation pages per kind.
	Created map[pages.Kind]int
	// Dropped counts content nodes per kind that no page could take.
	Dropped map[pages.Kind]int
	// CapReached is set once any paginator was refused a page.
	CapReached bool
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{
		Created: make(map[pages.Kind]int),
		Dropped: make(map[pages.Kind]int),
	}
}

// Truncated reports whether any content was left out.
func (r *Report) Truncated() bool {
	if r.TruncatedRows > 0 {
		return true
	}
	for _, n := range r.Dropped {
		if n > 0 {
			return true
		}
	}
	return false
}

// DroppedTotal sums dropped nodes over every kind.
func (r *Report) DroppedTotal() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}
