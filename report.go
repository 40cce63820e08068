package docpager

import "github.com/alnah/go-docpager/internal/paginate"

// Report describes the outcome of the last layout pass. Content that did not
// fit under the page cap is left off the pages silently; the report is where
// it shows up.
type Report struct {
	// Pages is the number of visible pages.
	Pages int
	// Rows is the number of line items laid out.
	Rows int
	// PlacedRows is how many of them made it onto a page.
	PlacedRows int
	// TruncatedRows is Rows - PlacedRows.
	TruncatedRows int
	// Created counts continuation pages by kind ("items", "notes"...).
	Created map[string]int
	// Dropped counts content nodes by kind that no page could take.
	Dropped map[string]int
	// CapReached is set when a page was refused because of the cap.
	CapReached bool
}

// Truncated reports whether any content was left out.
func (r *Report) Truncated() bool {
	if r == nil {
		return false
	}
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

// DroppedNodes sums Dropped over every kind.
func (r *Report) DroppedNodes() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

func newReport(r *paginate.Report, visible int) *Report {
	out := &Report{
		Pages:   visible,
		Created: make(map[string]int),
		Dropped: make(map[string]int),
	}
	if r == nil {
		return out
	}
	out.Rows = r.Rows
	out.PlacedRows = r.PlacedRows
	out.TruncatedRows = r.TruncatedRows
	out.CapReached = r.CapReached
	for k, n := range r.Created {
		out.Created[string(k)] = n
	}
	for k, n := range r.Dropped {
		out.Dropped[string(k)] = n
	}
	return out
}
