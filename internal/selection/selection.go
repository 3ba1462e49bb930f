// Package selection joins per-category classification results back onto
// rows and tracks the user's manual refinement of the relevant category set.
package selection

import (
	"gmapscleaner/internal/classify"
	"gmapscleaner/internal/table"
)

// DistinctCategories returns the non-empty category values of t in first-seen
// order, deduplicated. Rows with a missing category are skipped; they can
// never be classified.
func DistinctCategories(t *table.Table, categoryCol string) []string {
	idx := t.ColumnIndex(categoryCol)
	if idx < 0 {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, row := range t.Rows {
		cat := row[idx]
		if cat == "" || seen[cat] {
			continue
		}
		seen[cat] = true
		out = append(out, cat)
	}
	return out
}

// RelevantRows filters t to the rows whose category was classified relevant.
// Rows sharing a category always move together, and a category absent from
// results (including the empty category) is treated as not relevant.
func RelevantRows(t *table.Table, categoryCol string, results map[string]classify.Result) *table.Table {
	idx := t.ColumnIndex(categoryCol)
	if idx < 0 {
		return t.Empty()
	}

	var kept [][]string
	for _, row := range t.Rows {
		if results[row[idx]].Relevant {
			kept = append(kept, row)
		}
	}
	return t.WithRows(kept)
}

// State is the refinement checklist: which of the AI-relevant categories the
// user still wants. It is a plain value passed in and out of the refinement
// step, never ambient session state.
type State struct {
	order []string
	kept  map[string]bool
}

// NewState starts with every candidate category kept.
func NewState(categories []string) *State {
	s := &State{
		order: append([]string(nil), categories...),
		kept:  make(map[string]bool, len(categories)),
	}
	for _, cat := range categories {
		s.kept[cat] = true
	}
	return s
}

// Categories returns the candidate set in its original order.
func (s *State) Categories() []string {
	return s.order
}

func (s *State) IsKept(category string) bool {
	return s.kept[category]
}

// Set marks one candidate category kept or dropped. Unknown categories are
// ignored so a stale toggle cannot grow the candidate set.
func (s *State) Set(category string, kept bool) {
	if _, ok := s.kept[category]; ok {
		s.kept[category] = kept
	}
}

func (s *State) SelectAll() {
	for cat := range s.kept {
		s.kept[cat] = true
	}
}

func (s *State) DeselectAll() {
	for cat := range s.kept {
		s.kept[cat] = false
	}
}

// Kept returns the kept categories in candidate order.
func (s *State) Kept() []string {
	var out []string
	for _, cat := range s.order {
		if s.kept[cat] {
			out = append(out, cat)
		}
	}
	return out
}

func (s *State) KeptCount() int {
	n := 0
	for _, v := range s.kept {
		if v {
			n++
		}
	}
	return n
}

// Finalize consumes the state against the AI-relevant subset: only rows whose
// category is still kept survive. Deselecting everything yields an explicit
// empty table, not an error.
func (s *State) Finalize(t *table.Table, categoryCol string) *table.Table {
	idx := t.ColumnIndex(categoryCol)
	if idx < 0 {
		return t.Empty()
	}

	var kept [][]string
	for _, row := range t.Rows {
		if s.kept[row[idx]] {
			kept = append(kept, row)
		}
	}
	return t.WithRows(kept)
}
