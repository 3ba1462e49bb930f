package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Thresholds are the optional pre-classification filters on rating columns.
// A zero value disables that threshold, matching how the upstream exports
// treat "no minimum".
type Thresholds struct {
	MinRating      float64
	MinRatingCount int
}

func (th Thresholds) Active() bool {
	return th.MinRating > 0 || th.MinRatingCount > 0
}

const (
	ratingColumn      = "rating"
	ratingCountColumn = "ratingCount"
)

// HasRatingColumns reports whether t carries both numeric columns the
// pre-filter operates on.
func (t *Table) HasRatingColumns() bool {
	return t.HasColumn(ratingColumn) && t.HasColumn(ratingCountColumn)
}

// PreFilter returns a new table with only the rows meeting every active
// threshold, plus the count of rows removed.
//
// Coercion is deliberately lenient: a missing or unparseable value counts
// as 0, so malformed rows fail any positive minimum instead of slipping
// through unseen.
func PreFilter(t *Table, th Thresholds) (*Table, int) {
	if !th.Active() {
		return t.WithRows(t.Rows), 0
	}

	ratingIdx := t.ColumnIndex(ratingColumn)
	countIdx := t.ColumnIndex(ratingCountColumn)

	var kept [][]string
	for _, row := range t.Rows {
		if th.MinRating > 0 && coerceNumeric(row, ratingIdx) < th.MinRating {
			continue
		}
		if th.MinRatingCount > 0 && coerceNumeric(row, countIdx) < float64(th.MinRatingCount) {
			continue
		}
		kept = append(kept, row)
	}

	return t.WithRows(kept), len(t.Rows) - len(kept)
}

// ParseThresholds turns the user's raw threshold inputs into Thresholds.
// Blank means "no minimum"; a malformed value is skipped with a warning so
// the other threshold still applies.
func ParseThresholds(rating, ratingCount string) (Thresholds, []string) {
	var th Thresholds
	var warnings []string

	if rating = strings.TrimSpace(rating); rating != "" {
		v, err := strconv.ParseFloat(rating, 64)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("ignored invalid minimum rating '%s'", rating))
		} else {
			th.MinRating = v
		}
	}
	if ratingCount = strings.TrimSpace(ratingCount); ratingCount != "" {
		v, err := strconv.Atoi(ratingCount)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("ignored invalid minimum rating count '%s'", ratingCount))
		} else {
			th.MinRatingCount = v
		}
	}
	return th, warnings
}

func coerceNumeric(row []string, idx int) float64 {
	if idx < 0 || idx >= len(row) {
		return 0
	}
	v, err := strconv.ParseFloat(row[idx], 64)
	if err != nil {
		return 0
	}
	return v
}
