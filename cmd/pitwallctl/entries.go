package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/normalize"
)

// renderEntries prints canonical entries as a table. Prediction columns are
// only shown when some entry carries probabilities.
func renderEntries(w io.Writer, entries []model.Entry) {
	predictions := false
	for _, e := range entries {
		if e.Probabilities != nil {
			predictions = true
			break
		}
	}

	headers := []string{"Pos", "Driver", "ID", "Team", "Status"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}
	if predictions {
		headers = append(headers, "Win", "Podium", "Points")
		aligns = append(aligns, alignRight, alignRight, alignRight)
	} else {
		headers = append(headers, "Points", "Wins")
		aligns = append(aligns, alignRight, alignRight)
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		pos := "-"
		if e.HasKnownPosition() {
			pos = strconv.Itoa(e.Position)
		}
		id := ""
		if e.Driver != nil {
			id = e.Driver.ID
		}
		row := []string{pos, e.DisplayName(), id, e.Team, string(e.Status)}
		if predictions {
			if p := e.Probabilities; p != nil {
				row = append(row,
					normalize.FormatPercent(p.Win),
					normalize.FormatPercent(p.Podium),
					normalize.FormatPercent(p.Points),
				)
			}
		} else {
			row = append(row, optional(e.Points), optional(e.Wins))
		}
		rows = append(rows, row)
	}

	fmt.Fprintln(w, renderTable(headers, rows, aligns))
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func renderReport(w io.Writer, r normalize.Report) {
	fmt.Fprintf(w, "%d entries, %d skipped, %d unresolved, %d unknown positions, %d duplicate positions\n",
		r.Normalized(), r.Skipped, r.Unresolved, r.MalformedPositions, r.DuplicatePositions)
}
