// Package aggregate reads and writes the cross-galaxy result table
// keyed by galaxy identifier with columns M, R and D_eff. Floats are
// formatted with the shortest exact representation so a write-then-read
// cycle reproduces identical float64 values.
package aggregate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"qics/domain/core"
	domain "qics/domain/scaling"
	"qics/internal/errors"
)

// Header is the required column set, in write order.
var Header = []string{"Galaxy", "M", "R", "D_eff"}

// Row is one galaxy's entry in the aggregate table.
type Row struct {
	Galaxy core.GalaxyID
	M      float64
	R      float64
	DEff   float64
}

// Point converts the row to a scaling-dataset point.
func (r Row) Point() domain.Point {
	return domain.Point{GalaxyID: r.Galaxy, M: r.M, RadiusKpc: r.R, DEff: r.DEff}
}

// Points converts a whole table.
func Points(rows []Row) []domain.Point {
	out := make([]domain.Point, len(rows))
	for i, r := range rows {
		out[i] = r.Point()
	}
	return out
}

// Write emits the table as CSV with a header row.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return errors.StorageFailed("aggregate header write", err)
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, row := range rows {
		record := []string{row.Galaxy.String(), f(row.M), f(row.R), f(row.DEff)}
		if err := cw.Write(record); err != nil {
			return errors.StorageFailed("aggregate row write", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path.
func WriteFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.StorageFailed("aggregate file create", err)
	}
	defer f.Close()

	return Write(f, rows)
}

// Read parses the table back. Columns are addressed by header name, so
// extra columns and reordered files stay readable; a missing required
// column is a hard error for the whole stage, per the propagation
// policy for structurally broken aggregate inputs.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.EmptyDataset("aggregate table")
	}
	if err != nil {
		return nil, errors.LoadFailed("aggregate table", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	for _, required := range Header {
		if _, ok := colIdx[required]; !ok {
			return nil, core.NewMissingColumnError(required, "aggregate table")
		}
	}

	var rows []Row
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.LoadFailed("aggregate table", err)
		}
		line++

		id, err := core.ParseGalaxyID(record[colIdx["Galaxy"]])
		if err != nil {
			return nil, core.NewMalformedRecordError("aggregate table", line, err.Error())
		}

		row := Row{Galaxy: id}
		for _, col := range []struct {
			name string
			dst  *float64
		}{
			{"M", &row.M},
			{"R", &row.R},
			{"D_eff", &row.DEff},
		} {
			v, err := strconv.ParseFloat(record[colIdx[col.name]], 64)
			if err != nil {
				return nil, core.NewMalformedRecordError("aggregate table", line,
					fmt.Sprintf("column %s: %v", col.name, err))
			}
			*col.dst = v
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, errors.EmptyDataset("aggregate table")
	}
	return rows, nil
}

// ReadFile reads the table from path.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.LoadFailed(path, err)
	}
	defer f.Close()

	return Read(f)
}
