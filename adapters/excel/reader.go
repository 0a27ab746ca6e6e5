package excel

import (
	"strconv"
	"strings"

	"qics/domain/core"
	"qics/internal/aggregate"
	"qics/internal/errors"

	"github.com/xuri/excelize/v2"
)

// TableReader loads an aggregate table from the first sheet of an
// xlsx workbook. Columns are addressed by header name, so column
// order does not matter.
type TableReader struct {
	path string
}

// NewTableReader creates a reader for the given workbook path.
func NewTableReader(path string) *TableReader {
	return &TableReader{path: path}
}

// Read loads the aggregate rows.
func (r *TableReader) Read() ([]aggregate.Row, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, errors.StorageFailed("open workbook", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.StorageFailed("read sheet "+sheet, err)
	}
	if len(rows) == 0 {
		return nil, core.ErrEmptyDataset
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range aggregate.Header {
		if _, ok := index[name]; !ok {
			return nil, core.NewMissingColumnError(name, r.path)
		}
	}

	out := make([]aggregate.Row, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		if len(cells) == 0 {
			continue
		}
		row := aggregate.Row{Galaxy: core.GalaxyID(cell(cells, index["Galaxy"]))}
		if row.M, err = parseCell(cells, index["M"]); err != nil {
			return nil, err
		}
		if row.R, err = parseCell(cells, index["R"]); err != nil {
			return nil, err
		}
		if row.DEff, err = parseCell(cells, index["D_eff"]); err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	if len(out) == 0 {
		return nil, core.ErrEmptyDataset
	}
	return out, nil
}

func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func parseCell(cells []string, i int) (float64, error) {
	s := cell(cells, i)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse cell %q", s)
	}
	return v, nil
}
