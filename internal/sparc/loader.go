// Package sparc reads rotation-curve tables in the SPARC rotmod
// convention: whitespace-delimited columns, '#' comments, columns by
// position (radius, v_obs, v_err, v_gas, v_disk, v_bulge).
package sparc

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"qics/domain/core"
	"qics/domain/galaxy"
	"qics/internal/errors"
)

// LoadResult carries the parsed curve plus loader diagnostics.
type LoadResult struct {
	Curve       *galaxy.Curve
	RowsRead    int
	RowsSkipped int // non-numeric or empty rows dropped during parsing
}

// GalaxyName derives the catalog identifier from a file path:
// "NGC2403_rotmod.dat" becomes "NGC2403".
func GalaxyName(path string) string {
	base := filepath.Base(path)
	if name, ok := strings.CutSuffix(base, "_rotmod.dat"); ok {
		return name
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseFile loads one rotation-curve table from disk.
func ParseFile(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.LoadFailed(path, err)
	}
	defer f.Close()

	return Parse(f, GalaxyName(path), path)
}

// Parse reads a table from r. Full-line and trailing '#' comments and
// blank lines are ignored. Short rows zero-fill the missing trailing
// columns; rows with fewer than two columns or non-numeric fields are
// skipped and counted rather than failing the whole file. Component
// velocities are stored as magnitudes: their sign carries no meaning.
func Parse(r io.Reader, name, source string) (*LoadResult, error) {
	id, err := core.ParseGalaxyID(name)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("galaxy name for %s: %v", source, err))
	}

	result := &LoadResult{}
	var samples []galaxy.Sample

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		result.RowsRead++

		cols, ok := parseRow(fields)
		if !ok {
			result.RowsSkipped++
			continue
		}

		samples = append(samples, galaxy.Sample{
			RadiusKpc: cols[0],
			VObsKms:   cols[1],
			VErrKms:   math.Abs(cols[2]),
			VGasKms:   math.Abs(cols[3]),
			VDiskKms:  math.Abs(cols[4]),
			VBulgeKms: math.Abs(cols[5]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.LoadFailed(source, err)
	}

	if len(samples) == 0 {
		return nil, errors.EmptyDataset(source)
	}

	curve, err := galaxy.NewCurve(id, source, samples)
	if err != nil {
		return nil, err
	}
	result.Curve = curve
	return result, nil
}

// parseRow coerces up to six positional columns, zero-filling the
// missing trailing ones. Rows without at least radius and velocity, or
// with any non-numeric field, are rejected.
func parseRow(fields []string) ([6]float64, bool) {
	var cols [6]float64
	if len(fields) < 2 {
		return cols, false
	}
	for i := 0; i < 6 && i < len(fields); i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return cols, false
		}
		cols[i] = v
	}
	return cols, true
}

// Write emits a curve in the same table convention Parse reads, with a
// commented header. Write-then-Parse reproduces the sample values.
func Write(w io.Writer, curve *galaxy.Curve) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s rotation curve\n", curve.ID)
	fmt.Fprintln(bw, "# Rad[kpc] Vobs[km/s] errV[km/s] Vgas[km/s] Vdisk[km/s] Vbul[km/s]")

	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, s := range curve.Samples {
		fmt.Fprintf(bw, "%s %s %s %s %s %s\n",
			f(s.RadiusKpc), f(s.VObsKms), f(s.VErrKms), f(s.VGasKms), f(s.VDiskKms), f(s.VBulgeKms))
	}
	return bw.Flush()
}
