// Package output reads the band diagram 1D Poisson writes next to its input.
package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/harrison/sweeper/internal/models"
)

// Artifact suffixes written by the solver for an input stem.
const (
	SuffixOut    = "_Out.txt"
	SuffixStatus = "_Status.txt"
	SuffixWave   = "_Wave.txt"
)

// Columns of the output table, in file order.
var Columns = []string{
	"Y (ang)",
	"Ec (eV)",
	"Ev (eV)",
	"E (V/cm)",
	"Ef (eV)",
	"n (cm-3)",
	"p (cm-3)",
	"Nd - Na (cm-3)",
	"el eval 1 (eV)",
}

const (
	colY = iota
	colEc
	colEv
	colE
	colEf
	colN
	colP
	colDoping
	colEigen

	requiredColumns = colEigen
)

const angstromPerNm = 10.0

// Parser reads solver artifacts from run directories.
type Parser struct{}

// NewParser returns a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// OutPath returns the path of the output table for stem in dir.
func OutPath(dir, stem string) string {
	return filepath.Join(dir, stem+SuffixOut)
}

// Parse reads <stem>_Out.txt in dir. Every failure is a *models.ParseError.
func (p *Parser) Parse(dir, stem string) (*models.OutputData, error) {
	data, err := p.ParseFile(OutPath(dir, stem))
	if err != nil {
		return nil, err
	}
	for _, suffix := range []string{SuffixOut, SuffixStatus, SuffixWave} {
		if _, err := os.Stat(filepath.Join(dir, stem+suffix)); err == nil {
			data.Artifacts = append(data.Artifacts, stem+suffix)
		}
	}
	return data, nil
}

// ParseFile reads a tab-separated output table. The first line is a header
// and is skipped. Positions are converted from angstrom to nm. The ground
// state is taken from the first row with a non-empty eigenvalue column.
func (p *Parser) ParseFile(path string) (*models.OutputData, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &models.ParseError{Path: path, Message: "output file not found", Err: err}
		}
		return nil, &models.ParseError{Path: path, Message: "cannot open output file", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	data := &models.OutputData{Source: path}
	header := true

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			line := 0
			if errors.As(err, &csvErr) {
				line = csvErr.Line
			}
			return nil, &models.ParseError{Path: path, Line: line, Message: "malformed row", Err: err}
		}
		line, _ := r.FieldPos(0)
		if header {
			header = false
			continue
		}
		if err := appendRow(data, record); err != nil {
			return nil, &models.ParseError{Path: path, Line: line, Message: err.Error()}
		}
	}

	if data.Points() == 0 {
		return nil, &models.ParseError{Path: path, Message: "no data rows"}
	}
	return data, nil
}

func appendRow(data *models.OutputData, record []string) error {
	if len(record) < requiredColumns {
		return fmt.Errorf("expected at least %d columns, got %d", requiredColumns, len(record))
	}

	var values [requiredColumns]float64
	for i := 0; i < requiredColumns; i++ {
		v, err := parseField(record[i])
		if err != nil {
			return fmt.Errorf("column %q: %w", Columns[i], err)
		}
		values[i] = v
	}

	z := values[colY] / angstromPerNm
	data.Z = append(data.Z, z)
	data.EnergyConduction = append(data.EnergyConduction, values[colEc])
	data.EnergyValence = append(data.EnergyValence, values[colEv])
	data.ElectricField = append(data.ElectricField, values[colE])
	data.EnergyFermi = append(data.EnergyFermi, values[colEf])
	data.DensityElectron = append(data.DensityElectron, values[colN])
	data.DensityHole = append(data.DensityHole, values[colP])
	data.DopingNet = append(data.DopingNet, values[colDoping])

	if data.GroundState == nil && len(record) > colEigen && strings.TrimSpace(record[colEigen]) != "" {
		e, err := parseField(record[colEigen])
		if err != nil {
			return fmt.Errorf("column %q: %w", Columns[colEigen], err)
		}
		data.GroundState = &models.GroundState{Energy: e, Position: z}
	}
	return nil
}

func parseField(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}
