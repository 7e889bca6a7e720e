package report

import (
	"github.com/harrison/sweeper/internal/models"
	"github.com/harrison/sweeper/internal/params"
)

// Axis is the list of values one variable takes across the sweep.
type Axis struct {
	Name   string `json:"name"`
	Values []any  `json:"values"`
}

// Results holds the ground state of every combination arranged on the
// sweep's shape. Grids are nested arrays with one level per variable; a run
// without a ground state is null. A sweep without variables has scalar grids.
type Results struct {
	SweepID   string              `json:"sweep_id"`
	Shape     []int               `json:"shape"`
	Variables []Axis              `json:"variables"`
	Constants []models.Assignment `json:"constants,omitempty"`
	Energies  any                 `json:"energies_ground_states"`
	Positions any                 `json:"positions_ground_states"`
}

// BuildResults arranges the report's ground states by combination index.
func BuildResults(space *params.Space, report *models.SweepReport) Results {
	results := Results{
		SweepID:   report.SweepID,
		Shape:     report.Shape,
		Variables: []Axis{},
	}
	if results.Shape == nil {
		results.Shape = []int{}
	}
	if space != nil {
		for _, v := range space.Variables() {
			values, _ := space.Values(v.Name)
			results.Variables = append(results.Variables, Axis{Name: v.Name, Values: values})
		}
		results.Constants = space.Constants()
	}

	size := report.Total
	if size < len(report.Records) {
		size = len(report.Records)
	}
	energies := make([]*float64, size)
	positions := make([]*float64, size)
	for _, rec := range report.Records {
		if rec.Index < 0 || rec.Index >= size || rec.GroundState == nil {
			continue
		}
		gs := *rec.GroundState
		energies[rec.Index] = &gs.Energy
		positions[rec.Index] = &gs.Position
	}

	results.Energies = reshape(energies, results.Shape)
	results.Positions = reshape(positions, results.Shape)
	return results
}

// reshape turns a row-major flat slice into nested slices of the given shape.
func reshape(flat []*float64, shape []int) any {
	if len(shape) == 0 {
		if len(flat) == 0 {
			return nil
		}
		return flat[0]
	}
	if len(shape) == 1 {
		out := make([]*float64, shape[0])
		copy(out, flat)
		return out
	}

	stride := 1
	for _, n := range shape[1:] {
		stride *= n
	}
	out := make([]any, shape[0])
	for i := range out {
		lo := min(i*stride, len(flat))
		hi := min(lo+stride, len(flat))
		out[i] = reshape(flat[lo:hi], shape[1:])
	}
	return out
}
