package models

// GroundState is the first electron eigenvalue reported by the solver and the
// position of the mesh point it was reported on.
type GroundState struct {
	Energy   float64 `json:"energy_ev"`
	Position float64 `json:"position_nm"`
}

// OutputData is the parsed band diagram written by the solver.
// Every slice has one entry per mesh point.
type OutputData struct {
	Z                []float64    `json:"z_nm"`
	EnergyConduction []float64    `json:"ec_ev"`
	EnergyValence    []float64    `json:"ev_ev"`
	ElectricField    []float64    `json:"e_v_per_cm"`
	EnergyFermi      []float64    `json:"ef_ev"`
	DensityElectron  []float64    `json:"n_cm3"`
	DensityHole      []float64    `json:"p_cm3"`
	DopingNet        []float64    `json:"nd_na_cm3"`
	GroundState      *GroundState `json:"ground_state,omitempty"`
	Source           string       `json:"source"`
	Artifacts        []string     `json:"artifacts,omitempty"`
}

// Points returns the number of mesh points.
func (o *OutputData) Points() int {
	if o == nil {
		return 0
	}
	return len(o.Z)
}

// MinConduction returns the minimum of the conduction band edge and its position.
func (o *OutputData) MinConduction() (energy, position float64, ok bool) {
	if o.Points() == 0 {
		return 0, 0, false
	}
	idx := 0
	for i, e := range o.EnergyConduction {
		if e < o.EnergyConduction[idx] {
			idx = i
		}
	}
	return o.EnergyConduction[idx], o.Z[idx], true
}

// SheetDensity integrates the electron density over the mesh with the
// trapezoidal rule. Z is in nm and densities in cm^-3, so the result is in
// cm^-2.
func (o *OutputData) SheetDensity() float64 {
	if o.Points() < 2 {
		return 0
	}
	const nmToCm = 1e-7
	total := 0.0
	for i := 1; i < len(o.Z); i++ {
		dz := (o.Z[i] - o.Z[i-1]) * nmToCm
		total += 0.5 * (o.DensityElectron[i] + o.DensityElectron[i-1]) * dz
	}
	return total
}
