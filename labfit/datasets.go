package labfit

import (
	"fmt"
	"sort"
	"strings"
)

// Dataset is a set of measurements with constant uncertainties.
type Dataset struct {
	Name           string
	XLabel, YLabel string
	X, Y           []float64
	SigmaX, SigmaY float64
	// FitPoints is the number of leading points in the linear regime, all of them if zero.
	FitPoints int
}

// Head returns the dataset restricted to its first n points. A non positive n or one beyond
// the length returns the whole dataset.
func (d Dataset) Head(n int) Dataset {
	if n <= 0 || n >= len(d.X) {
		return d
	}
	d.X, d.Y = d.X[:n], d.Y[:n]
	d.FitPoints = 0
	return d
}

// Len returns the number of points.
func (d Dataset) Len() int {
	return len(d.X)
}

// Fit returns the linear fit of the linear regime of the dataset.
func (d Dataset) Fit() (Fit, error) {
	h := d.Head(d.FitPoints)
	f, err := Linear(h.X, h.Y)
	if err != nil {
		return f, fmt.Errorf("%s: %w", d.Name, err)
	}
	return f, nil
}

// MonteCarlo returns the noisy refit spread of the linear regime of the dataset.
func (d Dataset) MonteCarlo(trials int, seed int64) (MonteCarloResult, error) {
	h := d.Head(d.FitPoints)
	return MonteCarlo(h.X, h.Y, d.SigmaX, d.SigmaY, trials, seed)
}

// Gas flow through the three tubes: volumetric flow Q (L/min) against the pressure drop ΔP (Pa).
var (
	tubeP = [][]float64{
		{3, 6, 9, 12, 15, 18, 20, 25, 30, 35, 40, 50, 60, 70, 80, 90, 100, 110},
		{10, 15, 20, 25, 30, 35, 40, 50, 60, 70, 80, 90, 100, 110, 120, 130, 140},
		{10, 15, 20, 25, 30, 35, 40, 50, 60, 70, 80, 90, 100, 110},
	}
	tubeQ = [][]float64{
		{0.60, 1.41, 2.13, 2.94, 3.63, 4.38, 4.80, 5.60, 6.00, 6.40, 7.02, 8.40, 9.00, 9.51, 10.05, 10.74, 11.49, 12.84},
		{0.38, 0.63, 0.90, 1.14, 1.32, 1.56, 1.77, 2.22, 2.55, 2.82, 3.06, 3.42, 3.68, 3.92, 4.12, 4.32, 4.50},
		{0.66, 1.05, 1.47, 1.83, 2.22, 2.58, 2.97, 3.66, 4.44, 5.04, 5.61, 6.00, 6.24, 6.42},
	}
	// TubeRadius is the inner radius of each tube (mm).
	TubeRadius = []float64{2.55, 1.5, 1.975}
	// TubeLength is the length of each tube (m).
	TubeLength = []float64{0.5, 0.3, 0.5}

	// Pressure drop (Pa) against the distance from the inlet (cm) along each tube.
	dropL = [][]float64{
		{10.7, 40.7, 80.7, 130.7},
		{11, 31, 61},
		{10.9, 40.9, 80.9, 130.9},
	}
	dropP = [][]float64{
		{17, 32, 47, 67},
		{72, 128, 188},
		{24, 53, 91, 136},
	}
)

const (
	// LaminarGradient and TurbulentGradient are the pressure gradients (Pa/m) at which the
	// tubes are compared in each regime.
	LaminarGradient   = 30.
	TurbulentGradient = 220.
)

var datasets = map[string]Dataset{
	"resonance": {
		Name:   "resonance",
		XLabel: "k",
		YLabel: "f, Hz",
		X:      []float64{1, 2, 3, 4, 5},
		Y:      []float64{265, 519, 780, 1038, 1297},
		SigmaY: 1,
	},
}

func init() {
	for i := range tubeP {
		name := fmt.Sprintf("tube%d", i+1)
		datasets[name] = Dataset{
			Name:      name,
			XLabel:    "ΔP, Pa",
			YLabel:    "Q, L/min",
			X:         tubeP[i],
			Y:         tubeQ[i],
			SigmaX:    1,
			SigmaY:    0.03,
			FitPoints: 8,
		}
		name = fmt.Sprintf("drop%d", i+1)
		datasets[name] = Dataset{
			Name:   name,
			XLabel: "l, cm",
			YLabel: "ΔP, Pa",
			X:      dropL[i],
			Y:      dropP[i],
			SigmaX: 0.1,
			SigmaY: 1,
		}
	}
}

// DatasetNames returns the sorted names of the built-in datasets.
func DatasetNames() []string {
	names := make([]string, 0, len(datasets))
	for name := range datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DatasetFromName returns the built-in dataset of that name (case insensitive).
func DatasetFromName(name string) (Dataset, error) {
	d, ok := datasets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Dataset{}, fmt.Errorf("unknown dataset %q, known: %s", name, strings.Join(DatasetNames(), ", "))
	}
	return d, nil
}

// TubeFlows returns the flow through each tube at the same pressure gradient (Pa/m), read
// from the measurements by interpolation.
func TubeFlows(gradient float64) ([]float64, error) {
	flows := make([]float64, len(tubeP))
	for i := range tubeP {
		q, err := Interp(gradient*TubeLength[i], tubeP[i], tubeQ[i])
		if err != nil {
			return nil, fmt.Errorf("tube%d: %w", i+1, err)
		}
		flows[i] = q
	}
	return flows, nil
}

// ScalingExponent fits Q ∝ R^β across the tubes at the given pressure gradient. β is the K
// of the returned fit, and is four for a Poiseuille flow.
func ScalingExponent(gradient float64) (Fit, error) {
	flows, err := TubeFlows(gradient)
	if err != nil {
		return Fit{}, err
	}
	return PowerLaw(TubeRadius, flows)
}
