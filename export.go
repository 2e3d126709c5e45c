package orbsim

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// J2000 is the default epoch of t=0 in the XYZV exports.
var J2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// ExportConfig configures the exporting of the simulation.
type ExportConfig struct {
	Dir       string
	Filename  string
	CSV       bool
	XYZV      bool
	Timestamp bool
	Epoch     time.Time // date of t=0, J2000 if zero
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.CSV && !c.XYZV
}

func (c ExportConfig) epoch() time.Time {
	if c.Epoch.IsZero() {
		return J2000
	}
	return c.Epoch.UTC()
}

func (c ExportConfig) filePath(prefix, ext string) string {
	name := prefix + "-" + c.Filename
	if c.Timestamp {
		t := time.Now()
		name = fmt.Sprintf("%s-%d-%02d-%02dT%02d.%02d.%02d", name, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	}
	return filepath.Join(c.Dir, name+"."+ext)
}

// InterpolatedState is one record of an XYZV file (as read by Cosmographia).
type InterpolatedState struct {
	JD       float64
	Position []float64 // km
	Velocity []float64 // km/s
}

// FromText initializes from text.
// The `record` parameter must be an array of seven items.
func (i *InterpolatedState) FromText(record []string) error {
	if len(record) != 7 {
		return fmt.Errorf("%w: xyzv record has %d fields", ErrParse, len(record))
	}
	vals := make([]float64, 7)
	for k, field := range record {
		val, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrParse, err)
		}
		vals[k] = val
	}
	i.JD = vals[0]
	i.Position = vals[1:4]
	i.Velocity = vals[4:7]
	return nil
}

// ToText converts to text for written output.
func (i InterpolatedState) ToText() string {
	return fmt.Sprintf("%f %f %f %f %f %f %f", i.JD, i.Position[0], i.Position[1], i.Position[2], i.Velocity[0], i.Velocity[1], i.Velocity[2])
}

// ParseInterpolatedStates reads the records of an XYZV file, skipping the comments.
func ParseInterpolatedStates(r io.Reader) ([]InterpolatedState, error) {
	var states []InterpolatedState
	cr := csv.NewReader(r)
	cr.Comma = ' '
	cr.Comment = '#'
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrParse, err)
		}
		var state InterpolatedState
		if err := state.FromText(record); err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}

func newInterpolatedState(epoch time.Time, s State) InterpolatedState {
	dt := epoch.Add(time.Duration(s.T * float64(time.Second)))
	return InterpolatedState{
		JD:       julian.TimeToJD(dt),
		Position: []float64{s.R[0] / 1e3, s.R[1] / 1e3, s.R[2] / 1e3},
		Velocity: []float64{s.V[0] / 1e3, s.V[1] / 1e3, s.V[2] / 1e3},
	}
}

func writeXYZVHeader(w io.Writer, epoch time.Time) error {
	_, err := fmt.Fprintf(w, `# Creation date (UTC): %s
# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>
#   Time is a Julian date
#   Position in km
#   Velocity in km/sec
#   Simulation time start (UTC): %s`, time.Now().UTC(), epoch)
	return err
}

// WriteXYZV writes the states as XYZV records, t=0 being at the epoch.
func WriteXYZV(w io.Writer, epoch time.Time, states []State) error {
	if err := writeXYZVHeader(w, epoch); err != nil {
		return err
	}
	for _, s := range states {
		if _, err := io.WriteString(w, "\n"+newInterpolatedState(epoch, s).ToText()); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// TrajectoryHeader is the header of the trajectory CSV exports.
var TrajectoryHeader = append(append([]string{}, Columns...), "converged")

// WriteTrajectoryCSV writes one row per sample.
func WriteTrajectoryCSV(w io.Writer, traj *Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TrajectoryHeader); err != nil {
		return err
	}
	row := make([]string, len(TrajectoryHeader))
	for _, s := range traj.Samples {
		for i, name := range Columns {
			v, _ := s.value(name)
			row[i] = formatFloat(v)
		}
		row[len(row)-1] = strconv.FormatBool(s.Converged)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// StatesHeader is the header of the numerical state CSV exports.
var StatesHeader = []string{"t", "x", "y", "z", "vx", "vy", "vz", "r", "v", "energy"}

func stateRow(μ float64, s State) []string {
	return []string{formatFloat(s.T),
		formatFloat(s.R[0]), formatFloat(s.R[1]), formatFloat(s.R[2]),
		formatFloat(s.V[0]), formatFloat(s.V[1]), formatFloat(s.V[2]),
		formatFloat(s.RNorm()), formatFloat(s.VNorm()), formatFloat(s.Energyξ(μ))}
}

// WriteStatesCSV writes one row per state, the energy being computed with μ.
func WriteStatesCSV(w io.Writer, μ float64, states []State) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(StatesHeader); err != nil {
		return err
	}
	for _, s := range states {
		if err := cw.Write(stateRow(μ, s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// States returns the analytical samples as states in the orbital plane.
func (t *Trajectory) States() []State {
	states := make([]State, len(t.Samples))
	for i, s := range t.Samples {
		states[i] = State{T: s.T, R: []float64{s.X, s.Y, 0}, V: []float64{s.VX, s.VY, 0}}
	}
	return states
}

// ExportTrajectory writes the trajectory in the configured formats and returns the paths
// of the created files.
func ExportTrajectory(conf ExportConfig, traj *Trajectory) ([]string, error) {
	var paths []string
	if conf.CSV {
		path := conf.filePath("kepler", "csv")
		if err := writeFile(path, func(w io.Writer) error { return WriteTrajectoryCSV(w, traj) }); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	if conf.XYZV {
		path := conf.filePath("kepler", "xyzv")
		if err := writeFile(path, func(w io.Writer) error { return WriteXYZV(w, conf.epoch(), traj.States()) }); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// StreamStates streams the output of the channel to the configured files until it is closed.
// The channel is always drained, even after a write error.
func StreamStates(conf ExportConfig, μ float64, stateChan <-chan State) (err error) {
	var fCSV, fXYZV *os.File
	var cw *csv.Writer
	var bw *bufio.Writer
	defer func() {
		for range stateChan {
		}
		if cw != nil {
			cw.Flush()
			if ferr := cw.Error(); err == nil {
				err = ferr
			}
			fCSV.Close()
		}
		if bw != nil {
			if _, werr := io.WriteString(bw, "\n"); err == nil {
				err = werr
			}
			if ferr := bw.Flush(); err == nil {
				err = ferr
			}
			fXYZV.Close()
		}
	}()
	if conf.CSV {
		if fCSV, err = os.Create(conf.filePath("twobody", "csv")); err != nil {
			return err
		}
		cw = csv.NewWriter(fCSV)
		if err = cw.Write(StatesHeader); err != nil {
			return err
		}
	}
	if conf.XYZV {
		if fXYZV, err = os.Create(conf.filePath("twobody", "xyzv")); err != nil {
			return err
		}
		bw = bufio.NewWriter(fXYZV)
		if err = writeXYZVHeader(bw, conf.epoch()); err != nil {
			return err
		}
	}
	for state := range stateChan {
		if cw != nil {
			if err = cw.Write(stateRow(μ, state)); err != nil {
				return err
			}
		}
		if bw != nil {
			if _, err = io.WriteString(bw, "\n"+newInterpolatedState(conf.epoch(), state).ToText()); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseTrajectoryCSV reads back the t and r columns of a trajectory export, e.g. for plotting.
func ParseTrajectoryCSV(r io.Reader) (t, radius []float64, err error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrParse, err)
	}
	if len(records) == 0 || strings.Join(records[0], ",") != strings.Join(TrajectoryHeader, ",") {
		return nil, nil, fmt.Errorf("%w: missing trajectory header", ErrParse)
	}
	for _, rec := range records[1:] {
		tv, err1 := strconv.ParseFloat(rec[0], 64)
		rv, err2 := strconv.ParseFloat(rec[4], 64)
		if err1 != nil || err2 != nil {
			return nil, nil, fmt.Errorf("%w: invalid row %v", ErrParse, rec)
		}
		t = append(t, tv)
		radius = append(radius, rv)
	}
	return t, radius, nil
}
