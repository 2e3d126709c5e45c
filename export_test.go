package orbsim

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gonum/floats"
)

func TestWriteTrajectoryCSV(t *testing.T) {
	o, _ := NewOrbitAround("x", Sun, 1.496e11, 25000)
	traj, _ := Sample(o, 1, 21)
	var buf bytes.Buffer
	if err := WriteTrajectoryCSV(&buf, traj); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 22 {
		t.Fatalf("%d lines", len(lines))
	}
	if lines[0] != "t,M,E,nu,r,x,y,vx,vy,v,accel,converged" {
		t.Fatalf("invalid header %s", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",true") {
		t.Fatalf("invalid first row %s", lines[1])
	}
	times, radii, err := ParseTrajectoryCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	r, _ := traj.Column("r")
	if !floats.Equal(times, traj.Times()) || !floats.Equal(radii, r) {
		t.Fatal("columns read back differ")
	}
	if _, _, err := ParseTrajectoryCSV(strings.NewReader("a,b\n1,2\n")); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestWriteXYZV(t *testing.T) {
	epoch := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	states := []State{
		{T: 0, R: []float64{1e6, 2e6, 3e6}, V: []float64{1e3, 2e3, 3e3}},
		{T: 43200, R: []float64{-1e6, 0, 5e5}, V: []float64{0, -7e3, 0}},
	}
	var buf bytes.Buffer
	if err := WriteXYZV(&buf, epoch, states); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>") {
		t.Fatal("missing header")
	}
	records, err := ParseInterpolatedStates(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("%d records", len(records))
	}
	// 2017-01-01T00:00Z is JD 2457754.5
	if !floats.EqualWithinAbs(records[0].JD, 2457754.5, 1e-6) || !floats.EqualWithinAbs(records[1].JD, 2457755, 1e-6) {
		t.Fatalf("invalid dates %f %f", records[0].JD, records[1].JD)
	}
	if !floats.Equal(records[0].Position, []float64{1e3, 2e3, 3e3}) || !floats.Equal(records[1].Velocity, []float64{0, -7, 0}) {
		t.Fatalf("invalid units %+v", records)
	}
	var bad InterpolatedState
	if err := bad.FromText([]string{"1", "2"}); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if err := bad.FromText([]string{"1", "2", "3", "x", "5", "6", "7"}); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestWriteStatesCSV(t *testing.T) {
	states := []State{{T: 1, R: []float64{1, 0, 0}, V: []float64{0, 2, 0}}}
	var buf bytes.Buffer
	if err := WriteStatesCSV(&buf, 1, states); err != nil {
		t.Fatal(err)
	}
	exp := "t,x,y,z,vx,vy,vz,r,v,energy\n1,1,0,0,0,2,0,1,2,1\n"
	if buf.String() != exp {
		t.Fatalf("got\n%sexpected\n%s", buf.String(), exp)
	}
}

func TestExportTrajectory(t *testing.T) {
	dir := t.TempDir()
	o, _ := NewOrbitAround("x", Sun, 1.496e11, 29780)
	traj, _ := Sample(o, 1, 10)
	if paths, err := ExportTrajectory(ExportConfig{Dir: dir}, traj); err != nil || len(paths) != 0 {
		t.Fatalf("useless config wrote %v (%v)", paths, err)
	}
	conf := ExportConfig{Dir: dir, Filename: "earth", CSV: true, XYZV: true}
	paths, err := ExportTrajectory(conf, traj)
	if err != nil {
		t.Fatal(err)
	}
	exp := []string{filepath.Join(dir, "kepler-earth.csv"), filepath.Join(dir, "kepler-earth.xyzv")}
	if len(paths) != 2 || paths[0] != exp[0] || paths[1] != exp[1] {
		t.Fatalf("unexpected files %v", paths)
	}
	f, err := os.Open(paths[1])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := ParseInterpolatedStates(f)
	if err != nil {
		t.Fatal(err)
	}
	// t=0 is J2000 by default.
	if len(records) != 10 || !floats.EqualWithinAbs(records[0].JD, 2451545, 1e-6) {
		t.Fatalf("invalid xyzv export %+v", records[0])
	}
	if _, err := ExportTrajectory(ExportConfig{Dir: filepath.Join(dir, "missing"), CSV: true}, traj); err == nil {
		t.Fatal("exporting to a missing directory should fail")
	}
}

func TestExportFilePath(t *testing.T) {
	c := ExportConfig{Dir: "out", Filename: "orbit"}
	if p := c.filePath("kepler", "csv"); p != filepath.Join("out", "kepler-orbit.csv") {
		t.Fatalf("invalid path %s", p)
	}
	c.Timestamp = true
	if p := c.filePath("kepler", "csv"); !strings.HasPrefix(p, filepath.Join("out", "kepler-orbit-")) || len(p) <= len(filepath.Join("out", "kepler-orbit.csv")) {
		t.Fatalf("invalid timestamped path %s", p)
	}
	if !c.IsUseless() {
		t.Fatal("no format selected")
	}
}
