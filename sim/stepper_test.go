package sim

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func newTestRunner(t *testing.T, frames int, mutate func(*testing.T, *Runner)) *Runner {
	t.Helper()
	cfg := testConfig(frames)
	r, err := NewRunner(cfg, Options{Seed: 1})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	if mutate != nil {
		mutate(t, r)
	}
	return r
}

func TestSeriesLengthExcludesWarmUp(t *testing.T) {
	tests := []struct {
		name   string
		frames int
		want   int
	}{
		{"minimum run", 2, 0},
		{"short run", 5, 3},
		{"longer run", 12, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRunner(t, tt.frames, nil)
			if err := r.RunHeadless(); err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if got := r.Series().Len(); got != tt.want {
				t.Errorf("recorded frames = %d, want %d (sim length %d minus warm-up)",
					got, tt.want, tt.frames)
			}
		})
	}
}

func TestStateTransitions(t *testing.T) {
	r := newTestRunner(t, 5, nil)
	st := r.st

	if got := st.State(); got != WarmingUp {
		t.Errorf("initial state = %v, want WarmingUp", got)
	}
	if err := st.Tick(); err != nil {
		t.Fatal(err)
	}
	if err := st.Tick(); err != nil {
		t.Fatal(err)
	}
	if got := st.State(); got != Recording {
		t.Errorf("state after warm-up = %v, want Recording", got)
	}

	for !st.Done() {
		if err := st.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	if got := st.State(); got != Finalizing {
		t.Errorf("terminal state = %v, want Finalizing", got)
	}

	// Ticking a finalized stepper is a no-op.
	frame := st.Frame()
	if err := st.Tick(); err != nil {
		t.Fatal(err)
	}
	if st.Frame() != frame {
		t.Error("Tick advanced a finalized stepper")
	}
}

func TestPopulationNonDecreasingWithoutRemoval(t *testing.T) {
	// Lysis at zero and bounds wide enough that nothing washes out:
	// divisions can only add cells.
	r := newTestRunner(t, 8, nil)
	if err := r.RunHeadless(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	frames := r.Series().Frames
	for i := 1; i < len(frames); i++ {
		if len(frames[i].Cells) < len(frames[i-1].Cells) {
			t.Fatalf("population shrank between recorded frames %d and %d: %d -> %d",
				i-1, i, len(frames[i-1].Cells), len(frames[i].Cells))
		}
	}
	for i, f := range frames {
		if len(f.Cells) < 1 {
			t.Fatalf("recorded frame %d is empty", i)
		}
	}
}

func TestLengthMonotonicBetweenDivisions(t *testing.T) {
	cfg := testConfig(8)
	// Threshold far out of reach: no divisions in this run.
	cfg.Cell.MaxLength = 1000
	cfg.ComputeDerived()
	r, err := NewRunner(cfg, Options{Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.RunHeadless(); err != nil {
		t.Fatal(err)
	}

	frames := r.Series().Frames
	prev := 0.0
	for i, f := range frames {
		if len(f.Cells) != 1 {
			t.Fatalf("frame %d: cells = %d, want 1 (no divisions expected)", i, len(f.Cells))
		}
		if f.Cells[0].Length < prev {
			t.Fatalf("length decreased at recorded frame %d: %v -> %v", i, prev, f.Cells[0].Length)
		}
		prev = f.Cells[0].Length
	}
}

func TestEndToEndDivisionTiming(t *testing.T) {
	cfg := testConfig(5)
	// Seed starts at half its division length; this growth rate reaches the
	// threshold on the third frame: 0.5 * 1.26^3 > 1.
	cfg.Cell.GrowthRate = 5.2
	cfg.ComputeDerived()
	r, err := NewRunner(cfg, Options{Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.RunHeadless(); err != nil {
		t.Fatal(err)
	}

	frames := r.Series().Frames
	if len(frames) != 3 {
		t.Fatalf("recorded frames = %d, want 3", len(frames))
	}

	firstWithTwo := -1
	for _, f := range frames {
		if len(f.Cells) == 2 {
			firstWithTwo = f.Index
			break
		}
	}
	if firstWithTwo < 2 || firstWithTwo > 4 {
		t.Fatalf("division appeared at frame %d, want between frame 2 and 4", firstWithTwo)
	}

	// Exactly one division event over the whole run.
	if got := r.Historic().Len(); got != 2 {
		t.Errorf("total cells ever = %d, want 2", got)
	}

	var daughterSeen bool
	for _, f := range frames {
		for _, c := range f.Cells {
			if c.Generation == 1 {
				daughterSeen = true
				if c.Label == 1 {
					t.Error("daughter reuses the seed's mask label")
				}
				if c.MotherLabel != 1 {
					t.Errorf("daughter mother_label = %d, want 1", c.MotherLabel)
				}
			}
		}
	}
	if !daughterSeen {
		t.Error("no generation-1 cell recorded")
	}
}

func TestRecordedSnapshotsAreIndependent(t *testing.T) {
	r := newTestRunner(t, 5, nil)
	if err := r.RunHeadless(); err != nil {
		t.Fatal(err)
	}

	frames := r.Series().Frames
	if len(frames) == 0 {
		t.Fatal("no recorded frames")
	}
	recorded := frames[0].Cells[0].Length

	// Mutating the live cell after recording must not alter the snapshot.
	r.pop.Live[0].Length = -999
	if got := r.Series().Frames[0].Cells[0].Length; got != recorded {
		t.Errorf("recorded length changed from %v to %v after live mutation", recorded, got)
	}
}

func TestFinalFrameStamping(t *testing.T) {
	r := newTestRunner(t, 6, nil)
	if err := r.RunHeadless(); err != nil {
		t.Fatal(err)
	}

	for i, f := range r.Series().Frames {
		for _, c := range f.Cells {
			if c.Frame != i {
				t.Fatalf("cell %d in series position %d stamped with frame %d", c.Label, i, c.Frame)
			}
		}
	}
}

func TestNewRunnerRejectsNonPositiveFrames(t *testing.T) {
	for _, frames := range []int{0, -3} {
		cfg := testConfig(frames)
		if _, err := NewRunner(cfg, Options{Seed: 1}); err == nil {
			t.Errorf("NewRunner accepted frames = %d", frames)
		}
	}
}

func TestStreamedCSVFrameColumn(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(6)
	r, err := NewRunner(cfg, Options{Seed: 1, OutputDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.RunHeadless(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "cells.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) < 2 {
		t.Fatalf("cells.csv has %d lines, want header plus rows", len(lines))
	}

	frameCol := -1
	for i, name := range strings.Split(lines[0], ",") {
		if name == "frame" {
			frameCol = i
		}
	}
	if frameCol < 0 {
		t.Fatalf("no frame column in header %q", lines[0])
	}

	// Six sim frames minus the warm-up gives recorded frames 0 through 3;
	// every row carries its frame and the values never run backwards.
	prev := -1
	for _, line := range lines[1:] {
		v, err := strconv.Atoi(strings.Split(line, ",")[frameCol])
		if err != nil {
			t.Fatalf("bad frame value in row %q: %v", line, err)
		}
		if v < prev {
			t.Fatalf("frame column decreased: %d after %d", v, prev)
		}
		prev = v
	}
	if prev != 3 {
		t.Errorf("last streamed frame = %d, want 3", prev)
	}
}

func TestShiftedTrenchOriginKeepsCellsInWindow(t *testing.T) {
	// The purge window follows the trench origin. A colony living at
	// y around 600 inside a trench rooted at y = 500 must not wash out.
	cfg := testConfig(5)
	cfg.Trench.OriginY = 500
	cfg.Cell.SeedY = 600
	cfg.Cell.GrowthRate = 5.2
	cfg.ComputeDerived()
	r, err := NewRunner(cfg, Options{Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.RunHeadless(); err != nil {
		t.Fatal(err)
	}

	if got := r.Historic().Len(); got != 2 {
		t.Fatalf("total cells ever = %d, want 2 (one division, no removals)", got)
	}
	frames := r.Series().Frames
	if last := frames[len(frames)-1]; len(last.Cells) != 2 {
		t.Errorf("final recorded frame has %d cells, want 2", len(last.Cells))
	}
}

func TestWorldBoundsRemovalIndependentOfLogical(t *testing.T) {
	// Both bounds checks exist: the world-level pass removes raw bodies, the
	// logical pass removes cells. After a full tick the two views agree.
	r := newTestRunner(t, 10, nil)
	st := r.st

	for i := 0; i < 4; i++ {
		if err := st.Tick(); err != nil {
			t.Fatal(err)
		}
		if live, dyn := len(r.pop.Live), r.sp.DynamicCount(); live != dyn {
			t.Fatalf("tick %d: live = %d, dynamic = %d", i, live, dyn)
		}
	}
}
