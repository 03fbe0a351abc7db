package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"trenchsim/config"
)

// OutputManager handles structured run output: a streaming per-frame CSV of
// cell states plus JSON artifacts written at finalization.
type OutputManager struct {
	dir       string
	cellsFile *os.File

	// Track if the CSV header has been written
	cellsHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	cellsPath := filepath.Join(dir, "cells.csv")
	f, err := os.Create(cellsPath)
	if err != nil {
		return nil, fmt.Errorf("creating cells.csv: %w", err)
	}
	om.cellsFile = f

	return om, nil
}

// WriteFrame appends one recorded frame's cell states to cells.csv.
func (om *OutputManager) WriteFrame(cells []CellState) error {
	if om == nil {
		return nil
	}

	if !om.cellsHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(cells, om.cellsFile); err != nil {
			return fmt.Errorf("writing cells: %w", err)
		}
		om.cellsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(cells, om.cellsFile); err != nil {
			return fmt.Errorf("writing cells: %w", err)
		}
	}

	return nil
}

// WriteSeries saves the full recorded time series as JSON.
func (om *OutputManager) WriteSeries(s *Series) error {
	return om.writeJSON("series.json", s)
}

// WriteWorld saves the final physics world snapshot as JSON.
func (om *OutputManager) WriteWorld(w *WorldSnapshot) error {
	return om.writeJSON("world.json", w)
}

// WriteHistoric saves the historic cell record as JSON.
func (om *OutputManager) WriteHistoric(h *HistoricRecord) error {
	return om.writeJSON("historic.json", h)
}

// WriteSummary saves the run summary as JSON.
func (om *OutputManager) WriteSummary(sum Summary) error {
	return om.writeJSON("summary.json", sum)
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

func (om *OutputManager) writeJSON(name string, v any) error {
	if om == nil {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, name), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes the streaming output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	if om.cellsFile != nil {
		return om.cellsFile.Close()
	}
	return nil
}
