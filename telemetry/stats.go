package telemetry

import "gonum.org/v1/gonum/stat"

// Summary aggregates a finished run for quick inspection.
type Summary struct {
	FramesRecorded int     `json:"frames_recorded"`
	FinalCells     int     `json:"final_cells"`
	PeakCells      int     `json:"peak_cells"`
	TotalCells     int     `json:"total_cells"`
	Divisions      int     `json:"divisions"`
	MeanLength     float64 `json:"mean_length"`
	StdDevLength   float64 `json:"stddev_length"`
	MeanWidth      float64 `json:"mean_width"`
}

// Summarize computes run statistics over the recorded series and the
// historic cell record.
func Summarize(s *Series, h *HistoricRecord) Summary {
	sum := Summary{
		FramesRecorded: s.Len(),
		TotalCells:     h.Len(),
	}
	if h.Len() > 0 {
		// Every non-seed cell is the product of exactly one division.
		sum.Divisions = h.Len() - 1
	}

	for _, f := range s.Frames {
		if len(f.Cells) > sum.PeakCells {
			sum.PeakCells = len(f.Cells)
		}
	}

	if s.Len() == 0 {
		return sum
	}

	final := s.Frames[s.Len()-1].Cells
	sum.FinalCells = len(final)
	if len(final) == 0 {
		return sum
	}

	lengths := make([]float64, len(final))
	widths := make([]float64, len(final))
	for i, c := range final {
		lengths[i] = c.Length
		widths[i] = c.Width
	}
	sum.MeanLength = stat.Mean(lengths, nil)
	sum.MeanWidth = stat.Mean(widths, nil)
	if len(lengths) > 1 {
		sum.StdDevLength = stat.StdDev(lengths, nil)
	}
	return sum
}
