// Package telemetry records the simulation's geometric time series and
// writes the artifacts consumed by the downstream image pipeline.
package telemetry

// CellState is a value snapshot of one cell at one point in time. It carries
// no pointers, so a recorded frame is immune to later mutation of the live
// cells. Lineage is expressed through mask labels rather than references.
type CellState struct {
	Label         int     `json:"label" csv:"label"`
	Frame         int     `json:"frame" csv:"frame"`
	Length        float64 `json:"length" csv:"length"`
	Width         float64 `json:"width" csv:"width"`
	X             float64 `json:"x" csv:"x"`
	Y             float64 `json:"y" csv:"y"`
	Angle         float64 `json:"angle" csv:"angle"`
	MaxLength     float64 `json:"max_length" csv:"max_length"`
	GrowthRate    float64 `json:"growth_rate" csv:"growth_rate"`
	LysisP        float64 `json:"lysis_p" csv:"lysis_p"`
	Generation    int     `json:"generation" csv:"generation"`
	Divisions     int     `json:"divisions" csv:"divisions"`
	Alive         bool    `json:"alive" csv:"alive"`
	MotherLabel   int     `json:"mother_label" csv:"mother_label"`     // 0 = seed cell
	DaughterLabel int     `json:"daughter_label" csv:"daughter_label"` // 0 = no division yet
}

// Frame is one recorded timestep.
type Frame struct {
	Index int         `json:"index"` // simulation frame counter at record time
	Cells []CellState `json:"cells"`
}

// Series is the insertion-ordered time series of recorded frames.
type Series struct {
	Frames []Frame `json:"frames"`
}

// Append records one frame. The cells slice is owned by the series after the
// call; callers pass freshly built value snapshots.
func (s *Series) Append(index int, cells []CellState) {
	s.Frames = append(s.Frames, Frame{Index: index, Cells: cells})
}

// Len reports the number of recorded frames.
func (s *Series) Len() int {
	return len(s.Frames)
}

// StampFrames rewrites each recorded cell's frame field with the position of
// its containing frame in the series. Idempotent; called once at
// finalization.
func (s *Series) StampFrames() {
	for i := range s.Frames {
		cells := s.Frames[i].Cells
		for j := range cells {
			cells[j].Frame = i
		}
	}
}

// HistoricRecord is the append-only record of every cell ever created,
// including lysed and washed-out ones, kept for lineage reconstruction.
type HistoricRecord struct {
	Cells []CellState `json:"cells"`
}

// Append adds one newly created cell to the record.
func (h *HistoricRecord) Append(c CellState) {
	h.Cells = append(h.Cells, c)
}

// Len reports the number of cells ever created.
func (h *HistoricRecord) Len() int {
	return len(h.Cells)
}

// SegmentState is one static wall segment of the serialized world.
type SegmentState struct {
	AX     float64 `json:"ax"`
	AY     float64 `json:"ay"`
	BX     float64 `json:"bx"`
	BY     float64 `json:"by"`
	Radius float64 `json:"radius"`
}

// BodyState is one dynamic body of the serialized world.
type BodyState struct {
	Label  int     `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Angle  float64 `json:"angle"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
}

// WorldSnapshot is a serializable picture of the physics world at run end.
type WorldSnapshot struct {
	Gravity       float64        `json:"gravity"`
	CollisionSlop float64        `json:"collision_slop"`
	Static        []SegmentState `json:"static"`
	Bodies        []BodyState    `json:"bodies"`
}
