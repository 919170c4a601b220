package substrate

import (
	"fmt"
	"strings"
)

// Status is a point-in-time health summary of the grid, shaped for a
// metrics exporter living outside this package.
type Status struct {
	Initialized  bool
	CellCount    int
	GlobalTime   uint64
	Checksum     uint32
	ReadCount    uint32
	WriteCount   uint32
	AvgMagnitude float64
	MaxMagnitude float64
	AvgCoherence float64
}

// Status computes the current health summary. It never fails; on an
// uninitialized substrate only Initialized is meaningful.
func (s *Substrate) Status() Status {
	st := Status{
		Initialized: s.initialized,
		CellCount:   CellCount,
		GlobalTime:  s.globalTime,
		Checksum:    s.checksum,
		ReadCount:   s.readCount,
		WriteCount:  s.writeCount,
	}
	if !s.initialized {
		return st
	}

	var totalMag, totalCoh float64
	for i := range s.cells {
		totalMag += s.cells[i].Magnitude
		totalCoh += s.cells[i].Coherence
		if s.cells[i].Magnitude > st.MaxMagnitude {
			st.MaxMagnitude = s.cells[i].Magnitude
		}
	}
	st.AvgMagnitude = totalMag / CellCount
	st.AvgCoherence = totalCoh / CellCount
	return st
}

// String renders the summary in the reference report layout.
func (st Status) String() string {
	if !st.Initialized {
		return "Substrate Status: NOT INITIALIZED"
	}
	var b strings.Builder
	b.WriteString("=== Substrate Core Status ===\n")
	fmt.Fprintf(&b, "Cell Count:     %d\n", st.CellCount)
	fmt.Fprintf(&b, "Global Time:    %d\n", st.GlobalTime)
	fmt.Fprintf(&b, "Checksum:       0x%08X\n", st.Checksum)
	fmt.Fprintf(&b, "Read Ops:       %d\n", st.ReadCount)
	fmt.Fprintf(&b, "Write Ops:      %d\n", st.WriteCount)
	fmt.Fprintf(&b, "Avg Magnitude:  %.2f\n", st.AvgMagnitude)
	fmt.Fprintf(&b, "Max Magnitude:  %.2f\n", st.MaxMagnitude)
	fmt.Fprintf(&b, "Avg Coherence:  %.2f\n", st.AvgCoherence)
	b.WriteString("=============================")
	return b.String()
}
