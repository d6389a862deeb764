package stats

// PressureLevel classifies how scarce memory is on the host.
type PressureLevel string

const (
	PressureNormal   PressureLevel = "normal"
	PressureWarning  PressureLevel = "warning"
	PressureCritical PressureLevel = "critical"
)

// Pressure classification thresholds. These are design constants, not
// policy: candidate-selection tuning lives in config.Policy instead.
const (
	criticalFreeRatio       = 0.05
	criticalCompressedRatio = 0.30
	warningFreeRatio        = 0.15
	warningCompressedRatio  = 0.20
)

// Snapshot is an immutable reading of host memory counters, taken in a
// single kernel read. A fresh one is produced on every Read call.
type Snapshot struct {
	TotalMB      uint64        `json:"total_mb"`
	FreeMB       uint64        `json:"free_mb"`
	ActiveMB     uint64        `json:"active_mb"`
	InactiveMB   uint64        `json:"inactive_mb"`
	WiredMB      uint64        `json:"wired_mb"`
	CompressedMB uint64        `json:"compressed_mb"`
	Pressure     PressureLevel `json:"pressure"`
}

// Classify derives the pressure level for a set of counters.
func Classify(totalMB, freeMB, compressedMB uint64) PressureLevel {
	if totalMB == 0 {
		return PressureNormal
	}
	freeRatio := float64(freeMB) / float64(totalMB)
	compressedRatio := float64(compressedMB) / float64(totalMB)

	switch {
	case freeRatio < criticalFreeRatio || compressedRatio > criticalCompressedRatio:
		return PressureCritical
	case freeRatio < warningFreeRatio || compressedRatio > warningCompressedRatio:
		return PressureWarning
	default:
		return PressureNormal
	}
}

// Collector reads host memory counters. Implementations must not cache:
// callers rely on every Read reflecting the current state of the kernel.
type Collector interface {
	Read() (Snapshot, error)
}

// CollectorFunc adapts a function to the Collector interface.
type CollectorFunc func() (Snapshot, error)

func (f CollectorFunc) Read() (Snapshot, error) { return f() }

// System returns the Collector for the running OS.
func System() Collector {
	return CollectorFunc(readSystem)
}
