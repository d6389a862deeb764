package procs

import (
	"sort"
	"time"
)

// Record describes one running process at the instant it was sampled.
// Records carry no identity across enumerations: the kernel reuses PIDs,
// so callers must act on a fresh List, never a cached one.
type Record struct {
	PID        int           `json:"pid"`
	Name       string        `json:"name"`
	RSSMB      uint64        `json:"rss_mb"`
	CPUTime    time.Duration `json:"cpu_time"`
	Foreground bool          `json:"foreground"`
}

// Enumerator lists running processes. Per-process read failures (the
// process exited mid-scan) are dropped, not surfaced.
type Enumerator interface {
	List() ([]Record, error)
}

// EnumeratorFunc adapts a function to the Enumerator interface.
type EnumeratorFunc func() ([]Record, error)

func (f EnumeratorFunc) List() ([]Record, error) { return f() }

// System returns the Enumerator for the running OS. Its List result is
// sorted with SortByRSS before being returned.
func System() Enumerator {
	return EnumeratorFunc(func() ([]Record, error) {
		records, err := listSystem()
		if err != nil {
			return nil, err
		}
		SortByRSS(records)
		return records, nil
	})
}

// SortByRSS orders records by descending resident memory, ties broken by
// ascending PID so repeated enumerations of the same state agree.
func SortByRSS(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].RSSMB != records[j].RSSMB {
			return records[i].RSSMB > records[j].RSSMB
		}
		return records[i].PID < records[j].PID
	})
}

// TopN returns the first n records of an already-sorted list. The input
// is never mutated.
func TopN(records []Record, n int) []Record {
	if n < 0 {
		n = 0
	}
	if n > len(records) {
		n = len(records)
	}
	out := make([]Record, n)
	copy(out, records[:n])
	return out
}
