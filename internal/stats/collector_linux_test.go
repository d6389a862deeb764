//go:build linux

package stats

import (
	"strings"
	"testing"
)

const sampleMeminfo = `MemTotal:       16256916 kB
MemFree:          671240 kB
MemAvailable:    8123456 kB
Buffers:          402132 kB
Cached:          6230944 kB
Active:          5842328 kB
Inactive:        7523400 kB
Unevictable:       96420 kB
Zswap:            204800 kB
SwapTotal:       2097148 kB
SwapFree:        2097148 kB
`

func TestParseMeminfo(t *testing.T) {
	snap, err := parseMeminfo(strings.NewReader(sampleMeminfo))
	if err != nil {
		t.Fatalf("parseMeminfo: %v", err)
	}

	if snap.TotalMB != 16256916/1024 {
		t.Errorf("TotalMB = %d, want %d", snap.TotalMB, 16256916/1024)
	}
	// MemAvailable preferred over MemFree.
	if snap.FreeMB != 8123456/1024 {
		t.Errorf("FreeMB = %d, want %d", snap.FreeMB, 8123456/1024)
	}
	if snap.ActiveMB != 5842328/1024 {
		t.Errorf("ActiveMB = %d, want %d", snap.ActiveMB, 5842328/1024)
	}
	if snap.WiredMB != 96420/1024 {
		t.Errorf("WiredMB = %d, want %d", snap.WiredMB, 96420/1024)
	}
	if snap.CompressedMB != 204800/1024 {
		t.Errorf("CompressedMB = %d, want %d", snap.CompressedMB, 204800/1024)
	}
	if snap.Pressure != PressureNormal {
		t.Errorf("Pressure = %v, want normal", snap.Pressure)
	}
}

func TestParseMeminfoMissingTotal(t *testing.T) {
	_, err := parseMeminfo(strings.NewReader("Buffers: 1234 kB\n"))
	if err == nil {
		t.Error("expected error for meminfo without MemTotal")
	}
}

func TestParseMeminfoFallsBackToMemFree(t *testing.T) {
	in := "MemTotal: 1048576 kB\nMemFree: 524288 kB\n"
	snap, err := parseMeminfo(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parseMeminfo: %v", err)
	}
	if snap.FreeMB != 512 {
		t.Errorf("FreeMB = %d, want 512", snap.FreeMB)
	}
}
