//go:build linux

package stats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const meminfoPath = "/proc/meminfo"

// readSystem reads /proc/meminfo. MemAvailable stands in for "free":
// raw MemFree on Linux is mostly page cache headroom and would report
// permanent critical pressure on any warm system.
func readSystem() (Snapshot, error) {
	f, err := os.Open(meminfoPath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read memory counters: %w", err)
	}
	defer f.Close()
	return parseMeminfo(f)
}

func parseMeminfo(f io.Reader) (Snapshot, error) {
	fields := map[string]uint64{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value := strings.TrimSuffix(strings.TrimSpace(rest), " kB")
		kb, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			continue
		}
		fields[name] = kb
	}
	if err := scanner.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("scan meminfo: %w", err)
	}
	if fields["MemTotal"] == 0 {
		return Snapshot{}, fmt.Errorf("meminfo missing MemTotal")
	}

	kbToMB := func(name string) uint64 { return fields[name] / 1024 }

	free := kbToMB("MemAvailable")
	if free == 0 {
		free = kbToMB("MemFree")
	}

	snap := Snapshot{
		TotalMB:    kbToMB("MemTotal"),
		FreeMB:     free,
		ActiveMB:   kbToMB("Active"),
		InactiveMB: kbToMB("Inactive"),
		WiredMB:    kbToMB("Unevictable"),
		// Zswap is absent on kernels without zswap; zero means "none".
		CompressedMB: kbToMB("Zswap"),
	}
	snap.Pressure = Classify(snap.TotalMB, snap.FreeMB, snap.CompressedMB)
	return snap, nil
}
