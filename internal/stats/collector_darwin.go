//go:build darwin

package stats

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const bytesPerMB = 1024 * 1024

// readSystem combines sysctl hw.memsize with vm_stat page counters.
func readSystem() (Snapshot, error) {
	total, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return Snapshot{}, fmt.Errorf("sysctl hw.memsize: %w", err)
	}

	out, err := exec.Command("/usr/bin/vm_stat").Output()
	if err != nil {
		return Snapshot{}, fmt.Errorf("run vm_stat: %w", err)
	}

	pageSize, pages, err := parseVMStat(string(out))
	if err != nil {
		return Snapshot{}, err
	}

	toMB := func(name string) uint64 { return pages[name] * pageSize / bytesPerMB }

	snap := Snapshot{
		TotalMB:      total / bytesPerMB,
		FreeMB:       toMB("Pages free"),
		ActiveMB:     toMB("Pages active"),
		InactiveMB:   toMB("Pages inactive"),
		WiredMB:      toMB("Pages wired down"),
		CompressedMB: toMB("Pages occupied by compressor"),
	}
	snap.Pressure = Classify(snap.TotalMB, snap.FreeMB, snap.CompressedMB)
	return snap, nil
}

func parseVMStat(out string) (pageSize uint64, pages map[string]uint64, err error) {
	pageSize = 4096
	pages = map[string]uint64{}

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Mach Virtual Memory Statistics") {
			// "(page size of 16384 bytes)"
			if i := strings.Index(line, "page size of "); i >= 0 {
				rest := line[i+len("page size of "):]
				if j := strings.IndexByte(rest, ' '); j > 0 {
					if n, perr := strconv.ParseUint(rest[:j], 10, 64); perr == nil {
						pageSize = n
					}
				}
			}
			continue
		}
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value := strings.TrimSuffix(strings.TrimSpace(rest), ".")
		n, perr := strconv.ParseUint(value, 10, 64)
		if perr != nil {
			continue
		}
		pages[strings.TrimSpace(name)] = n
	}

	if len(pages) == 0 {
		return 0, nil, fmt.Errorf("vm_stat output had no page counters")
	}
	return pageSize, pages, nil
}
