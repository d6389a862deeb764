//go:build darwin

package procs

import (
	"bufio"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

func listSystem() ([]Record, error) {
	out, err := exec.Command("/bin/ps", "axo", "pid=,rss=,time=,comm=").Output()
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	frontPID := frontmostPID()

	var records []Record
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		rec, err := parsePSLine(scanner.Text())
		if err != nil {
			continue
		}
		rec.Foreground = frontPID > 0 && rec.PID == frontPID
		records = append(records, rec)
	}
	return records, nil
}

func parsePSLine(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Record{}, fmt.Errorf("short ps line")
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil {
		return Record{}, err
	}
	rssKB, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Record{}, err
	}
	cpu := parsePSTime(fields[2])

	// comm is the full executable path and may contain spaces.
	comm := strings.Join(fields[3:], " ")
	name := comm
	if i := strings.LastIndexByte(comm, '/'); i >= 0 {
		name = comm[i+1:]
	}

	return Record{
		PID:     pid,
		Name:    name,
		RSSMB:   rssKB / 1024,
		CPUTime: cpu,
	}, nil
}

// parsePSTime parses ps TIME values: [[dd-]hh:]mm:ss.cc
func parsePSTime(s string) time.Duration {
	var days int64
	if d, rest, ok := strings.Cut(s, "-"); ok {
		days, _ = strconv.ParseInt(d, 10, 64)
		s = rest
	}
	parts := strings.Split(s, ":")
	var total float64
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0
		}
		total = total*60 + f
	}
	return time.Duration(days)*24*time.Hour + time.Duration(total*float64(time.Second))
}

// frontmostPID asks System Events for the frontmost application's pid.
// Best effort: 0 means unknown, and no record is flagged foreground.
func frontmostPID() int {
	out, err := exec.Command("/usr/bin/osascript", "-e",
		`tell application "System Events" to unix id of first process whose frontmost is true`).Output()
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0
	}
	return pid
}
