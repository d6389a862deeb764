//go:build linux

package procs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// userHZ is the kernel's clock tick for /proc/<pid>/stat time fields.
// Fixed at 100 on every supported architecture.
const userHZ = 100

func listSystem() ([]Record, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	var records []Record
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		rec, err := readProcess(pid)
		if err != nil {
			// Process exited mid-scan. Drop the record.
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func readProcess(pid int) (Record, error) {
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return Record{}, err
	}
	rec, err := parseStat(pid, string(stat))
	if err != nil {
		return Record{}, err
	}

	statm, err := os.ReadFile(fmt.Sprintf("/proc/%d/statm", pid))
	if err != nil {
		return Record{}, err
	}
	fields := strings.Fields(string(statm))
	if len(fields) >= 2 {
		pages, _ := strconv.ParseUint(fields[1], 10, 64)
		rec.RSSMB = pages * uint64(os.Getpagesize()) / (1024 * 1024)
	}
	return rec, nil
}

// parseStat extracts name, CPU time, and the foreground flag from one
// /proc/<pid>/stat line. The comm field may itself contain parentheses,
// so everything up to the last ')' is the name.
func parseStat(pid int, line string) (Record, error) {
	open := strings.IndexByte(line, '(')
	closeParen := strings.LastIndexByte(line, ')')
	if open < 0 || closeParen < open {
		return Record{}, fmt.Errorf("malformed stat for pid %d", pid)
	}
	name := line[open+1 : closeParen]

	// After the comm field: [0]=state [1]=ppid [2]=pgrp [3]=session
	// [4]=tty_nr [5]=tpgid ... [11]=utime [12]=stime
	fields := strings.Fields(line[closeParen+1:])
	if len(fields) < 13 {
		return Record{}, fmt.Errorf("short stat for pid %d", pid)
	}

	pgrp, _ := strconv.Atoi(fields[2])
	ttyNr, _ := strconv.Atoi(fields[4])
	tpgid, _ := strconv.Atoi(fields[5])
	utime, _ := strconv.ParseUint(fields[11], 10, 64)
	stime, _ := strconv.ParseUint(fields[12], 10, 64)

	return Record{
		PID:     pid,
		Name:    name,
		CPUTime: time.Duration(utime+stime) * time.Second / userHZ,
		// A process whose group owns its controlling terminal is what
		// the user is interacting with right now.
		Foreground: ttyNr != 0 && tpgid == pgrp,
	}, nil
}
