package procs

import (
	"reflect"
	"testing"
)

func sampleRecords() []Record {
	return []Record{
		{PID: 40, Name: "small", RSSMB: 50},
		{PID: 10, Name: "big", RSSMB: 900},
		{PID: 30, Name: "tied-high-pid", RSSMB: 300},
		{PID: 20, Name: "tied-low-pid", RSSMB: 300},
	}
}

func TestSortByRSS(t *testing.T) {
	records := sampleRecords()
	SortByRSS(records)

	wantPIDs := []int{10, 20, 30, 40}
	for i, want := range wantPIDs {
		if records[i].PID != want {
			t.Errorf("records[%d].PID = %d, want %d", i, records[i].PID, want)
		}
	}
}

func TestSortByRSSDeterministic(t *testing.T) {
	a := sampleRecords()
	b := sampleRecords()
	// Different starting permutation, same contents.
	b[0], b[3] = b[3], b[0]

	SortByRSS(a)
	SortByRSS(b)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("sort not deterministic:\n a=%v\n b=%v", a, b)
	}
}

func TestTopN(t *testing.T) {
	records := sampleRecords()
	SortByRSS(records)

	top := TopN(records, 2)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].PID != 10 || top[1].PID != 20 {
		t.Errorf("top PIDs = %d, %d; want 10, 20", top[0].PID, top[1].PID)
	}

	// Truncation never mutates the input.
	top[0].Name = "mutated"
	if records[0].Name != "big" {
		t.Error("TopN mutated the underlying list")
	}
}

func TestTopNBounds(t *testing.T) {
	records := sampleRecords()
	if got := TopN(records, 100); len(got) != len(records) {
		t.Errorf("TopN(100) len = %d, want %d", len(got), len(records))
	}
	if got := TopN(records, 0); len(got) != 0 {
		t.Errorf("TopN(0) len = %d, want 0", len(got))
	}
	if got := TopN(records, -5); len(got) != 0 {
		t.Errorf("TopN(-5) len = %d, want 0", len(got))
	}
}
