package policy

import (
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/lazypower/memboost/internal/config"
	"github.com/lazypower/memboost/internal/procs"
)

func testPolicy() config.Policy {
	p := config.Default()
	p.RSSThresholdMB = 500
	p.RecentCPUWindow = 30 * time.Second
	return p
}

func TestClassifyTiers(t *testing.T) {
	pol := testPolicy()

	tests := []struct {
		name string
		rec  procs.Record
		want Tier
	}{
		{"system process", procs.Record{PID: 1, Name: "launchd"}, TierForbidden},
		{"pid zero", procs.Record{PID: 0, Name: "swapper"}, TierForbidden},
		{"foreground", procs.Record{PID: 4000, Name: "editor", RSSMB: 600, Foreground: true}, TierDangerous},
		{"critical pattern", procs.Record{PID: 4000, Name: "SystemHelper", RSSMB: 600}, TierDangerous},
		{"low pid", procs.Record{PID: 42, Name: "helper", RSSMB: 600}, TierDangerous},
		{"large and idle", procs.Record{PID: 4000, Name: "cache-hog", RSSMB: 1200, CPUTime: 5 * time.Second}, TierSafe},
		{"large but active", procs.Record{PID: 4000, Name: "crunch", RSSMB: 1200, CPUTime: 2 * time.Minute}, TierRisky},
		{"barely over threshold", procs.Record{PID: 4000, Name: "modest", RSSMB: 600}, TierRisky},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Classify(tt.rec, pol)
			if got != tt.want {
				t.Errorf("Classify(%s) = %v (%s), want %v", tt.rec.Name, got, reason, tt.want)
			}
		})
	}
}

func TestClassifyOwnProcessForbidden(t *testing.T) {
	pol := testPolicy()
	rec := procs.Record{PID: os.Getpid(), Name: "memboost.test", RSSMB: 9000}
	got, _ := Classify(rec, pol)
	if got != TierForbidden {
		t.Errorf("Classify(own pid) = %v, want forbidden", got)
	}
}

func TestSelectFilters(t *testing.T) {
	pol := testPolicy()
	pol.DenyList = []string{"denied-app"}

	records := []procs.Record{
		{PID: 10, Name: "big-idle", RSSMB: 1500},
		{PID: 11, Name: "WindowServer", RSSMB: 1400},          // allow-listed
		{PID: 12, Name: "denied-app", RSSMB: 1300},            // deny-listed
		{PID: 13, Name: "front", RSSMB: 1200, Foreground: true},
		{PID: 14, Name: "tiny", RSSMB: 100},                   // under threshold
		{PID: 15, Name: "medium", RSSMB: 700},
	}

	got := Select(records, pol)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}
	if got[0].Name != "big-idle" || got[1].Name != "medium" {
		t.Errorf("candidates = %s, %s; want big-idle, medium", got[0].Name, got[1].Name)
	}
}

func TestSelectAllowListAbsolute(t *testing.T) {
	pol := testPolicy()
	// Allow-listed names are protected even when huge, idle, and also
	// deny-listed.
	pol.AllowList = []string{"protected"}
	pol.DenyList = []string{"protected"}

	records := []procs.Record{
		{PID: 10, Name: "protected", RSSMB: 50000},
	}
	if got := Select(records, pol); len(got) != 0 {
		t.Errorf("allow-listed process selected: %+v", got)
	}
}

func TestSelectDeterministic(t *testing.T) {
	pol := testPolicy()
	records := []procs.Record{
		{PID: 10, Name: "a", RSSMB: 900},
		{PID: 20, Name: "b", RSSMB: 800},
		{PID: 30, Name: "c", RSSMB: 700},
	}

	first := Select(records, pol)
	for i := 0; i < 10; i++ {
		if got := Select(records, pol); !reflect.DeepEqual(got, first) {
			t.Fatalf("Select not deterministic on run %d", i)
		}
	}

	// Output preserves input (descending RSS) order.
	for i := 1; i < len(first); i++ {
		if first[i-1].RSSMB < first[i].RSSMB {
			t.Errorf("order not preserved at %d", i)
		}
	}
}

func TestAutoEligible(t *testing.T) {
	pol := testPolicy()

	safe := Candidate{Tier: TierSafe}
	risky := Candidate{Tier: TierRisky}
	dangerous := Candidate{Tier: TierDangerous}
	forbidden := Candidate{Tier: TierForbidden}

	if !AutoEligible(safe, pol) {
		t.Error("safe must be auto-eligible")
	}
	if AutoEligible(risky, pol) {
		t.Error("risky must not be auto-eligible while confirmation is required")
	}
	pol.RequireConfirmation = false
	if !AutoEligible(risky, pol) {
		t.Error("risky should be auto-eligible once confirmation is waived")
	}
	if AutoEligible(dangerous, pol) || AutoEligible(forbidden, pol) {
		t.Error("dangerous and forbidden must never be auto-eligible")
	}
}

func TestForegroundLargeIsDangerousNotAuto(t *testing.T) {
	pol := testPolicy()
	pol.EnableTermination = true

	rec := procs.Record{PID: 5000, Name: "bigfront", RSSMB: 600, Foreground: true}
	tier, _ := Classify(rec, pol)
	if tier != TierDangerous {
		t.Fatalf("tier = %v, want dangerous", tier)
	}
	if AutoEligible(Candidate{Record: rec, Tier: tier}, pol) {
		t.Error("foreground process must never be auto-terminated")
	}
}
