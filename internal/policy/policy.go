// Package policy decides which processes may be reclaimed and how safely.
// Everything here is a pure function of its inputs so the rules stay
// deterministic and testable.
package policy

import (
	"os"
	"strings"

	"github.com/lazypower/memboost/internal/config"
	"github.com/lazypower/memboost/internal/procs"
)

// Tier is the safety classification gating whether a candidate may be
// terminated automatically.
//
//	Safe      — eligible for automatic termination
//	Risky     — eligible only with confirmation
//	Dangerous — requires explicit interactive confirmation, never automatic
//	Forbidden — can never be terminated, regardless of configuration
type Tier string

const (
	TierSafe      Tier = "safe"
	TierRisky     Tier = "risky"
	TierDangerous Tier = "dangerous"
	TierForbidden Tier = "forbidden"
)

// Candidate is a process offered for termination together with its tier.
type Candidate struct {
	procs.Record
	Tier   Tier   `json:"tier"`
	Reason string `json:"reason"`
}

// systemProcesses may never be terminated under any configuration.
var systemProcesses = map[string]bool{
	"kernel_task":      true,
	"launchd":          true,
	"WindowServer":     true,
	"loginwindow":      true,
	"SystemUIServer":   true,
	"Dock":             true,
	"Finder":           true,
	"sudo":             true,
	"su":               true,
	"ssh":              true,
	"sshd":             true,
	"systemd":          true,
	"init":             true,
	"kthreadd":         true,
	"watchdog":         true,
	"systemd-logind":   true,
	"systemd-networkd": true,
	"systemd-resolved": true,
}

// criticalPatterns mark processes that look system-adjacent. Matching is
// case-insensitive substring.
var criticalPatterns = []string{
	"kernel",
	"system",
	"security",
	"coreaudio",
	"bluetooth",
	"wifi",
}

// lowPIDCeiling: below this, a process is almost certainly part of early
// system bring-up.
const lowPIDCeiling = 100

// safeRSSFactor: a candidate is only ever Safe when its resident memory
// is well clear of the threshold, not just over the line.
const safeRSSFactor = 2

// Classify assigns a safety tier to a single process record.
func Classify(rec procs.Record, pol config.Policy) (Tier, string) {
	if systemProcesses[rec.Name] {
		return TierForbidden, "system process"
	}
	if rec.PID == 0 {
		return TierForbidden, "pid 0"
	}
	if rec.PID == os.Getpid() {
		return TierForbidden, "own process"
	}

	if rec.Foreground {
		return TierDangerous, "foreground process"
	}
	lower := strings.ToLower(rec.Name)
	for _, pattern := range criticalPatterns {
		if strings.Contains(lower, pattern) {
			return TierDangerous, "name matches critical pattern " + pattern
		}
	}
	if rec.PID < lowPIDCeiling {
		return TierDangerous, "low pid suggests system process"
	}

	recentlyActive := rec.CPUTime >= pol.RecentCPUWindow
	if rec.RSSMB >= safeRSSFactor*pol.RSSThresholdMB && !recentlyActive {
		return TierSafe, "large and idle"
	}
	return TierRisky, "no strong safety signal"
}

// Select filters and ranks an inventory into termination candidates.
// The allow-list is absolute protection: it is checked first and
// short-circuits every other rule. Deny-listed, foreground, and
// under-threshold processes are excluded. Input order (descending RSS)
// is preserved, and identical inputs always yield identical output.
func Select(records []procs.Record, pol config.Policy) []Candidate {
	var out []Candidate
	for _, rec := range records {
		if pol.Allowed(rec.Name) {
			continue
		}
		if pol.Denied(rec.Name) {
			continue
		}
		if rec.Foreground {
			continue
		}
		if rec.RSSMB < pol.RSSThresholdMB {
			continue
		}
		tier, reason := Classify(rec, pol)
		out = append(out, Candidate{Record: rec, Tier: tier, Reason: reason})
	}
	return out
}

// AutoEligible reports whether a candidate may be terminated without any
// interactive confirmation. Only Safe qualifies; Risky needs the policy
// to waive confirmation, and Dangerous and Forbidden never qualify.
func AutoEligible(c Candidate, pol config.Policy) bool {
	switch c.Tier {
	case TierSafe:
		return true
	case TierRisky:
		return !pol.RequireConfirmation
	default:
		return false
	}
}
