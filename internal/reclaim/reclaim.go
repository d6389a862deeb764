// Package reclaim executes the graduated reclamation pipeline: cache
// purge first, then optional process termination, bracketed by before
// and after memory snapshots and recorded in the event log.
package reclaim

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lazypower/memboost/internal/config"
	"github.com/lazypower/memboost/internal/policy"
	"github.com/lazypower/memboost/internal/procs"
	"github.com/lazypower/memboost/internal/stats"
	"github.com/lazypower/memboost/internal/store"
)

// DefaultGracePeriod is how long a process gets to exit after SIGTERM
// before a (caller-confirmed) SIGKILL is considered.
const DefaultGracePeriod = 2 * time.Second

// Purger invokes the OS cache-reclaim facility.
type Purger interface {
	Purge(ctx context.Context) (time.Duration, error)
}

// Signaler delivers termination signals and checks liveness.
type Signaler interface {
	Terminate(pid int) error // graceful (SIGTERM)
	Kill(pid int) error      // forceful (SIGKILL)
	Alive(pid int) bool
}

// Options control one Boost invocation.
type Options struct {
	// Trigger is store.TriggerManual or store.TriggerAuto.
	Trigger string

	// AllowTerminate permits the termination stage. It is ANDed with
	// the policy's enable_termination; both must hold.
	AllowTerminate bool

	// Confirm, when non-nil, is asked to approve candidates that are
	// not auto-eligible. Forbidden candidates are never offered to it.
	Confirm func(policy.Candidate) bool

	// Force escalates to SIGKILL for processes that survive the grace
	// period. The orchestrator never escalates on its own.
	Force bool
}

// PurgeDetail records the purge stage outcome.
type PurgeDetail struct {
	OK        bool   `json:"ok"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Error     string `json:"error,omitempty"`
}

// Termination outcomes.
const (
	OutcomeTerminated = "terminated" // exited within the grace period
	OutcomeKilled     = "killed"     // survived SIGTERM, SIGKILL sent
	OutcomeSurvived   = "survived"   // survived SIGTERM, no escalation
	OutcomeRefused    = "refused"    // tier or confirmation blocked it
	OutcomeFailed     = "failed"     // signal delivery error
)

// TermDetail records one candidate's fate.
type TermDetail struct {
	PID     int         `json:"pid"`
	Name    string      `json:"name"`
	RSSMB   uint64      `json:"rss_mb"`
	Tier    policy.Tier `json:"tier"`
	Outcome string      `json:"outcome"`
	Reason  string      `json:"reason,omitempty"`
}

// Details is the structured payload stored with every boost event.
type Details struct {
	Purge        PurgeDetail  `json:"purge"`
	Terminations []TermDetail `json:"terminations,omitempty"`
}

// Result couples the emitted event with a log-write error, which is
// surfaced separately so a storage problem never masks the reclaim
// outcome.
type Result struct {
	Event  store.Event
	LogErr error
}

// Orchestrator runs boosts. At most one boost executes at a time:
// concurrent manual and automatic triggers serialize on the mutex so
// before/after snapshots always bracket exactly one action.
type Orchestrator struct {
	mu sync.Mutex

	Stats    stats.Collector
	Procs    procs.Enumerator
	Purger   Purger
	Signaler Signaler
	Log      *store.DB
	Policy   config.Policy

	// GracePeriod overrides DefaultGracePeriod when positive.
	GracePeriod time.Duration
}

// New wires an orchestrator against the real OS collaborators.
func New(db *store.DB, pol config.Policy) *Orchestrator {
	return &Orchestrator{
		Stats:    stats.System(),
		Procs:    procs.System(),
		Purger:   SystemPurger{},
		Signaler: SystemSignaler{},
		Log:      db,
		Policy:   pol,
	}
}

func (o *Orchestrator) grace() time.Duration {
	if o.GracePeriod > 0 {
		return o.GracePeriod
	}
	return DefaultGracePeriod
}

// Boost runs one complete reclaim operation. The before snapshot must
// succeed or nothing destructive happens and no event is emitted; after
// the purge starts, the operation runs to completion and always records
// exactly one event reflecting the true end state. Purge failure
// degrades to a recorded no-op rather than aborting.
func (o *Orchestrator) Boost(ctx context.Context, opts Options) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	before, err := o.Stats.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read before snapshot: %w", err)
	}

	var details Details

	elapsed, purgeErr := o.Purger.Purge(ctx)
	details.Purge = PurgeDetail{
		OK:        purgeErr == nil,
		ElapsedMS: elapsed.Milliseconds(),
	}
	if purgeErr != nil {
		details.Purge.Error = purgeErr.Error()
		log.Printf("boost: purge unavailable: %v", purgeErr)
	}

	action := store.ActionPurge
	if opts.AllowTerminate && o.Policy.EnableTermination {
		action = store.ActionPurgeTerminate
		details.Terminations = o.terminate(opts)
	}

	after, err := o.Stats.Read()
	if err != nil {
		// The action already ran; without an after snapshot the delta
		// would be fabricated, so report failure instead of logging an
		// idealized record.
		return Result{}, fmt.Errorf("read after snapshot: %w", err)
	}

	event := store.NewEvent(action, opts.Trigger)
	event.Before = before
	event.After = after
	event.DeltaMB = int64(after.FreeMB) - int64(before.FreeMB)
	event.Pressure = before.Pressure

	payload, err := json.Marshal(details)
	if err != nil {
		return Result{}, fmt.Errorf("marshal event details: %w", err)
	}
	event.Details = payload

	res := Result{Event: event}
	if err := o.Log.Append(event); err != nil {
		res.LogErr = fmt.Errorf("append event: %w", err)
		log.Printf("boost: event log write failed: %v", res.LogErr)
	}
	return res, nil
}

// terminate runs the termination stage against a fresh enumeration.
// The most recent inventory is always used; stale candidate lists would
// act on reused PIDs.
func (o *Orchestrator) terminate(opts Options) []TermDetail {
	records, err := o.Procs.List()
	if err != nil {
		log.Printf("boost: enumerate processes: %v", err)
		return nil
	}

	var outcomes []TermDetail
	for _, cand := range policy.Select(records, o.Policy) {
		outcomes = append(outcomes, o.terminateOne(cand, opts))
	}
	return outcomes
}

func (o *Orchestrator) terminateOne(cand policy.Candidate, opts Options) TermDetail {
	detail := TermDetail{
		PID:   cand.PID,
		Name:  cand.Name,
		RSSMB: cand.RSSMB,
		Tier:  cand.Tier,
	}

	if cand.Tier == policy.TierForbidden {
		detail.Outcome = OutcomeRefused
		detail.Reason = cand.Reason
		return detail
	}
	if !policy.AutoEligible(cand, o.Policy) {
		if opts.Confirm == nil || !opts.Confirm(cand) {
			detail.Outcome = OutcomeRefused
			detail.Reason = "not confirmed"
			return detail
		}
	}

	if err := o.Signaler.Terminate(cand.PID); err != nil {
		detail.Outcome = OutcomeFailed
		detail.Reason = err.Error()
		return detail
	}

	time.Sleep(o.grace())

	if !o.Signaler.Alive(cand.PID) {
		detail.Outcome = OutcomeTerminated
		return detail
	}
	if opts.Force {
		if err := o.Signaler.Kill(cand.PID); err != nil {
			detail.Outcome = OutcomeFailed
			detail.Reason = err.Error()
			return detail
		}
		detail.Outcome = OutcomeKilled
		return detail
	}
	detail.Outcome = OutcomeSurvived
	return detail
}
