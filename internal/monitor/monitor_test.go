package monitor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/lazypower/memboost/internal/stats"
)

func constantCollector(level stats.PressureLevel) stats.Collector {
	return stats.CollectorFunc(func() (stats.Snapshot, error) {
		return stats.Snapshot{TotalMB: 16384, FreeMB: 500, Pressure: level}, nil
	})
}

func TestNormalNeverTriggers(t *testing.T) {
	var boosts int32
	m := New(constantCollector(stats.PressureNormal),
		func() { atomic.AddInt32(&boosts, 1) },
		time.Hour, time.Hour)

	m.HandleTransition(stats.PressureNormal)
	m.HandleTransition(stats.PressureNormal)

	if n := atomic.LoadInt32(&boosts); n != 0 {
		t.Errorf("boosts = %d, want 0", n)
	}
	if m.State() != StateIdle {
		t.Errorf("state = %v, want idle", m.State())
	}
}

func TestWarningTriggersAndEntersCooldown(t *testing.T) {
	var boosts int32
	m := New(nil, func() { atomic.AddInt32(&boosts, 1) }, time.Hour, time.Hour)

	m.HandleTransition(stats.PressureWarning)

	if n := atomic.LoadInt32(&boosts); n != 1 {
		t.Errorf("boosts = %d, want 1", n)
	}
	if m.State() != StateCooldown {
		t.Errorf("state = %v, want cooldown", m.State())
	}
}

func TestThrottleSuppressesSecondEvent(t *testing.T) {
	var boosts int32
	// 300s throttle, two critical events 10s apart in effect: the
	// second arrives well inside the cooldown window.
	m := New(nil, func() { atomic.AddInt32(&boosts, 1) }, 300*time.Second, time.Hour)

	m.HandleTransition(stats.PressureCritical)
	m.HandleTransition(stats.PressureCritical)

	if n := atomic.LoadInt32(&boosts); n != 1 {
		t.Errorf("boosts = %d, want at most 1 inside throttle interval", n)
	}
	if m.Observed() != 1 {
		t.Errorf("observed = %d, want 1 suppressed event", m.Observed())
	}
}

func TestCooldownExpiryReturnsToIdle(t *testing.T) {
	var boosts int32
	m := New(nil, func() { atomic.AddInt32(&boosts, 1) }, 20*time.Millisecond, time.Hour)

	m.HandleTransition(stats.PressureCritical)
	if m.State() != StateCooldown {
		t.Fatalf("state = %v, want cooldown", m.State())
	}

	deadline := time.After(time.Second)
	for m.State() != StateIdle {
		select {
		case <-deadline:
			t.Fatal("cooldown never expired")
		case <-time.After(5 * time.Millisecond):
		}
	}

	m.HandleTransition(stats.PressureCritical)
	if n := atomic.LoadInt32(&boosts); n != 2 {
		t.Errorf("boosts = %d, want 2 after cooldown expiry", n)
	}
}

func TestStartSamplerFiresOnPressure(t *testing.T) {
	var boosts int32
	m := New(constantCollector(stats.PressureCritical),
		func() { atomic.AddInt32(&boosts, 1) },
		time.Hour, 5*time.Millisecond)

	m.Start()
	defer m.Stop()

	deadline := time.After(time.Second)
	for atomic.LoadInt32(&boosts) == 0 {
		select {
		case <-deadline:
			t.Fatal("sampler never triggered a boost")
		case <-time.After(5 * time.Millisecond):
		}
	}

	// Sustained pressure inside the throttle window: still one boost.
	time.Sleep(30 * time.Millisecond)
	if n := atomic.LoadInt32(&boosts); n != 1 {
		t.Errorf("boosts = %d, want 1 under sustained pressure", n)
	}
}

func TestStopIsClean(t *testing.T) {
	m := New(constantCollector(stats.PressureNormal), func() {}, time.Hour, time.Millisecond)
	m.Start()
	m.HandleTransition(stats.PressureWarning) // arm the cooldown timer
	m.Stop()
	// Nothing to assert beyond "does not hang or panic".
}
