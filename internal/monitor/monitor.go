// Package monitor watches pressure-level transitions and triggers
// automatic boosts, throttled so sustained pressure cannot cause a
// reclamation storm.
package monitor

import (
	"log"
	"sync"
	"time"

	"github.com/lazypower/memboost/internal/stats"
)

// State of the throttle machine.
type State string

const (
	// StateIdle: the next Warning/Critical transition triggers a boost.
	StateIdle State = "idle"
	// StateCooldown: transitions are observed and counted, nothing fires.
	StateCooldown State = "cooldown"
)

// BoostFunc runs one automatic boost. The monitor does not care about
// the result; failures are the orchestrator's to log.
type BoostFunc func()

// Monitor samples memory pressure in the background and feeds
// transitions into the {Idle, Cooldown} throttle machine.
type Monitor struct {
	mu       sync.Mutex
	state    State
	observed int // suppressed transitions during the current cooldown

	collector stats.Collector
	boost     BoostFunc
	throttle  time.Duration
	sample    time.Duration

	timer  *time.Timer
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds a monitor. throttle is the minimum interval between
// automatic boosts; sample is the pressure polling cadence.
func New(collector stats.Collector, boost BoostFunc, throttle, sample time.Duration) *Monitor {
	return &Monitor{
		state:     StateIdle,
		collector: collector,
		boost:     boost,
		throttle:  throttle,
		sample:    sample,
		stopCh:    make(chan struct{}),
	}
}

// State returns the current throttle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Observed returns how many pressure transitions were suppressed during
// the current cooldown.
func (m *Monitor) Observed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.observed
}

// HandleTransition feeds one pressure-level transition into the state
// machine. A transition to Warning or Critical while Idle enters
// Cooldown and fires exactly one boost; anything received while in
// Cooldown is counted, not acted on. Normal never triggers.
func (m *Monitor) HandleTransition(level stats.PressureLevel) {
	if level != stats.PressureWarning && level != stats.PressureCritical {
		return
	}

	m.mu.Lock()
	if m.state == StateCooldown {
		m.observed++
		observed := m.observed
		m.mu.Unlock()
		log.Printf("monitor: pressure %s observed during cooldown (%d suppressed)", level, observed)
		return
	}
	m.state = StateCooldown
	m.observed = 0
	m.timer = time.AfterFunc(m.throttle, m.cooldownExpired)
	m.mu.Unlock()

	log.Printf("monitor: pressure %s, triggering boost (throttle %s)", level, m.throttle)
	m.boost()
}

func (m *Monitor) cooldownExpired() {
	m.mu.Lock()
	m.state = StateIdle
	suppressed := m.observed
	m.mu.Unlock()
	if suppressed > 0 {
		log.Printf("monitor: cooldown over, %d pressure events were suppressed", suppressed)
	}
}

// Start launches the background sampler. Transitions are detected by
// comparing successive snapshot classifications; sustained pressure at
// the same level re-fires once per sample so Idle never sits out a
// still-critical host.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.sample)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				snap, err := m.collector.Read()
				if err != nil {
					log.Printf("monitor: read snapshot: %v", err)
					continue
				}
				m.HandleTransition(snap.Pressure)
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the sampler and any pending cooldown timer. Safe to
// call once; the monitor cannot be restarted.
func (m *Monitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()

	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.mu.Unlock()
}
