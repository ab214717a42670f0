package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SimEventKind tags the state-change messages a simulation run emits.
type SimEventKind int

const (
	SimProgress SimEventKind = iota
	SimStageAdvance
	SimFinalize
)

// SimEvent is one discrete state change emitted by a simulation run and
// consumed by the coordinator's reducer. Timers never touch shared state
// directly.
type SimEvent struct {
	Kind     SimEventKind
	Progress int
	Stage    int
	Message  string
}

// SimCheckpoint pins a progress percentage to a wall-clock offset from the
// start of a run.
type SimCheckpoint struct {
	At       time.Duration
	Progress int
}

// SimSchedule is the fixed script a simulated run follows. Checkpoints must
// be strictly increasing in both fields and terminate at (Total, 100).
type SimSchedule struct {
	Total       time.Duration
	Checkpoints []SimCheckpoint

	// The stage-1 timeline transition fires MidStageLead before Total, but
	// never earlier than MidStageFloor.
	MidStageLead  time.Duration
	MidStageFloor time.Duration
}

// DefaultSimSchedule returns the production script: 36 seconds end to end.
func DefaultSimSchedule() SimSchedule {
	return SimSchedule{
		Total: 36 * time.Second,
		Checkpoints: []SimCheckpoint{
			{At: 1500 * time.Millisecond, Progress: 7},
			{At: 4 * time.Second, Progress: 16},
			{At: 8 * time.Second, Progress: 28},
			{At: 13 * time.Second, Progress: 42},
			{At: 19 * time.Second, Progress: 58},
			{At: 25 * time.Second, Progress: 72},
			{At: 30 * time.Second, Progress: 86},
			{At: 33 * time.Second, Progress: 94},
			{At: 36 * time.Second, Progress: 100},
		},
		MidStageLead:  10 * time.Second,
		MidStageFloor: 6 * time.Second,
	}
}

// MidStageAt returns the offset at which the stage-1 transition fires.
func (s SimSchedule) MidStageAt() time.Duration {
	at := s.Total - s.MidStageLead
	if at < s.MidStageFloor {
		at = s.MidStageFloor
	}
	return at
}

// Validate checks the schedule invariants.
func (s SimSchedule) Validate() error {
	if s.Total <= 0 {
		return errors.New("total duration must be positive")
	}
	if len(s.Checkpoints) == 0 {
		return errors.New("schedule needs at least one checkpoint")
	}
	prevAt := time.Duration(-1)
	prevProgress := -1
	for i, cp := range s.Checkpoints {
		if cp.At <= prevAt {
			return fmt.Errorf("checkpoint %d: offset not strictly increasing", i)
		}
		if cp.Progress <= prevProgress {
			return fmt.Errorf("checkpoint %d: progress not strictly increasing", i)
		}
		if cp.Progress > 100 {
			return fmt.Errorf("checkpoint %d: progress exceeds 100", i)
		}
		prevAt = cp.At
		prevProgress = cp.Progress
	}
	last := s.Checkpoints[len(s.Checkpoints)-1]
	if last.At != s.Total || last.Progress != 100 {
		return errors.New("schedule must terminate at (total, 100)")
	}
	return nil
}

// Advisory copy shown next to the timeline indicator during a simulated run.
var timelineStageMessages = [2]string{
	"Request received. Preparing your video...",
	"Gathering footage and syncing narration...",
}

// SimulationEngine drives the scripted fallback generation. At most one run
// has outstanding timers at any moment; starting a run cancels whatever run
// preceded it.
type SimulationEngine struct {
	schedule SimSchedule
	log      zerolog.Logger

	mu      sync.Mutex
	current *SimulationRun
}

// NewSimulationEngine validates the schedule and returns an engine.
func NewSimulationEngine(schedule SimSchedule, logger zerolog.Logger) (*SimulationEngine, error) {
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation schedule: %w", err)
	}
	return &SimulationEngine{
		schedule: schedule,
		log:      logger.With().Str("component", "simulation").Logger(),
	}, nil
}

// Start cancels any run in flight, emits the initial stage and zero
// progress synchronously, then schedules the checkpoint, mid-stage and
// finalize timers for a fresh run.
func (e *SimulationEngine) Start(sink func(SimEvent)) *SimulationRun {
	run := &SimulationRun{}

	e.mu.Lock()
	if e.current != nil {
		e.current.Cancel()
	}
	e.current = run
	e.mu.Unlock()

	// Stage 0 and zero progress are visible before any timer fires.
	sink(SimEvent{Kind: SimProgress, Progress: 0})
	sink(SimEvent{Kind: SimStageAdvance, Stage: 0, Message: timelineStageMessages[0]})

	run.mu.Lock()
	defer run.mu.Unlock()
	if run.cancelled {
		// A newer run replaced this one before its timers were scheduled.
		return run
	}
	for _, cp := range e.schedule.Checkpoints {
		run.timers = append(run.timers, time.AfterFunc(cp.At, func() {
			run.emit(sink, SimEvent{Kind: SimProgress, Progress: cp.Progress})
		}))
	}
	run.timers = append(run.timers, time.AfterFunc(e.schedule.MidStageAt(), func() {
		run.emit(sink, SimEvent{Kind: SimStageAdvance, Stage: 1, Message: timelineStageMessages[1]})
	}))
	run.timers = append(run.timers, time.AfterFunc(e.schedule.Total, func() {
		run.finalize(sink)
	}))

	e.log.Info().Dur("duration", e.schedule.Total).Msg("simulated generation started")
	return run
}

// Cancel stops the active run, if any. Safe to call when idle.
func (e *SimulationEngine) Cancel() {
	e.mu.Lock()
	run := e.current
	e.current = nil
	e.mu.Unlock()

	if run != nil {
		run.Cancel()
	}
}

// SimulationRun owns the pending timers of one simulated attempt. They
// cancel as a single unit, and a cancelled run can never emit again.
type SimulationRun struct {
	mu        sync.Mutex
	cancelled bool
	timers    []*time.Timer
}

func (r *SimulationRun) emit(sink func(SimEvent), ev SimEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return
	}
	sink(ev)
}

func (r *SimulationRun) finalize(sink func(SimEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return
	}
	// The run is over. No timer should still be pending, but clearing is
	// unconditional.
	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = nil
	r.cancelled = true
	sink(SimEvent{Kind: SimFinalize})
}

// Cancel stops every pending timer for the run. Idempotent; a no-op on a
// run that already finished.
func (r *SimulationRun) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return
	}
	r.cancelled = true
	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = nil
}
