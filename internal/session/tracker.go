package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rayane-45/Horsly-sub001/internal/fit"
	"github.com/Rayane-45/Horsly-sub001/internal/gait"
	"github.com/Rayane-45/Horsly-sub001/internal/gpx"
	"github.com/Rayane-45/Horsly-sub001/internal/sensor"
	"github.com/Rayane-45/Horsly-sub001/internal/shared/geo"
	"github.com/Rayane-45/Horsly-sub001/internal/stream"
)

var (
	ErrSaveInFlight = errors.New("save already in progress")
	ErrNoStore      = errors.New("no session store configured")
)

// Tracker drives one training session from preparation to a terminal state.
// Sensor fixes funnel through a single drain goroutine and every mutation is
// serialized behind one mutex; the published Stats snapshot is replaced
// whole, never edited in place.
type Tracker struct {
	id    string
	ctrl  *sensor.Controller
	hub   *stream.Hub
	store Store

	now       func() time.Time
	tickEvery time.Duration

	mu         sync.Mutex
	state      State
	cfg        Config
	samples    []Sample
	stats      *Stats
	classifier *gait.Classifier
	startedAt  time.Time
	startRef   time.Time
	pausedAt   time.Time
	endedAt    time.Time
	notes      string
	saving     bool
	done       chan struct{}
	ticker     *time.Ticker
}

func NewTracker(cfg Config, ctrl *sensor.Controller, hub *stream.Hub, store Store) *Tracker {
	return &Tracker{
		id:         uuid.NewString(),
		ctrl:       ctrl,
		hub:        hub,
		store:      store,
		now:        time.Now,
		tickEvery:  time.Second,
		state:      StatePrep,
		cfg:        cfg,
		classifier: gait.NewClassifier(),
	}
}

func (t *Tracker) ID() string { return t.id }

func (t *Tracker) Controller() *sensor.Controller { return t.ctrl }

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg
}

// Stats returns the current snapshot. The returned value is immutable.
func (t *Tracker) Stats() *Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

func (t *Tracker) Samples() []Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Sample, len(t.samples))
	copy(out, t.samples)
	return out
}

// Prerequisites lists the launch-gate conditions currently unmet.
func (t *Tracker) Prerequisites() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prerequisitesLocked()
}

func (t *Tracker) prerequisitesLocked() []string {
	var unmet []string
	if t.cfg.HorseID == "" {
		unmet = append(unmet, "no horse selected")
	}
	if st := t.ctrl.State(); st != sensor.StateReady {
		unmet = append(unmet, fmt.Sprintf("gps not ready (state %s)", st))
	}
	latest, ok := t.ctrl.Latest()
	if !ok || latest.AccuracyM > sensor.ReadyAccuracyM {
		unmet = append(unmet, fmt.Sprintf("gps accuracy above %.0f m", sensor.ReadyAccuracyM))
	}
	return unmet
}

// Launch moves PREP to RUNNING when every gate condition holds. A non-empty
// return means nothing happened; it lists what is still missing.
func (t *Tracker) Launch() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StatePrep {
		return []string{fmt.Sprintf("session is %s, not prep", t.state)}
	}
	if unmet := t.prerequisitesLocked(); len(unmet) > 0 {
		return unmet
	}

	now := t.now()
	t.state = StateRunning
	t.startedAt = now
	t.startRef = now
	t.stats = &Stats{Gait: gait.Idle, GaitBreakdown: map[gait.Label]int{}}
	t.done = make(chan struct{})
	t.ticker = time.NewTicker(t.tickEvery)

	go t.drainFixes(t.done)
	go t.tickElapsed(t.done, t.ticker)
	t.broadcastLocked()
	return nil
}

func (t *Tracker) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateRunning {
		return fmt.Errorf("cannot pause a %s session", t.state)
	}
	t.pausedAt = t.now()
	t.state = StatePaused
	t.broadcastLocked()
	return nil
}

func (t *Tracker) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StatePaused {
		return fmt.Errorf("cannot resume a %s session", t.state)
	}
	// shift the start reference forward so elapsed time excludes the pause
	t.startRef = t.startRef.Add(t.now().Sub(t.pausedAt))
	t.state = StateRunning
	t.broadcastLocked()
	return nil
}

// Stop freezes sample collection, finalizes the statistics and releases the
// sensor subscription before returning.
func (t *Tracker) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateRunning {
		return fmt.Errorf("cannot stop a %s session", t.state)
	}
	t.endedAt = t.now()
	t.state = StateCompleted
	t.releaseLocked()

	elapsed := t.endedAt.Sub(t.startRef)
	final := *t.stats
	final.GaitBreakdown = copyBreakdown(t.stats.GaitBreakdown)
	final.ElapsedMs = elapsed.Milliseconds()
	final.AvgSpeedKmh = geo.AverageSpeedKmh(final.DistanceM, elapsed)
	t.stats = &final
	t.broadcastLocked()
	return nil
}

// Save hands the summary to the store. On failure the session stays
// COMPLETED so the save can be retried without losing recorded data.
func (t *Tracker) Save(ctx context.Context, notes string) (Summary, error) {
	t.mu.Lock()
	if t.state != StateCompleted {
		t.mu.Unlock()
		return Summary{}, fmt.Errorf("cannot save a %s session", t.state)
	}
	if t.saving {
		t.mu.Unlock()
		return Summary{}, ErrSaveInFlight
	}
	if t.store == nil {
		t.mu.Unlock()
		return Summary{}, ErrNoStore
	}
	t.saving = true
	summary := BuildSummary(t.id, t.cfg, t.samples, t.stats, t.startedAt, t.endedAt, notes)
	t.mu.Unlock()

	err := t.store.SaveSession(ctx, summary)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.saving = false
	if err != nil {
		return Summary{}, err
	}
	t.notes = notes
	t.state = StateSaved
	t.broadcastLocked()
	return summary, nil
}

// Discard drops a completed session without persisting it.
func (t *Tracker) Discard() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateCompleted {
		return fmt.Errorf("cannot discard a %s session", t.state)
	}
	if t.saving {
		return ErrSaveInFlight
	}
	t.state = StateDiscarded
	t.samples = nil
	t.stats = nil
	t.broadcastLocked()
	return nil
}

// Cancel abandons a prep or running session. Recorded data is dropped and
// the store is never called.
func (t *Tracker) Cancel() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case StatePrep, StateRunning:
	default:
		return fmt.Errorf("cannot cancel a %s session", t.state)
	}
	t.state = StateDiscarded
	t.releaseLocked()
	t.samples = nil
	t.stats = nil
	t.broadcastLocked()
	return nil
}

// ExportGPX renders the recorded track of a completed or saved session.
func (t *Tracker) ExportGPX() ([]byte, error) {
	name, samples, _, err := t.exportData()
	if err != nil {
		return nil, err
	}
	return gpx.Encode(name, GPXPoints(samples))
}

// ExportFIT renders a FIT activity file for a completed or saved session.
func (t *Tracker) ExportFIT() ([]byte, error) {
	_, samples, summary, err := t.exportData()
	if err != nil {
		return nil, err
	}
	return fit.Encode(FITActivity(summary), FITRecords(samples))
}

func (t *Tracker) exportData() (string, []Sample, Summary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateCompleted && t.state != StateSaved {
		return "", nil, Summary{}, fmt.Errorf("cannot export a %s session", t.state)
	}
	samples := make([]Sample, len(t.samples))
	copy(samples, t.samples)
	summary := BuildSummary(t.id, t.cfg, t.samples, t.stats, t.startedAt, t.endedAt, t.notes)
	return exportName(t.cfg, t.startedAt), samples, summary, nil
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		ID:          t.id,
		State:       t.state,
		Config:      t.cfg,
		SensorState: t.ctrl.State(),
		CanStart:    t.ctrl.CanStart(),
		Stats:       t.stats,
	}
	if t.state == StatePrep {
		snap.Prerequisites = t.prerequisitesLocked()
	}
	if latest, ok := t.ctrl.Latest(); ok {
		snap.Fix = &latest
	}
	if !t.startedAt.IsZero() {
		started := t.startedAt
		snap.StartedAt = &started
	}
	if !t.endedAt.IsZero() {
		ended := t.endedAt
		snap.EndedAt = &ended
	}
	return snap
}

func (t *Tracker) drainFixes(done <-chan struct{}) {
	for {
		select {
		case f := <-t.ctrl.Fixes():
			t.handleFix(f)
		case <-done:
			return
		}
	}
}

func (t *Tracker) tickElapsed(done <-chan struct{}, ticker *time.Ticker) {
	for {
		select {
		case <-ticker.C:
			t.handleTick()
		case <-done:
			return
		}
	}
}

// handleFix appends one sample and derives the next snapshot. Fixes arriving
// outside RUNNING are dropped.
func (t *Tracker) handleFix(f sensor.Fix) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateRunning {
		return
	}

	deltaM := 0.0
	heading := t.stats.HeadingDeg
	if n := len(t.samples); n > 0 {
		prev := t.samples[n-1].Fix
		// identical coordinates (sensor retransmit) contribute zero distance
		if prev.Lat != f.Lat || prev.Lng != f.Lng {
			deltaM = geo.HaversineM(prev.Lat, prev.Lng, f.Lat, f.Lng)
			heading = geo.BearingDeg(prev.Lat, prev.Lng, f.Lat, f.Lng)
		}
	}

	label := t.classifier.Current()
	breakdown := copyBreakdown(t.stats.GaitBreakdown)
	maxSpeed := t.stats.MaxSpeedKmh
	if f.SpeedKmh != nil {
		if *f.SpeedKmh > maxSpeed {
			maxSpeed = *f.SpeedKmh
		}
		if t.cfg.GaitDetection {
			label = t.classifier.Update(*f.SpeedKmh)
			breakdown[label]++
		}
	}

	t.samples = append(t.samples, Sample{Fix: f, Gait: label})

	elapsed := t.elapsedLocked(t.now())
	distance := t.stats.DistanceM + deltaM
	t.stats = &Stats{
		ElapsedMs:     elapsed.Milliseconds(),
		DistanceM:     distance,
		AvgSpeedKmh:   geo.AverageSpeedKmh(distance, elapsed),
		MaxSpeedKmh:   maxSpeed,
		HeadingDeg:    heading,
		Gait:          label,
		GaitBreakdown: breakdown,
		SampleCount:   len(t.samples),
	}
	t.broadcastLocked()
}

// handleTick re-derives the time-dependent fields between fixes.
func (t *Tracker) handleTick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateRunning {
		return
	}
	elapsed := t.elapsedLocked(t.now())
	next := *t.stats
	next.GaitBreakdown = copyBreakdown(t.stats.GaitBreakdown)
	next.ElapsedMs = elapsed.Milliseconds()
	next.AvgSpeedKmh = geo.AverageSpeedKmh(next.DistanceM, elapsed)
	t.stats = &next
	t.broadcastLocked()
}

func (t *Tracker) elapsedLocked(now time.Time) time.Duration {
	switch t.state {
	case StateRunning:
		return now.Sub(t.startRef)
	case StatePaused:
		return t.pausedAt.Sub(t.startRef)
	case StateCompleted, StateSaved:
		return t.endedAt.Sub(t.startRef)
	default:
		return 0
	}
}

// releaseLocked tears down the fix drain, the ticker and the sensor
// subscription. Must complete before the transition returns so a finished
// session can never receive further callbacks.
func (t *Tracker) releaseLocked() {
	if t.done != nil {
		close(t.done)
		t.done = nil
	}
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
	t.ctrl.Stop()
}

func (t *Tracker) broadcastLocked() {
	if t.hub == nil {
		return
	}
	update := LiveUpdate{SessionID: t.id, State: t.state, Stats: t.stats}
	if n := len(t.samples); n > 0 {
		f := t.samples[n-1].Fix
		update.Fix = &f
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return
	}
	t.hub.Broadcast(t.id, payload)
}

func copyBreakdown(src map[gait.Label]int) map[gait.Label]int {
	dst := make(map[gait.Label]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func exportName(cfg Config, startedAt time.Time) string {
	kind := cfg.Type
	if kind == "" {
		kind = "training"
	}
	return kind + " " + startedAt.UTC().Format("2006-01-02 15:04")
}
