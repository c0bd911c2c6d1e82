package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/petems/airpods-monitor/internal/device"
	"github.com/rs/zerolog"
)

const DefaultInterval = 15 * time.Second

var ErrRunning = errors.New("monitor already running")

// Detector runs one detection pass
type Detector interface {
	Detect(ctx context.Context) *device.Device
}

// State is one published snapshot. Device is nil when nothing is connected.
type State struct {
	Device    *device.Device `json:"device"`
	Connected bool           `json:"connected"`
	Seq       uint64         `json:"seq"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Listener receives published states. Listeners run one at a time on the
// monitor's delivery goroutine and must not call Stop.
type Listener func(State)

type subscription struct {
	id string
	fn Listener
}

// run holds everything belonging to one Start/Stop cycle
type run struct {
	ctx     context.Context
	cancel  context.CancelFunc
	results chan *device.Device
	wg      sync.WaitGroup
}

type Monitor struct {
	detector Detector
	log      zerolog.Logger

	state atomic.Pointer[State]
	seq   uint64 // delivery goroutine only

	subMu sync.Mutex
	subs  []subscription

	// life serializes Start and Stop, including Stop's wait for the old run
	life sync.Mutex

	mu  sync.Mutex
	cur *run
}

func New(detector Detector, log zerolog.Logger) *Monitor {
	m := &Monitor{
		detector: detector,
		log:      log,
	}
	m.state.Store(&State{})
	return m
}

// Start polls once right away and then every interval until Stop.
func (m *Monitor) Start(interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	m.life.Lock()
	defer m.life.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		ctx:     ctx,
		cancel:  cancel,
		results: make(chan *device.Device),
	}
	m.cur = r

	r.wg.Add(2)
	go m.deliver(r)
	go m.tick(r, interval)
	m.spawnPoll(r, "start")

	m.log.Info().Dur("interval", interval).Msg("Monitor started")
	return nil
}

// Stop cancels the timer and any in-flight poll. Nothing is published once
// Stop returns, and a concurrent Start waits until then. Calling Stop on a
// stopped monitor does nothing.
func (m *Monitor) Stop() {
	m.life.Lock()
	defer m.life.Unlock()

	m.mu.Lock()
	r := m.cur
	m.cur = nil
	m.mu.Unlock()

	if r == nil {
		return
	}

	r.cancel()
	r.wg.Wait()
	m.log.Info().Msg("Monitor stopped")
}

// RefreshNow polls outside the timer cadence. It reports false when the
// monitor is not running.
func (m *Monitor) RefreshNow() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return false
	}
	m.spawnPoll(m.cur, "refresh")
	return true
}

// Running reports whether the monitor is started
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur != nil
}

// State returns the latest published snapshot
func (m *Monitor) State() State {
	return *m.state.Load()
}

// CurrentDevice returns a copy of the connected device, or nil
func (m *Monitor) CurrentDevice() *device.Device {
	st := m.state.Load()
	if st.Device == nil {
		return nil
	}
	d := *st.Device
	return &d
}

// Subscribe registers fn for every future publication and returns an id
// for Unsubscribe.
func (m *Monitor) Subscribe(fn Listener) string {
	id := uuid.New().String()

	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subs = append(m.subs, subscription{id: id, fn: fn})
	return id
}

func (m *Monitor) Unsubscribe(id string) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for i, s := range m.subs {
		if s.id == id {
			m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
			return
		}
	}
}

// SubscriberCount returns the current number of subscribers
func (m *Monitor) SubscriberCount() int {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	return len(m.subs)
}

// spawnPoll must be called with m.mu held and r still current
func (m *Monitor) spawnPoll(r *run, trigger string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		start := time.Now()
		dev := m.detector.Detect(r.ctx)
		m.log.Debug().
			Str("trigger", trigger).
			Dur("elapsed", time.Since(start)).
			Bool("connected", dev != nil).
			Msg("Poll finished")

		select {
		case r.results <- dev:
		case <-r.ctx.Done():
		}
	}()
}

func (m *Monitor) tick(r *run, interval time.Duration) {
	defer r.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			if m.cur == r {
				m.spawnPoll(r, "timer")
			}
			m.mu.Unlock()
		}
	}
}

// deliver is the only writer of the state slot. Results are published in
// the order polls complete.
func (m *Monitor) deliver(r *run) {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case dev := <-r.results:
			if r.ctx.Err() != nil {
				return
			}
			m.publish(dev)
		}
	}
}

func (m *Monitor) publish(dev *device.Device) {
	m.seq++
	st := &State{
		Device:    dev,
		Connected: dev != nil,
		Seq:       m.seq,
		UpdatedAt: time.Now(),
	}

	prev := m.state.Swap(st)
	if changed(prev, st) {
		evt := m.log.Info().Bool("connected", st.Connected)
		if dev != nil {
			evt = evt.Str("name", dev.Name).Str("codec", dev.AudioCodec).Stringer("profile", dev.Profile)
		}
		evt.Msg("Device state changed")
	}

	m.subMu.Lock()
	subs := make([]subscription, len(m.subs))
	copy(subs, m.subs)
	m.subMu.Unlock()

	for _, s := range subs {
		m.notify(s, *st)
	}
}

func (m *Monitor) notify(s subscription, st State) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Interface("panic", r).Str("subscriber", s.id).Msg("Subscriber panicked")
		}
	}()
	s.fn(st)
}

func changed(prev, next *State) bool {
	if prev.Connected != next.Connected {
		return true
	}
	if prev.Device == nil || next.Device == nil {
		return false
	}
	return *prev.Device != *next.Device
}
