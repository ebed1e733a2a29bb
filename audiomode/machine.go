package audiomode

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultQueueSize is the event queue capacity used when none is given.
const DefaultQueueSize = 64

// Machine serializes events from any number of producers onto a single
// worker goroutine that evaluates Transition and performs the resulting
// port calls. Events are processed one at a time in submission order.
type Machine struct {
	focus AudioFocusPort

	// Owned by the worker; stateMu lets other goroutines read it.
	stateMu sync.RWMutex
	snap    Snapshot
	route   RouteCoordinatorPort

	// Lifecycle. Producers hold the read lock while enqueuing so Stop
	// never closes the queue under a sender.
	lifeMu    sync.RWMutex
	running   bool
	queue     chan envelope
	done      chan struct{}
	queueSize int

	sequence     uint64
	journal      *Journal
	timeProvider TimeProvider
	log          *logrus.Entry

	callbackMu   sync.RWMutex
	onTransition func(TransitionRecord)
}

type envelope struct {
	kind    EventKind
	args    *EventArgs
	barrier chan struct{}
}

// Option configures a Machine.
type Option func(*Machine) error

// WithQueueSize sets the event queue capacity.
func WithQueueSize(n int) Option {
	return func(m *Machine) error {
		if n <= 0 {
			return ErrInvalidQueueSize
		}
		m.queueSize = n
		return nil
	}
}

// WithTimeProvider sets the clock used for journal timestamps.
func WithTimeProvider(tp TimeProvider) Option {
	return func(m *Machine) error {
		m.timeProvider = tp
		return nil
	}
}

// WithJournal records every processed event in j.
func WithJournal(j *Journal) Option {
	return func(m *Machine) error {
		m.journal = j
		return nil
	}
}

// WithLogger sets the base log entry; fields added by the machine are
// layered on top of it.
func WithLogger(entry *logrus.Entry) Option {
	return func(m *Machine) error {
		if entry != nil {
			m.log = entry
		}
		return nil
	}
}

// NewMachine creates a machine in StateUnfocused with Initialized=false.
// The route coordinator may be nil and attached later with
// SetRouteCoordinator. No port is called until Start.
func NewMachine(focus AudioFocusPort, route RouteCoordinatorPort, opts ...Option) (*Machine, error) {
	if focus == nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewMachine",
			"error":    ErrNilFocusPort.Error(),
		}).Error("Focus port validation failed")
		return nil, ErrNilFocusPort
	}

	m := &Machine{
		focus:        focus,
		route:        route,
		snap:         InitialSnapshot(),
		queueSize:    DefaultQueueSize,
		timeProvider: DefaultTimeProvider{},
		log:          logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	m.timeProvider = getTimeProvider(m.timeProvider)
	m.log = m.log.WithField("component", "audiomode")

	m.log.WithFields(logrus.Fields{
		"function":   "NewMachine",
		"queue_size": m.queueSize,
		"journal":    m.journal != nil,
	}).Debug("Audio mode machine created")

	return m, nil
}

// Start launches the worker and enqueues Initialize as the first event.
func (m *Machine) Start() error {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.running {
		m.log.WithField("function", "Start").Error("Machine is already running")
		return ErrMachineAlreadyRunning
	}

	m.queue = make(chan envelope, m.queueSize)
	m.done = make(chan struct{})
	m.running = true
	go m.run(m.queue, m.done)

	// The queue is fresh and has room for at least one event.
	m.queue <- envelope{kind: EventInitialize}

	m.log.WithField("function", "Start").Info("Audio mode machine started")
	return nil
}

// Stop closes the queue and waits for already submitted events to be
// processed. Stopping a stopped machine is a no-op.
func (m *Machine) Stop() error {
	m.lifeMu.Lock()
	if !m.running {
		m.lifeMu.Unlock()
		m.log.WithField("function", "Stop").Debug("Machine already stopped")
		return nil
	}
	m.running = false
	close(m.queue)
	done := m.done
	m.lifeMu.Unlock()

	<-done

	m.log.WithFields(logrus.Fields{
		"function":    "Stop",
		"final_state": m.CurrentState().String(),
	}).Info("Audio mode machine stopped")
	return nil
}

// IsRunning reports whether the worker accepts events.
func (m *Machine) IsRunning() bool {
	m.lifeMu.RLock()
	defer m.lifeMu.RUnlock()
	return m.running
}

// Submit enqueues an event, blocking while the queue is full. The outcome is
// observable only through the ports, the journal and the accessors.
func (m *Machine) Submit(kind EventKind, args *EventArgs) error {
	return m.SubmitContext(context.Background(), kind, args)
}

// SubmitContext is Submit with a context bounding the wait for queue space.
// Once accepted an event is always processed.
func (m *Machine) SubmitContext(ctx context.Context, kind EventKind, args *EventArgs) error {
	if !kind.Valid() {
		m.log.WithFields(logrus.Fields{
			"function": "Submit",
			"event":    int(kind),
		}).Warn("Rejecting unknown event")
		return ErrUnknownEvent
	}
	return m.enqueue(ctx, envelope{kind: kind, args: args})
}

func (m *Machine) enqueue(ctx context.Context, env envelope) error {
	m.lifeMu.RLock()
	defer m.lifeMu.RUnlock()

	if !m.running {
		return ErrMachineNotRunning
	}
	select {
	case m.queue <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sync blocks until every event submitted before the call has been processed.
func (m *Machine) Sync(ctx context.Context) error {
	barrier := make(chan struct{})
	if err := m.enqueue(ctx, envelope{barrier: barrier}); err != nil {
		return err
	}
	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CurrentState returns the state after the most recently processed event.
func (m *Machine) CurrentState() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.snap.State
}

// MostRecentMode returns the last in-call mode entered, or ModeNormal.
func (m *Machine) MostRecentMode() AudioMode {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.snap.MostRecentMode
}

// IsInitialized reports whether Initialize has been processed.
func (m *Machine) IsInitialized() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.snap.Initialized
}

// Snapshot returns the machine-owned state as one value.
func (m *Machine) Snapshot() Snapshot {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.snap
}

// SetRouteCoordinator attaches the route coordinator. Until one is attached,
// route effects are dropped.
func (m *Machine) SetRouteCoordinator(route RouteCoordinatorPort) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.route = route
}

// OnTransition registers a callback run on the worker after every event that
// changed state. The callback must not submit and wait on the same machine.
func (m *Machine) OnTransition(callback func(TransitionRecord)) {
	m.callbackMu.Lock()
	defer m.callbackMu.Unlock()
	m.onTransition = callback
}

// Journal returns the attached journal, or nil.
func (m *Machine) Journal() *Journal {
	return m.journal
}

func (m *Machine) run(queue <-chan envelope, done chan<- struct{}) {
	defer close(done)
	for env := range queue {
		if env.barrier != nil {
			close(env.barrier)
			continue
		}
		m.process(env.kind, env.args)
	}
}

func (m *Machine) process(kind EventKind, args *EventArgs) {
	ctx, span := startProcessSpan(kind, args)
	defer span.End()

	m.stateMu.RLock()
	from := m.snap
	route := m.route
	m.stateMu.RUnlock()

	m.sequence++
	fields := logrus.Fields{
		"function": "process",
		"event":    kind.String(),
		"state":    from.State.String(),
		"sequence": m.sequence,
	}
	if args != nil {
		fields["session_id"] = args.Session.ID.String()
	}
	log := m.log.WithFields(fields)

	out := Transition(from, kind, args)

	switch {
	case out.Malformed:
		log.Warn("Event arrived without EventArgs, ignoring")
	case out.Warning != "":
		log.WithField("args", args.String()).Warn(out.Warning)
	case !out.Handled:
		log.Debug("Event not handled in current state")
	default:
		log.Debug("Event received")
	}

	ApplyEffects(log, out.Effects, m.focus, route)

	m.stateMu.Lock()
	m.snap = out.Next
	m.stateMu.Unlock()

	if out.Changed(from) {
		log.WithFields(logrus.Fields{
			"to":   out.Next.State.String(),
			"mode": out.Next.MostRecentMode.String(),
		}).Info("Audio mode state changed")
	}

	recordOutcome(ctx, span, kind, from, out)
	m.record(kind, args, from, out)
}

func (m *Machine) record(kind EventKind, args *EventArgs, from Snapshot, out Outcome) {
	rec := TransitionRecord{
		Sequence:  m.sequence,
		Event:     kind,
		From:      from.State,
		To:        out.Next.State,
		Mode:      out.Next.MostRecentMode,
		Handled:   out.Handled,
		Malformed: out.Malformed,
		Timestamp: m.timeProvider.Now(),
		Effects:   out.Effects,
	}
	if args != nil {
		rec.SessionID = args.Session.ID
	}
	if m.journal != nil {
		m.journal.Add(rec)
	}

	if !rec.Changed() {
		return
	}
	m.callbackMu.RLock()
	cb := m.onTransition
	m.callbackMu.RUnlock()
	if cb != nil {
		cb(rec)
	}
}

