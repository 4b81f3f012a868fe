// Package controller drives a pack from "maybe present locally" to
// "installed and usable": it checks local storage, runs the acquisition
// backend, validates what arrived, and records the result durably. One
// controller handles one pack family for one session.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wordzap/aipack/internal/backend"
	"github.com/wordzap/aipack/internal/events"
	"github.com/wordzap/aipack/internal/pack"
	"github.com/wordzap/aipack/internal/store"
	"github.com/wordzap/aipack/internal/utils"
)

// State is the controller's position in the provisioning flow.
type State int

const (
	StateIdle State = iota
	StateCheckingLocal
	StateAcquiring
	StateValidating
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCheckingLocal:
		return "checking"
	case StateAcquiring:
		return "acquiring"
	case StateValidating:
		return "validating"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	// ErrNoUsableArtifacts means validation found none of the required
	// artifact names in the install root.
	ErrNoUsableArtifacts = errors.New("missing required artifacts")

	// ErrInstallRootUnavailable means the backend reported ready but could
	// not produce an install root.
	ErrInstallRootUnavailable = errors.New("install root unavailable")

	// ErrCancelled is returned from Run when the caller cancelled the flow.
	ErrCancelled = errors.New("provisioning cancelled")

	// ErrBusy is returned when Run is invoked while an attempt is in flight.
	ErrBusy = errors.New("provisioning already in progress")
)

// BackendError carries a backend failure reason through verbatim.
type BackendError struct {
	Reason string
}

func (e *BackendError) Error() string {
	return e.Reason
}

// Config assembles a controller. Backend is the injected acquisition
// capability; NotifyCh, when set, receives events.* messages (non-blocking
// sends, latest-value semantics for progress).
type Config struct {
	Spec      pack.Spec
	Backend   backend.Backend
	ModelsDir string
	NotifyCh  chan<- any
}

// Controller runs the readiness flow for a single pack family.
type Controller struct {
	id        string
	spec      pack.Spec
	backend   backend.Backend
	modelsDir string
	notify    chan<- any

	mu            sync.Mutex
	state         State
	errReason     string
	downloaded    bool
	lastProgress  backend.Progress
	cancelCh      chan struct{}
	cancelOnce    *sync.Once
	leaseReleased bool

	cancelled atomic.Bool
}

// New creates an idle controller.
func New(cfg Config) *Controller {
	return &Controller{
		id:        uuid.New().String(),
		spec:      cfg.Spec,
		backend:   cfg.Backend,
		modelsDir: cfg.ModelsDir,
		notify:    cfg.NotifyCh,
		state:     StateIdle,
	}
}

// ID returns the session identifier carried on all emitted events.
func (c *Controller) ID() string {
	return c.id
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Downloaded reports whether the pack became usable this session. It flips
// false to true exactly once, on the transition to Done.
func (c *Controller) Downloaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.downloaded
}

// Err returns the reason of the last failed attempt, empty otherwise.
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errReason
}

// Progress returns the latest acquisition snapshot observed.
func (c *Controller) Progress() backend.Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastProgress
}

// Run drives one provisioning attempt to Done, Error, or Idle (cancel).
// Re-invoking after Done returns immediately without touching the backend;
// re-invoking after Error retries from the local check. Run is not
// reentrant: a second call while an attempt is in flight returns ErrBusy.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateDone:
		c.mu.Unlock()
		return nil
	case StateCheckingLocal, StateAcquiring, StateValidating:
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateCheckingLocal
	c.errReason = ""
	c.cancelCh = make(chan struct{})
	c.cancelOnce = &sync.Once{}
	c.leaseReleased = false
	c.cancelled.Store(false)
	c.mu.Unlock()

	start := time.Now()

	usable := c.backend.CheckLocalUsable()

	// The local check can be slow (registry lookup plus stats); a cancel
	// issued while it ran must win over its result.
	if c.cancelled.Load() {
		c.abort()
		return ErrCancelled
	}

	if usable {
		utils.Debug("pack %s already usable locally", c.spec.Family)
		c.finish(start)
		return nil
	}

	c.setState(StateAcquiring)
	if c.cancelled.Load() {
		c.abort()
		return ErrCancelled
	}
	if err := c.backend.BeginAcquisition(c.spec.Priority, c.spec.Preserve); err != nil {
		c.failWith(err)
		return err
	}
	c.send(events.AcquireStartedMsg{
		SessionID: c.id,
		Family:    c.spec.Family,
		Total:     c.backend.Progress().Total,
	})

	evs := c.backend.Events()
	var installRoot string

acquire:
	for {
		select {
		case <-ctx.Done():
			c.abort()
			return ctx.Err()
		case <-c.cancelCh:
			c.abort()
			return ErrCancelled
		case ev, ok := <-evs:
			if !ok {
				err := &BackendError{Reason: "backend event stream closed"}
				c.failWith(err)
				return err
			}
			switch e := ev.(type) {
			case backend.ProgressEvent:
				c.forwardProgress(e.Progress)
			case backend.FailedEvent:
				err := &BackendError{Reason: e.Reason}
				c.failWith(err)
				return err
			case backend.ReadyEvent:
				installRoot = e.InstallRoot
				break acquire
			}
		}
	}

	if installRoot == "" {
		root, err := c.backend.InstallRoot()
		if err != nil {
			c.failWith(ErrInstallRootUnavailable)
			return ErrInstallRootUnavailable
		}
		installRoot = root
	}

	c.setState(StateValidating)
	c.send(events.ValidatingMsg{SessionID: c.id, Family: c.spec.Family})

	// Validation scans and copies files; keep it off the caller's goroutine
	// so cancellation stays responsive.
	resCh := make(chan validationResult, 1)
	go func() {
		resCh <- c.validate(installRoot)
	}()

	select {
	case <-ctx.Done():
		c.abort()
		return ctx.Err()
	case <-c.cancelCh:
		c.abort()
		return ErrCancelled
	case res := <-resCh:
		// A cancel racing the validation result still wins.
		if c.cancelled.Load() {
			c.abort()
			return ErrCancelled
		}
		if res.err != nil {
			c.failWith(res.err)
			return res.err
		}

		c.releaseLease()

		if err := store.RecordPack(store.PackEntry{
			Family:      c.spec.Family,
			DisplayName: c.spec.DisplayName,
			InstallRoot: res.destRoot,
			Artifacts:   res.copied,
		}); err != nil {
			err = fmt.Errorf("failed to record install root: %w", err)
			c.failWith(err)
			return err
		}

		c.finish(start)
		return nil
	}
}

// Cancel resets the flow to Idle from any non-terminal state. It stops
// progress forwarding synchronously; the backend cancel and lease release
// happen asynchronously (fire-and-forget).
func (c *Controller) Cancel() {
	c.mu.Lock()
	state := c.state
	if state == StateDone || state == StateIdle {
		c.mu.Unlock()
		return
	}
	c.cancelled.Store(true)
	once := c.cancelOnce
	ch := c.cancelCh
	if state == StateError {
		c.state = StateIdle
		c.errReason = ""
	}
	c.mu.Unlock()

	if state == StateError {
		// No Run loop is active; release directly.
		go func() {
			c.backend.Cancel()
			c.releaseLease()
		}()
		c.send(events.PackCancelledMsg{SessionID: c.id, Family: c.spec.Family})
		return
	}

	if once != nil && ch != nil {
		once.Do(func() { close(ch) })
	}
}

// abort transitions to Idle after a cancel was observed mid-flow.
func (c *Controller) abort() {
	c.cancelled.Store(true)

	c.mu.Lock()
	c.state = StateIdle
	c.errReason = ""
	c.lastProgress = backend.Progress{}
	c.mu.Unlock()

	go func() {
		c.backend.Cancel()
		c.releaseLease()
	}()

	c.send(events.PackCancelledMsg{SessionID: c.id, Family: c.spec.Family})
}

func (c *Controller) finish(start time.Time) {
	c.mu.Lock()
	c.state = StateDone
	first := !c.downloaded
	c.downloaded = true
	c.mu.Unlock()

	if first {
		c.send(events.PackReadyMsg{
			SessionID:   c.id,
			Family:      c.spec.Family,
			InstallRoot: c.destRoot(),
			Elapsed:     time.Since(start),
		})
	}
}

func (c *Controller) failWith(err error) {
	utils.Debug("provisioning %s failed: %v", c.spec.Family, err)

	c.mu.Lock()
	c.state = StateError
	c.errReason = err.Error()
	c.mu.Unlock()

	c.send(events.PackErrorMsg{SessionID: c.id, Family: c.spec.Family, Reason: err.Error()})
}

// releaseLease releases the backend lease at most once per attempt.
func (c *Controller) releaseLease() {
	c.mu.Lock()
	if c.leaseReleased {
		c.mu.Unlock()
		return
	}
	c.leaseReleased = true
	c.mu.Unlock()

	if err := c.backend.ReleaseLease(); err != nil {
		utils.Debug("failed to release lease for %s: %v", c.spec.Family, err)
	}
}

func (c *Controller) forwardProgress(p backend.Progress) {
	// A cancelled flow must not surface further progress.
	if c.cancelled.Load() {
		return
	}

	c.mu.Lock()
	c.lastProgress = p
	c.mu.Unlock()

	c.send(events.ProgressMsg{
		SessionID: c.id,
		Family:    c.spec.Family,
		Completed: p.Completed,
		Total:     p.Total,
		Fraction:  p.Fraction(),
	})
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// send pushes a message to the notify channel without blocking. Consumers
// only ever need the latest progress value, so dropping under pressure is
// fine; terminal messages get a buffered channel sized by the caller.
func (c *Controller) send(msg any) {
	if c.notify == nil {
		return
	}
	select {
	case c.notify <- msg:
	default:
	}
}
