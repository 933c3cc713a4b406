package whatsapp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var supervisorLog = logrus.WithField("component", "whatsapp")

var (
	ErrAlreadyRunning = errors.New("bot is already running")
	ErrClosed         = errors.New("supervisor is shut down")
)

const (
	maxLineSize = 1 << 20
	killWait    = 2 * time.Second
)

type child struct {
	proc    Process
	session string
	exited  chan struct{}
}

func (c *child) done() bool {
	select {
	case <-c.exited:
		return true
	default:
		return false
	}
}

// state is only touched from the actor goroutine.
type state struct {
	status Status
	child  *child
	subs   map[int]chan Status
	nextID int
}

// Supervisor owns the bot child process and its status record. All status
// reads and writes go through a single goroutine.
type Supervisor struct {
	launcher Launcher
	grace    time.Duration

	cmds     chan func(*state)
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
	st       state
}

func NewSupervisor(launcher Launcher, grace time.Duration) *Supervisor {
	if grace <= 0 {
		grace = 5 * time.Second
	}
	s := &Supervisor{
		launcher: launcher,
		grace:    grace,
		cmds:     make(chan func(*state)),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		st:       state{subs: map[int]chan Status{}},
	}
	go s.loop()
	return s
}

func (s *Supervisor) loop() {
	defer close(s.done)
	for {
		select {
		case fn := <-s.cmds:
			fn(&s.st)
		case <-s.quit:
			for id, ch := range s.st.subs {
				close(ch)
				delete(s.st.subs, id)
			}
			return
		}
	}
}

// exec runs fn on the actor and waits for it to finish.
func (s *Supervisor) exec(fn func(*state)) error {
	finished := make(chan struct{})
	select {
	case s.cmds <- func(st *state) { fn(st); close(finished) }:
	case <-s.done:
		return ErrClosed
	}
	<-finished
	return nil
}

// Start spawns the bot. It returns the new session id, or ErrAlreadyRunning
// when a live child exists.
func (s *Supervisor) Start(ctx context.Context) (string, error) {
	var (
		session  string
		startErr error
	)
	err := s.exec(func(st *state) {
		if st.alive() {
			startErr = ErrAlreadyRunning
			return
		}
		proc, err := s.launcher.Launch(ctx)
		if err != nil {
			startErr = fmt.Errorf("launch bot: %w", err)
			return
		}
		c := &child{proc: proc, session: uuid.NewString(), exited: make(chan struct{})}
		st.child = c
		st.set(Status{Running: true})
		session = c.session

		go s.monitor(c)
		go s.wait(c)
		supervisorLog.WithFields(logrus.Fields{"session": c.session, "pid": proc.Pid()}).Info("bot started")
	})
	if err != nil {
		return "", err
	}
	return session, startErr
}

// Stop terminates the child, escalating to a kill after the grace period.
// Stopping an idle supervisor is a no-op; wasRunning reports which case applied.
func (s *Supervisor) Stop(ctx context.Context) (wasRunning bool, err error) {
	var c *child
	if err := s.exec(func(st *state) { c = st.child }); err != nil {
		return false, err
	}
	if c == nil {
		return false, nil
	}

	log := supervisorLog.WithFields(logrus.Fields{"session": c.session, "pid": c.proc.Pid()})
	if err := c.proc.Terminate(); err != nil {
		log.Warnf("terminate failed: %v", err)
	}

	timer := time.NewTimer(s.grace)
	defer timer.Stop()
	select {
	case <-c.exited:
	case <-timer.C:
		log.Warnf("bot did not exit within %s, killing", s.grace)
		if err := c.proc.Kill(); err != nil {
			log.Warnf("kill failed: %v", err)
		}
		select {
		case <-c.exited:
		case <-time.After(killWait):
			log.Error("bot still not reaped after kill")
		case <-ctx.Done():
		}
	case <-ctx.Done():
		_ = c.proc.Kill()
	}

	if err := s.exec(func(st *state) {
		if st.child == c {
			st.child = nil
			st.set(Status{})
		}
	}); err != nil {
		return true, err
	}
	log.Info("bot stopped")
	return true, nil
}

// UpdateQR stores the rendered grid for a pairing payload.
func (s *Supervisor) UpdateQR(payload string) error {
	grid := RenderQR(payload)
	return s.exec(func(st *state) {
		next := st.status
		next.QRCode = &grid
		next.Ready = false
		st.set(next)
	})
}

func (s *Supervisor) MarkReady() error {
	return s.exec(func(st *state) {
		st.set(st.status.apply(EventReady))
	})
}

// Status returns a snapshot, resetting to stopped if the child has died.
func (s *Supervisor) Status() Status {
	var out Status
	if err := s.exec(func(st *state) {
		if st.child != nil && !st.alive() {
			st.child = nil
			st.set(Status{})
		}
		out = st.status
	}); err != nil {
		return Status{}
	}
	return out
}

// Subscribe streams status changes, starting with the current one. Slow
// readers only see the latest value. The channel closes on cancel or Shutdown.
func (s *Supervisor) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 1)
	id := -1
	if err := s.exec(func(st *state) {
		id = st.nextID
		st.nextID++
		st.subs[id] = ch
		ch <- st.status
	}); err != nil {
		close(ch)
		return ch, func() {}
	}
	cancel := func() {
		_ = s.exec(func(st *state) {
			if sub, ok := st.subs[id]; ok {
				close(sub)
				delete(st.subs, id)
			}
		})
	}
	return ch, cancel
}

// Shutdown stops any child and ends the actor. Further calls return ErrClosed.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	if _, err := s.Stop(ctx); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	s.quitOnce.Do(func() { close(s.quit) })
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Supervisor) monitor(c *child) {
	log := supervisorLog.WithField("session", c.session)
	out := c.proc.Output()
	if closer, ok := out.(io.Closer); ok {
		defer closer.Close()
	}
	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		log.Debugf("bot: %s", line)

		ev, ok := ParseLine(line)
		if !ok {
			continue
		}
		log.Infof("bot event: %s", ev)
		if err := s.exec(func(st *state) {
			if st.child == c {
				st.set(st.status.apply(ev))
			}
		}); err != nil {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warnf("reading bot output: %v", err)
	}
}

func (s *Supervisor) wait(c *child) {
	err := c.proc.Wait()
	close(c.exited)

	log := supervisorLog.WithField("session", c.session)
	if err != nil {
		log.Warnf("bot exited: %v", err)
	} else {
		log.Info("bot exited")
	}
	_ = s.exec(func(st *state) {
		if st.child == c {
			st.child = nil
			st.set(Status{})
		}
	})
}

func (st *state) alive() bool {
	return st.child != nil && !st.child.done() && st.child.proc.Alive()
}

func (st *state) set(next Status) {
	st.status = next
	for _, ch := range st.subs {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}
