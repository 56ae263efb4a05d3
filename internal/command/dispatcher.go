package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lojasmm/wabot/internal/event"
	"github.com/lojasmm/wabot/internal/outbound"
)

// SessionFactory binds send capabilities to a message.
type SessionFactory interface {
	Session(ev *event.Message) *outbound.Session
}

// Locker serializes handlers per user.
type Locker interface {
	WithLock(userID string, fn func() error) error
}

type Dispatcher struct {
	registry *Registry
	sessions SessionFactory
	locks    Locker
	owners   map[string]struct{}
	log      *slog.Logger

	wg sync.WaitGroup
}

// NewDispatcher wires the dispatcher. locks may be nil.
func NewDispatcher(reg *Registry, sessions SessionFactory, locks Locker, owners []string, log *slog.Logger) *Dispatcher {
	set := make(map[string]struct{}, len(owners))
	for _, o := range owners {
		if o = strings.TrimSpace(o); o != "" {
			set[o] = struct{}{}
		}
	}
	return &Dispatcher{
		registry: reg,
		sessions: sessions,
		locks:    locks,
		owners:   set,
		log:      log.With("component", "dispatcher"),
	}
}

// Dispatch starts the handler of the first command matching msg and returns
// without waiting for it. It reports whether a handler was started.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *event.Message) bool {
	if msg == nil || msg.Type != event.TypeText {
		return false
	}

	text := msg.MatchText()
	cmd, tail, ok := d.registry.Match(text)
	if !ok {
		d.log.Debug("no command matched", "message_id", msg.ID)
		return false
	}

	log := d.log.With("command", cmd.Pattern, "message_id", msg.ID, "user_id", msg.UserID)
	if cmd.RequiresOwner && !d.isOwner(msg.UserID) {
		log.Warn("owner-only command refused")
		return false
	}

	// The webhook request ends before the handler does.
	hctx := WithRegistry(context.WithoutCancel(ctx), d.registry)
	sess := d.sessions.Session(msg)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		run := func() error { return d.run(hctx, cmd, sess, tail) }

		var err error
		if d.locks != nil {
			err = d.locks.WithLock(msg.UserID, run)
		} else {
			err = run()
		}
		if err != nil {
			log.Error("command failed", "error", err)
		}
	}()
	return true
}

func (d *Dispatcher) run(ctx context.Context, cmd *Command, s *outbound.Session, tail string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	start := time.Now()
	err = cmd.handler(ctx, s, tail)
	d.log.Debug("command completed", "command", cmd.Pattern, "ms", time.Since(start).Milliseconds())
	return err
}

// Wait blocks until every started handler has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) isOwner(userID string) bool {
	_, ok := d.owners[userID]
	return ok
}
