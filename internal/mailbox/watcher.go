package mailbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// minPollInterval bounds the fallback polling loop so a misconfigured
// interval cannot hammer the server.
const minPollInterval = 5 * time.Second

// WatchSource is the session handle the ingest job drives. Any transport,
// or a test double, that can raise new-mail events satisfies it.
type WatchSource interface {
	// Connect opens the session and starts raising events.
	Connect(ctx context.Context) error

	// NewMail signals that the server reported additional messages.
	NewMail() <-chan struct{}

	// Errors carries transport errors from the live session.
	Errors() <-chan error

	// Closed is closed when the session ends, expected or not.
	Closed() <-chan struct{}

	// ScanNow queues a synthetic new-mail event.
	ScanNow()

	// Disconnect ends the session.
	Disconnect()
}

// Watcher keeps one authenticated IMAP session parked in IDLE (or a slow
// poll when the server lacks IDLE) and reports mailbox activity. It never
// reconnects: a dead session closes the watch and the process supervisor
// is expected to restart the job.
type Watcher struct {
	cfg    Config
	client *imapclient.Client

	signal   chan struct{}
	newMail  chan struct{}
	errs     chan error
	closed   chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for the configured mailbox.
func NewWatcher(cfg Config) *Watcher {
	return &Watcher{
		cfg:     cfg,
		signal:  make(chan struct{}, 1),
		newMail: make(chan struct{}, 1),
		errs:    make(chan error, 8),
		closed:  make(chan struct{}),
		stop:    make(chan struct{}),
	}
}

// Connect establishes the session and starts the watch loop. The server's
// unsolicited EXISTS updates arrive through the unilateral data handler
// while the connection sits in IDLE.
func (w *Watcher) Connect(ctx context.Context) error {
	opts := &imapclient.Options{
		UnilateralDataHandler: &imapclient.UnilateralDataHandler{
			Mailbox: func(data *imapclient.UnilateralDataMailbox) {
				if data.NumMessages != nil {
					w.bump()
				}
			},
		},
	}

	client, err := connect(w.cfg, opts)
	if err != nil {
		return err
	}
	w.client = client

	go w.run(ctx)
	return nil
}

func (w *Watcher) NewMail() <-chan struct{} { return w.newMail }
func (w *Watcher) Errors() <-chan error     { return w.errs }
func (w *Watcher) Closed() <-chan struct{}  { return w.closed }

// ScanNow queues a synthetic new-mail event, coalescing with any pending one.
func (w *Watcher) ScanNow() { w.bump() }

// Disconnect ends the watch loop and the session.
func (w *Watcher) Disconnect() {
	w.stopOnce.Do(func() { close(w.stop) })
}

func (w *Watcher) bump() {
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func (w *Watcher) emit() {
	select {
	case w.newMail <- struct{}{}:
	default:
	}
}

func (w *Watcher) emitErr(err error) {
	select {
	case w.errs <- err:
	default:
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.closed)
	defer func() { _ = w.client.Logout().Wait() }()

	supportsIdle := false
	if caps, err := w.client.Capability().Wait(); err == nil && caps.Has(imap.CapIdle) {
		supportsIdle = true
	}

	if supportsIdle {
		w.idleLoop(ctx)
		return
	}
	w.pollLoop(ctx)
}

// idleLoop parks the connection in IDLE and translates server pushes (and
// ScanNow requests) into new-mail events, re-issuing IDLE each time.
func (w *Watcher) idleLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		idleCmd, err := w.client.Idle()
		if err != nil {
			w.emitErr(fmt.Errorf("starting IDLE: %w", err))
			return
		}

		done := make(chan error, 1)
		go func() { done <- idleCmd.Wait() }()

		select {
		case <-ctx.Done():
			_ = idleCmd.Close()
			<-done
			return
		case <-w.stop:
			_ = idleCmd.Close()
			<-done
			return
		case <-w.signal:
			_ = idleCmd.Close()
			if err := <-done; err != nil {
				w.emitErr(fmt.Errorf("ending IDLE: %w", err))
				return
			}
			w.emit()
		case err := <-done:
			if err != nil {
				w.emitErr(fmt.Errorf("IDLE session: %w", err))
				return
			}
			// Server ended the IDLE cleanly; issue a fresh one.
		}
	}
}

// pollLoop is the fallback for servers without IDLE: a NOOP liveness probe
// plus a new-mail event per tick. Ticks with nothing unread are cheap
// no-ops in the fetcher.
func (w *Watcher) pollLoop(ctx context.Context) {
	interval := w.cfg.PollInterval
	if interval < minPollInterval {
		interval = minPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-w.signal:
			w.emit()
		case <-ticker.C:
			if err := w.client.Noop().Wait(); err != nil {
				w.emitErr(fmt.Errorf("polling mailbox: %w", err))
				return
			}
			w.emit()
		}
	}
}
