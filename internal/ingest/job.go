// Package ingest runs the lead pipeline: it reacts to new-mail events,
// fetches unread lead mail, decodes ADF attachments and persists the
// prospects that are not duplicates of existing leads.
package ingest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bduble/aiventa-crm-sub000/internal/adf"
	"github.com/bduble/aiventa-crm-sub000/internal/dedup"
	"github.com/bduble/aiventa-crm-sub000/internal/mailbox"
	"github.com/bduble/aiventa-crm-sub000/internal/mailparse"
	"github.com/bduble/aiventa-crm-sub000/internal/model"
	"github.com/bduble/aiventa-crm-sub000/internal/queue"
	"github.com/bduble/aiventa-crm-sub000/internal/store"
)

// MessageSource fetches unread lead mail, marking it read as it goes.
type MessageSource interface {
	FetchUnread(ctx context.Context) ([]mailbox.RawMessage, error)
}

// Options tunes the pipeline's processing behavior.
type Options struct {
	// Workers bounds how many messages are processed concurrently
	// within one sweep. Attachments and prospects inside a message are
	// always handled sequentially.
	Workers int

	// BatchTimeout bounds a single fetch-and-process sweep.
	BatchTimeout time.Duration
}

// Job ties the mailbox watcher, the fetcher, the decoder and the store
// together into the running pipeline.
type Job struct {
	watcher   mailbox.WatchSource
	source    MessageSource
	store     store.Store
	matcher   *dedup.Matcher
	publisher queue.Publisher
	log       *zap.Logger

	workers      int
	batchTimeout time.Duration

	done chan struct{}
}

// NewJob builds the pipeline. A nil publisher disables event publishing.
func NewJob(watcher mailbox.WatchSource, source MessageSource, st store.Store, publisher queue.Publisher, log *zap.Logger, opts Options) *Job {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	batchTimeout := opts.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 30 * time.Second
	}
	return &Job{
		watcher:      watcher,
		source:       source,
		store:        st,
		matcher:      dedup.NewMatcher(st),
		publisher:    publisher,
		log:          log,
		workers:      workers,
		batchTimeout: batchTimeout,
		done:         make(chan struct{}),
	}
}

// Start launches the pipeline in the background. Done is closed when the
// pipeline stops, either because the context was canceled or because the
// mailbox session ended.
func (j *Job) Start(ctx context.Context) {
	go j.run(ctx)
}

// Done reports pipeline shutdown.
func (j *Job) Done() <-chan struct{} { return j.done }

func (j *Job) run(ctx context.Context) {
	defer close(j.done)

	if err := j.watcher.Connect(ctx); err != nil {
		j.log.Error("failed to connect to mailbox", zap.Error(err))
		return
	}
	j.log.Info("connected and monitoring mailbox")

	// Pick up anything that arrived while the daemon was down.
	j.watcher.ScanNow()

	for {
		select {
		case <-ctx.Done():
			j.watcher.Disconnect()
			<-j.watcher.Closed()
			return
		case err := <-j.watcher.Errors():
			j.log.Error("mailbox connection error", zap.Error(err))
		case <-j.watcher.Closed():
			j.log.Info("mailbox session ended")
			return
		case <-j.watcher.NewMail():
			j.Sweep(ctx)
		}
	}
}

// Sweep fetches all unread lead mail and processes each message. Messages
// are isolated from each other: a failure in one never blocks the rest.
func (j *Job) Sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.batchTimeout)
	defer cancel()

	msgs, err := j.source.FetchUnread(ctx)
	if err != nil {
		j.log.Error("fetching unread lead mail", zap.Error(err))
		return
	}
	if len(msgs) == 0 {
		return
	}

	sem := make(chan struct{}, j.workers)
	var wg sync.WaitGroup
	for _, msg := range msgs {
		wg.Add(1)
		sem <- struct{}{}
		go func(msg mailbox.RawMessage) {
			defer wg.Done()
			defer func() { <-sem }()
			j.processMessage(ctx, msg)
		}(msg)
	}
	wg.Wait()
}

func (j *Job) processMessage(ctx context.Context, raw mailbox.RawMessage) {
	msg, err := mailparse.Parse(raw.Body)
	if err != nil {
		j.log.Error("failed to parse message", zap.Uint32("uid", raw.UID), zap.Error(err))
		return
	}

	attachments := msg.XMLAttachments()
	if len(attachments) == 0 {
		j.log.Info("message has no XML attachments",
			zap.Uint32("uid", raw.UID),
			zap.String("from", msg.From),
			zap.String("subject", msg.Subject))
		return
	}

	for _, att := range attachments {
		j.processAttachment(ctx, raw.UID, att)
	}
}

func (j *Job) processAttachment(ctx context.Context, uid uint32, att mailparse.Attachment) {
	prospects, err := adf.Decode(att.Data)
	if err != nil {
		j.log.Error("failed processing attachment",
			zap.Uint32("uid", uid),
			zap.String("filename", att.Filename),
			zap.Error(err))
		return
	}
	if len(prospects) == 0 {
		j.log.Info("attachment contains no prospects",
			zap.Uint32("uid", uid),
			zap.String("filename", att.Filename))
		return
	}

	// Prospects within one payload run in order so a duplicate pair in
	// the same file yields exactly one insert.
	for _, p := range prospects {
		j.processProspect(ctx, p)
	}
}

func (j *Job) processProspect(ctx context.Context, p model.Prospect) {
	dup, err := j.matcher.IsDuplicate(ctx, p)
	if err != nil {
		j.log.Error("duplicate check failed", zap.Error(err))
		return
	}
	if dup {
		j.log.Info("skipped duplicate lead", zap.String("identity", identity(p)))
		return
	}

	lead := model.NewLead(p)
	if err := j.store.InsertLead(ctx, &lead); err != nil {
		j.log.Error("failed to insert lead",
			zap.String("name", lead.Name),
			zap.Error(err))
		return
	}
	j.log.Info("inserted lead",
		zap.String("id", lead.ID),
		zap.String("name", lead.Name))

	if err := j.publisher.PublishLeadCreated(ctx, lead); err != nil {
		// The lead is already persisted; publishing is best effort.
		j.log.Warn("failed to publish lead.created event",
			zap.String("id", lead.ID),
			zap.Error(err))
	}
}

func identity(p model.Prospect) string {
	if p.Email != "" {
		return p.Email
	}
	return p.Phone
}
