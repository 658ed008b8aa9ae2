package mailbox

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2"
)

// RawMessage is one fetched mail body, already marked read on the server.
type RawMessage struct {
	UID  uint32
	Body []byte
}

// Fetcher drains unread messages from the configured lead-notification
// sender. Each batch uses its own short-lived session so the watch
// connection stays parked in IDLE.
type Fetcher struct {
	cfg Config
}

// NewFetcher creates a fetcher for the configured mailbox.
func NewFetcher(cfg Config) *Fetcher {
	return &Fetcher{cfg: cfg}
}

// FetchUnread searches for messages that are both unread and from the
// configured sender, fetches their full bodies, and marks them read as
// part of the same operation. Zero matches is a no-op, not an error.
func (f *Fetcher) FetchUnread(ctx context.Context) ([]RawMessage, error) {
	client, err := connect(f.cfg, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "From", Value: f.cfg.Sender},
		},
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching for unread lead mail: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	uidSet := imap.UIDSetNum(uids...)

	// Non-peek BODY[] so the server flags the message \Seen in the same
	// operation that hands us the bytes.
	bodySection := &imap.FetchItemBodySection{}
	fetchCmd := client.Fetch(uidSet, &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})

	var msgs []RawMessage
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		body := buf.FindBodySection(bodySection)
		if body == nil {
			continue
		}

		msgs = append(msgs, RawMessage{UID: uint32(buf.UID), Body: body})
	}

	if err := fetchCmd.Close(); err != nil {
		return msgs, fmt.Errorf("fetching unread lead mail: %w", err)
	}

	// Some servers do not honor the implicit \Seen on a BODY[] fetch;
	// store the flag explicitly as well.
	storeCmd := client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		return msgs, fmt.Errorf("marking messages read: %w", err)
	}

	return msgs, nil
}
