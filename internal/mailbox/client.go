// Package mailbox maintains the live IMAP session for lead notifications:
// a watcher that raises new-mail events and a fetcher that drains unread
// messages from the configured sender.
package mailbox

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// Config holds the connection parameters for the monitored mailbox.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// Folder is the monitored mailbox folder, INBOX when empty.
	Folder string

	// Sender is the lead-notification address the fetcher filters on.
	Sender string

	// PollInterval is the fallback sweep interval when the server does
	// not support IDLE.
	PollInterval time.Duration
}

func (c Config) addr() string {
	port := c.Port
	if port == 0 {
		port = 993
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

func (c Config) folder() string {
	if c.Folder == "" {
		return "INBOX"
	}
	return c.Folder
}

// connect dials the server over implicit TLS, authenticates, and selects
// the monitored folder read-write so fetched messages can be flagged read.
// The caller is responsible for Logout on the returned client.
func connect(cfg Config, opts *imapclient.Options) (*imapclient.Client, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("mailbox host, username and password are required")
	}

	client, err := imapclient.DialTLS(cfg.addr(), opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", cfg.addr(), err)
	}

	if err := client.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authenticating %s: %w", cfg.Username, err)
	}

	if _, err := client.Select(cfg.folder(), &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting %s: %w", cfg.folder(), err)
	}

	return client, nil
}
