package mailbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigAddrDefaultsPort(t *testing.T) {
	cfg := Config{Host: "imap.example.com"}
	assert.Equal(t, "imap.example.com:993", cfg.addr())

	cfg.Port = 1993
	assert.Equal(t, "imap.example.com:1993", cfg.addr())
}

func TestConfigFolderDefaultsInbox(t *testing.T) {
	assert.Equal(t, "INBOX", Config{}.folder())
	assert.Equal(t, "Leads", Config{Folder: "Leads"}.folder())
}

func TestConnectRequiresCredentials(t *testing.T) {
	for name, cfg := range map[string]Config{
		"no host":     {Username: "u", Password: "p"},
		"no username": {Host: "imap.example.com", Password: "p"},
		"no password": {Host: "imap.example.com", Username: "u"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := connect(cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestWatcherConnectRequiresCredentials(t *testing.T) {
	w := NewWatcher(Config{})
	assert.Error(t, w.Connect(context.Background()))
}

func TestFetchUnreadRequiresCredentials(t *testing.T) {
	f := NewFetcher(Config{})
	_, err := f.FetchUnread(context.Background())
	assert.Error(t, err)
}
