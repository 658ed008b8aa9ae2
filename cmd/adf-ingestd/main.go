// adf-ingestd watches a dealership lead mailbox for ADF payloads and
// persists new leads into the CRM database.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bduble/aiventa-crm-sub000/internal/config"
	"github.com/bduble/aiventa-crm-sub000/internal/credential"
	"github.com/bduble/aiventa-crm-sub000/internal/ingest"
	"github.com/bduble/aiventa-crm-sub000/internal/logging"
	"github.com/bduble/aiventa-crm-sub000/internal/mailbox"
	"github.com/bduble/aiventa-crm-sub000/internal/queue"
	"github.com/bduble/aiventa-crm-sub000/internal/store"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "adf-ingestd",
		Short:        "ADF lead mailbox ingestion daemon",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to the configuration file")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(storePasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch the mailbox and ingest leads until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			job, logger, cleanup, err := buildJob()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			job.Start(ctx)
			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				<-job.Done()
			case <-job.Done():
			}
			_ = logger.Sync()
			return nil
		},
	}
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Fetch and process unread lead mail once, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			job, logger, cleanup, err := buildJob()
			if err != nil {
				return err
			}
			defer cleanup()

			job.Sweep(cmd.Context())
			_ = logger.Sync()
			return nil
		},
	}
}

func storePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "store-password",
		Short: "Read the mailbox password from stdin and store it in the OS keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(os.Stderr, "IMAP password: ")
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading password: %w", err)
			}
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				return fmt.Errorf("password is empty")
			}
			if err := credential.Set(credential.KeyIMAPPassword, password); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "password stored")
			return nil
		},
	}
}

// buildJob wires config, logging, store, queue and mailbox into a ready
// pipeline. The returned cleanup closes everything the job holds open.
func buildJob() (*ingest.Job, *zap.Logger, func(), error) {
	// A local .env is optional; real deployments set the environment.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.Mailbox.Password == "" {
		if pw, err := credential.Get(credential.KeyIMAPPassword); err == nil {
			cfg.Mailbox.Password = pw
		}
	}

	st, err := store.New(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, nil, nil, err
	}

	var publisher queue.Publisher = queue.NopPublisher{}
	if cfg.Queue.URL != "" {
		rmq, err := queue.NewRabbitMQ(cfg.Queue.URL)
		if err != nil {
			_ = st.Close()
			return nil, nil, nil, err
		}
		publisher = rmq
	}

	mailCfg := mailbox.Config{
		Host:         cfg.Mailbox.Host,
		Port:         cfg.Mailbox.Port,
		Username:     cfg.Mailbox.Username,
		Password:     cfg.Mailbox.Password,
		Folder:       cfg.Mailbox.Folder,
		Sender:       cfg.Mailbox.Sender,
		PollInterval: time.Duration(cfg.Mailbox.PollIntervalSec) * time.Second,
	}
	watcher := mailbox.NewWatcher(mailCfg)
	fetcher := mailbox.NewFetcher(mailCfg)

	job := ingest.NewJob(watcher, fetcher, st, publisher, logger, ingest.Options{
		Workers:      cfg.Ingest.Workers,
		BatchTimeout: time.Duration(cfg.Ingest.BatchTimeoutSec) * time.Second,
	})

	cleanup := func() {
		_ = publisher.Close()
		_ = st.Close()
	}
	return job, logger, cleanup, nil
}
