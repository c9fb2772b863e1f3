package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/isp-standards/enquiry-intake/internal/extract"
	"github.com/isp-standards/enquiry-intake/internal/ingest"
	"github.com/isp-standards/enquiry-intake/internal/mail"
	"github.com/isp-standards/enquiry-intake/internal/store"
	"github.com/isp-standards/enquiry-intake/pkg/anthropic"
)

var ingestOnce bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Poll the enquiry inbox and ingest new emails",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic.key is required for ingestion")
		}

		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		fetcher := mail.NewIMAPFetcher(cfg.Mail.IMAPAddr, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.SubjectFilter)
		extractor := extract.NewClaudeExtractor(
			anthropic.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model,
			cfg.Anthropic.MaxTokens,
			cfg.Anthropic.RequestsPerSec,
		)

		var ack mail.Acknowledger
		if cfg.Mail.SMTPHost != "" {
			ack = mail.NewSMTPAcknowledger(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.FromName)
		}

		ingestor := ingest.New(fetcher, extractor, st, ack, cfg.Mail.EnquiryURL)

		if ingestOnce {
			return ingestor.RunOnce(ctx)
		}

		interval := time.Duration(cfg.Ingest.IntervalSecs) * time.Second
		ingest.NewPoller(ingestor, interval).Run(ctx)
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestOnce, "once", false, "process a single email and exit")
	rootCmd.AddCommand(ingestCmd)
}
