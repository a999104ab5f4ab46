// Package main sends the daily admin digest once and exits. It is meant for
// cron-style schedulers that run outside the server process.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/app"
	"github.com/decoders-hk/centre-assistant-go/internal/awsclient"
	"github.com/decoders-hk/centre-assistant-go/internal/config"
	"github.com/decoders-hk/centre-assistant-go/internal/digest"
	apperrors "github.com/decoders-hk/centre-assistant-go/internal/errors"
	"github.com/decoders-hk/centre-assistant-go/internal/logger"
	"github.com/decoders-hk/centre-assistant-go/internal/whatsapp"
)

// CLI flags
var (
	dryRunFlag  = flag.Bool("dry-run", false, "Print the digest instead of sending it; nothing is marked as sent")
	timeoutFlag = flag.Duration("timeout", 2*time.Minute, "Overall time limit for the run")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadForMode(config.DigestMode)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.WithField("dry_run", *dryRunFlag).Info("Starting digest tool")

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	res, err := run(ctx, cfg, log, *dryRunFlag, os.Stdout)
	cancel()
	if err != nil {
		log.WithError(err).Error("Digest run failed")
		fmt.Fprintf(os.Stderr, "\n❌ %s\n", apperrors.GetUserMessage(err))
		os.Exit(1)
	}
	fmt.Println(summary(res))
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, dryRun bool, out io.Writer) (digest.Result, error) {
	awsCfg, err := awsclient.Load(ctx, awsclient.Options{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
	})
	if err != nil {
		return digest.Result{}, err
	}

	var sender digest.Sender = whatsapp.NewClient(cfg.WhatsApp)
	if dryRun {
		sender = printSender{w: out}
		// Keep the sent-state in memory so a dry run never blocks the real send.
		cfg.Digest.StateBucket = ""
	}

	svc, err := app.NewDigestService(ctx, cfg, &awsCfg, sender, app.NewHolidayResolver(log, nil), nil, log)
	if err != nil {
		return digest.Result{}, err
	}
	return svc.RunOnce(ctx)
}

// printSender writes the digest instead of sending it.
type printSender struct{ w io.Writer }

func (p printSender) SendText(_ context.Context, to, body string) error {
	_, err := fmt.Fprintf(p.w, "To: %s\n\n%s\n", to, body)
	return err
}

func summary(res digest.Result) string {
	switch res.Outcome {
	case digest.OutcomeSent:
		return fmt.Sprintf("✅ Digest for %s sent with %d item(s)", res.Day, res.Items)
	case digest.OutcomeEmpty:
		return fmt.Sprintf("⏭️  Nothing pending for %s", res.Day)
	case digest.OutcomeAlreadySent:
		return fmt.Sprintf("⏭️  Digest for %s was already sent", res.Day)
	case digest.OutcomeLocked:
		return fmt.Sprintf("⏭️  Another run holds the digest lock for %s", res.Day)
	default:
		return fmt.Sprintf("Digest for %s finished: %s", res.Day, res.Outcome)
	}
}
