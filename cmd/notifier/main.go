package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbanfrill/storefront/internal/config"
	"github.com/urbanfrill/storefront/internal/email"
	"github.com/urbanfrill/storefront/internal/infrastructure/kafka"
	"github.com/urbanfrill/storefront/internal/logger"
	"github.com/urbanfrill/storefront/internal/notification"
	"github.com/urbanfrill/storefront/pkg/jitter"
)

const (
	sendAttempts = 3
	sendBackoff  = 500 * time.Millisecond
	maxBackoff   = 5 * time.Second
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "storefront-notifier",
	Short: "Email customers when their orders are placed or paid",
	Long: `storefront-notifier consumes order events from Kafka and sends the
confirmation email through SMTP or SendGrid.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level with development output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	sender, err := newSender(cfg.Mail)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := notification.NewHandler(email.NewService(sender), log.Named("notification"))

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, log.Named("consumer"))
	defer consumer.Close()

	log.Info("Notifier started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group", cfg.Kafka.GroupID),
		zap.String("mail", cfg.Mail.Backend),
		zap.String("from", cfg.Mail.From),
	)

	err = consumer.Consume(ctx, withRetry(handler.HandleEvent, log))
	if errors.Is(err, context.Canceled) {
		log.Info("Notifier stopped")
		return nil
	}
	return err
}

func newSender(cfg config.MailConfig) (email.Sender, error) {
	if cfg.Backend == config.MailSendGrid {
		sg, err := email.NewSendGridSender(cfg.SendGridAPIKey, cfg.From)
		if err != nil {
			return nil, err
		}
		return sg, nil
	}
	return email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.From), nil
}

// withRetry retries a failed send a few times before the consumer logs it
// and moves on.
func withRetry(next kafka.MessageHandler, log *zap.Logger) kafka.MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		var err error
		for attempt := 0; attempt < sendAttempts; attempt++ {
			if attempt > 0 {
				wait := jitter.ExponentialBackoff(sendBackoff, maxBackoff, attempt-1, jitter.DefaultJitter)
				log.Debug("Retrying send", zap.ByteString("key", key), zap.Int("attempt", attempt+1), zap.Duration("wait", wait))
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
				}
			}
			if err = next(ctx, key, value); err == nil {
				return nil
			}
		}
		return err
	}
}
