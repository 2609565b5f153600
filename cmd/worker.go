package cmd

import (
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"esilogis/internal/bootstrap"
	"esilogis/internal/bootstrap/logging"
	"esilogis/internal/errs"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued notification emails from NATS and send them",
	RunE: withApp(func(cmd *cobra.Command, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		cfg := svc.App.Config

		if !strings.EqualFold(cfg.Notification.Queue, "nats") {
			logging.Warn(ctx, "notification.queue is not nats, the worker will only drain what other processes publish")
		}

		queue, release, err := svc.WorkerQueue()
		if err != nil {
			return errs.Wrap(err, "connect mail queue")
		}
		defer func() {
			if err := release(); err != nil {
				logging.Warn(ctx, "close mail queue failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logging.Info(ctx, "mail worker started", slog.String("subject", cfg.Notification.NATS.Subject))
		if err := queue.Consume(sigCtx, svc.Deliverer.Deliver); err != nil {
			return errs.Wrap(err, "consume mail queue")
		}
		logging.Info(ctx, "mail worker stopped")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
