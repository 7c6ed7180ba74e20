package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/csamedu/portal/core/notify"
	"github.com/csamedu/portal/core/session"

	logsvc "github.com/csamedu/portal/services/logger"
)

// watchNotifications polls the backend's unread count until interrupted.
func (cli *commandLine) watchNotifications(role session.Role, token string, interval time.Duration) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	poller := notify.NewPoller(
		cli.api, role, token, interval,
		logsvc.NewConsoleLogger(logger),
		func(count int) {
			fmt.Printf("%s unread notifications (%s): %d\n", time.Now().Format(time.Kitchen), role, count)
		},
	)
	poller.Start(ctx)

	<-ctx.Done()
	poller.Stop()
	return nil
}
