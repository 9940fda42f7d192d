/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/campusdesk/apiserver/config"
	"github.com/campusdesk/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

// eventsCmd represents the events command.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the domain event stream",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print events from the configured broker as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		broker, err := mq.Open(cmd.Context(), cfg.MQ)
		if err != nil {
			return fmt.Errorf("connect to broker failed: %w", err)
		}
		if broker == nil {
			return errors.New("no mq backend configured, set MQ_BACKEND")
		}
		defer func() {
			_ = broker.Close()
		}()

		return broker.Subscribe(cmd.Context(), cfg.MQ.EventsChannel, func(ctx context.Context, msg mq.Message) error {
			fmt.Fprintf(os.Stdout, "%s\n", msg.Data)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
