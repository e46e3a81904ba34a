package main

import (
	"fmt"

	"github.com/as2gw/gateway/internal/as2model"
	"github.com/spf13/cobra"
)

func newRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <message-id>",
		Short: "Mark a failed outbound message for immediate retry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := openStores()
			if err != nil {
				return err
			}
			defer stores.Close()

			msg, err := stores.store.GetMessage(args[0])
			if err != nil {
				return fmt.Errorf("failed to load message: %w", err)
			}
			if msg == nil {
				return fmt.Errorf("message %s not found", args[0])
			}
			if msg.Direction != as2model.DirectionOut {
				return fmt.Errorf("message %s is not an outbound message", args[0])
			}

			msg.Status = as2model.StatusRetry
			msg.StatusMessage = "retry requested via as2ctl"
			if err := stores.store.UpdateMessage(msg); err != nil {
				return fmt.Errorf("failed to mark message for retry: %w", err)
			}
			if err := stores.store.AppendLog(msg.ID, as2model.LogSuccess, "retry requested by operator"); err != nil {
				return fmt.Errorf("failed to append log: %w", err)
			}

			fmt.Printf("message %s queued for retry\n", msg.MessageID)
			return nil
		},
	}
}
