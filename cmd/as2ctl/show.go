package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <message-id>",
		Short: "Show a message's detail and log history",
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

			fmt.Printf("ID:             %s\n", msg.ID)
			fmt.Printf("Message-ID:     %s\n", msg.MessageID)
			fmt.Printf("Direction:      %s\n", msg.Direction)
			fmt.Printf("Status:         %s (%s)\n", msg.Status, msg.AdvStatus)
			fmt.Printf("Status message: %s\n", msg.StatusMessage)
			fmt.Printf("Organization:   %s\n", msg.OrgName)
			fmt.Printf("Partner:        %s\n", msg.PartnerName)
			fmt.Printf("Timestamp:      %s\n", msg.Timestamp)
			fmt.Printf("MIC:            %s (%s)\n", msg.MIC, msg.MICAlg)
			fmt.Printf("Compressed/Encrypted/Signed: %v / %v / %v\n", msg.Compressed, msg.Encrypted, msg.Signed)
			fmt.Printf("Retries:        %d\n", msg.Retries)

			logs, err := stores.store.ListLogs(msg.ID)
			if err != nil {
				return fmt.Errorf("failed to load logs: %w", err)
			}
			if len(logs) > 0 {
				fmt.Println("\nLog:")
				for _, l := range logs {
					fmt.Printf("  [%s] %s %s\n", l.Timestamp.Format("2006-01-02 15:04:05"), l.Status, l.Text)
				}
			}
			return nil
		},
	}
}
