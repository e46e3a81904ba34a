package main

import (
	"fmt"

	"github.com/as2gw/gateway/internal/as2model"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var direction string
	var limit int

	cmd := &cobra.Command{
		Use:   "list-messages",
		Short: "List recent messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := openStores()
			if err != nil {
				return err
			}
			defer stores.Close()

			messages, err := stores.store.ListRecent(as2model.Direction(direction), limit)
			if err != nil {
				return fmt.Errorf("failed to list messages: %w", err)
			}

			if len(messages) == 0 {
				fmt.Println("no messages found")
				return nil
			}

			fmt.Printf("%-36s  %-10s  %-6s  %-20s  %s\n", "ID", "DIRECTION", "STATUS", "PARTNER", "ADV-STATUS")
			for _, m := range messages {
				fmt.Printf("%-36s  %-10s  %-6s  %-20s  %s\n", m.ID, m.Direction, m.Status, m.PartnerName, m.AdvStatus)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "", "Filter by direction (IN, OUT)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of messages to show")
	return cmd
}
