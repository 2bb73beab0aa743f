package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kauxtubh/pinecone/pkg/client"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Trigger a snapshot on a running server",
	Long: `Ask a running server to persist its state now, outside the scheduled
maintenance window. The snapshot runs in the background on the server;
this command returns as soon as it is accepted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)
		if err := c.TriggerSnapshot(context.Background()); err != nil {
			return err
		}
		fmt.Println("Snapshot started.")
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&serverURL, "url", client.DefaultBaseURL, "gateway base URL")
}
