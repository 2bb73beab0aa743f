package main

import (
	"github.com/spf13/cobra"

	"github.com/Kauxtubh/pinecone/internal/tui"
	"github.com/Kauxtubh/pinecone/pkg/client"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Launch the live stats dashboard",
	Long: `Launch a BubbleTea terminal dashboard that subscribes to a running
server's stats socket. One row per index with vector and namespace
counts, refreshed as the server pushes updates.

Key bindings:
  Up/Down  Select index
  r        Reconnect after a drop
  q        Quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Run(client.New(serverURL))
	},
}

func init() {
	topCmd.Flags().StringVar(&serverURL, "url", client.DefaultBaseURL, "gateway base URL")
}
