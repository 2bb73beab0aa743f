package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Kauxtubh/pinecone"
	"github.com/Kauxtubh/pinecone/pkg/client"
)

var (
	serverURL       string
	statsFollow     bool
	statsJSONOutput bool
)

var statsCmd = &cobra.Command{
	Use:   "stats [index]",
	Short: "Show index statistics from a running server",
	Long: `Show vector counts per index and namespace. With an index argument only
that index is shown. With --follow the command subscribes to the server's
stats socket and prints a line for every update until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&serverURL, "url", client.DefaultBaseURL, "gateway base URL")
	statsCmd.Flags().BoolVarP(&statsFollow, "follow", "f", false, "stream live updates")
	statsCmd.Flags().BoolVar(&statsJSONOutput, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	c := client.New(serverURL)
	indexName := ""
	if len(args) > 0 {
		indexName = args[0]
	}

	if statsFollow {
		return followStats(c, indexName)
	}
	return showStats(c, indexName)
}

func showStats(c *client.Client, indexName string) error {
	ctx := context.Background()

	stats := make(map[string]pinecone.IndexStats)
	if indexName != "" {
		s, err := c.IndexStats(ctx, indexName)
		if err != nil {
			return err
		}
		stats[indexName] = *s
	} else {
		list, err := c.ListIndexes(ctx)
		if err != nil {
			return err
		}
		for _, desc := range list {
			s, err := c.IndexStats(ctx, desc.Name)
			if err != nil {
				return err
			}
			stats[desc.Name] = *s
		}
	}

	return displayStats(stats)
}

func followStats(c *client.Client, indexName string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := c.SubscribeStats(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		stream.Close()
		cancel()
	}()

	for {
		frame, err := stream.Next()
		if err != nil {
			// Interrupt closes the stream under the reader.
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		stats := frame.Indexes
		if indexName != "" {
			s, ok := frame.Indexes[indexName]
			if !ok {
				fmt.Printf("%s  index %q not found\n", frame.Timestamp.Format("15:04:05"), indexName)
				continue
			}
			stats = map[string]pinecone.IndexStats{indexName: s}
		}

		if statsJSONOutput {
			if err := json.NewEncoder(os.Stdout).Encode(frame); err != nil {
				return err
			}
			continue
		}

		for _, name := range sortedIndexNames(stats) {
			s := stats[name]
			fmt.Printf("%s  %-24s vectors=%-8d namespaces=%d\n",
				frame.Timestamp.Format("15:04:05"), name, s.TotalVectorCount, len(s.Namespaces))
		}
	}
}

func displayStats(stats map[string]pinecone.IndexStats) error {
	if statsJSONOutput {
		return json.NewEncoder(os.Stdout).Encode(stats)
	}

	if len(stats) == 0 {
		fmt.Println("No indexes.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tDIMENSION\tVECTORS\tNAMESPACE\tCOUNT")
	fmt.Fprintln(w, "-----\t---------\t-------\t---------\t-----")

	for _, name := range sortedIndexNames(stats) {
		s := stats[name]
		if len(s.Namespaces) == 0 {
			fmt.Fprintf(w, "%s\t%d\t%d\t-\t-\n", name, s.Dimension, s.TotalVectorCount)
			continue
		}

		namespaces := make([]string, 0, len(s.Namespaces))
		for ns := range s.Namespaces {
			namespaces = append(namespaces, ns)
		}
		sort.Strings(namespaces)

		for i, ns := range namespaces {
			label := ns
			if label == "" {
				label = "(default)"
			}
			if i == 0 {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\n", name, s.Dimension, s.TotalVectorCount, label, s.Namespaces[ns])
			} else {
				fmt.Fprintf(w, "\t\t\t%s\t%d\n", label, s.Namespaces[ns])
			}
		}
	}

	return w.Flush()
}

func sortedIndexNames(stats map[string]pinecone.IndexStats) []string {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
