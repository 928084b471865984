package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	eventsLimit       int
	eventsShowSources bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recently ingested events",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		store, err := openStore(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open store: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		events, err := store.ListRecentEvents(ctx, eventsLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list events: %v\n", err)
			os.Exit(1)
		}

		if len(events) == 0 {
			fmt.Println("No events yet. Add a monitor and run `vigil run`.")
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Println()
		for _, e := range events {
			fmt.Printf("%s  %s  %s\n",
				cyan(e.EventDate.Format("2006-01-02")),
				yellow(string(e.EventType)),
				e.Title)
			if e.Summary != "" {
				fmt.Printf("  %s\n", e.Summary)
			}

			if eventsShowSources {
				sources, err := store.ListSourcesByEvent(ctx, e.ID)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: failed to list sources: %v\n", err)
					os.Exit(1)
				}
				for _, src := range sources {
					fmt.Printf("  %s\n", gray(fmt.Sprintf("%s (%s)", src.URL, src.Publisher)))
				}
			}
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "Maximum events to show")
	eventsCmd.Flags().BoolVar(&eventsShowSources, "sources", false, "Show each event's cited sources")
}
