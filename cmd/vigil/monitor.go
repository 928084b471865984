package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vigilhq/vigil/internal/types"
)

var (
	monitorSubject   string
	monitorSubjectID string
	monitorAliases   []string
	monitorTopic     string
	monitorTopicID   string
	monitorKeywords  []string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Manage monitors (subject and topic pairs)",
}

var monitorAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a monitor pairing a subject with a topic",
	Long: `Add a monitor. Each monitor pairs a person to watch with a topic of
interest; every scheduling pass searches for recent public events on that
pair.

Example:
  vigil monitor add --subject "Jane Doe" --alias "J. Doe" \
    --topic "Energy policy" --keyword renewables --keyword grid`,
	Args: cobra.NoArgs,
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

		subjectID := monitorSubjectID
		if subjectID == "" {
			subjectID = slugify("subject", monitorSubject)
		}
		topicID := monitorTopicID
		if topicID == "" {
			topicID = slugify("topic", monitorTopic)
		}

		monitor := &types.Monitor{
			ID:        uuid.NewString(),
			SubjectID: subjectID,
			Subject:   monitorSubject,
			Aliases:   monitorAliases,
			TopicID:   topicID,
			Topic:     monitorTopic,
			Keywords:  monitorKeywords,
		}
		if err := store.CreateMonitor(ctx, monitor); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create monitor: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("\n%s Added monitor\n\n", green("✓"))
		fmt.Printf("  Subject: %s (%s)\n", cyan(monitor.Subject), monitor.SubjectID)
		fmt.Printf("  Topic:   %s (%s)\n", cyan(monitor.Topic), monitor.TopicID)
		if len(monitor.Aliases) > 0 {
			fmt.Printf("  Aliases: %s\n", strings.Join(monitor.Aliases, ", "))
		}
		if len(monitor.Keywords) > 0 {
			fmt.Printf("  Keywords: %s\n", strings.Join(monitor.Keywords, ", "))
		}
		fmt.Println()
	},
}

var monitorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured monitors",
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

		monitors, err := store.ListMonitors(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list monitors: %v\n", err)
			os.Exit(1)
		}

		if len(monitors) == 0 {
			fmt.Println("No monitors configured. Add one with `vigil monitor add`.")
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Println()
		for _, m := range monitors {
			lastRun := "never"
			if m.LastRunAt != nil {
				lastRun = m.LastRunAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Printf("%s on %s\n", cyan(m.Subject), cyan(m.Topic))
			fmt.Printf("  %s\n", gray(fmt.Sprintf("id: %s  last run: %s", m.ID, lastRun)))
		}
		fmt.Println()
	},
}

// slugify builds a stable identifier from a display name, e.g.
// slugify("subject", "Jane  Doe") == "subject-jane-doe".
func slugify(prefix, name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return prefix
	}
	return prefix + "-" + slug
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.AddCommand(monitorAddCmd)
	monitorCmd.AddCommand(monitorListCmd)

	monitorAddCmd.Flags().StringVar(&monitorSubject, "subject", "", "Display name of the person to watch (required)")
	monitorAddCmd.Flags().StringVar(&monitorSubjectID, "subject-id", "", "Pin the subject ID instead of deriving it from the name")
	monitorAddCmd.Flags().StringSliceVar(&monitorAliases, "alias", nil, "Other names the subject goes by (repeatable)")
	monitorAddCmd.Flags().StringVar(&monitorTopic, "topic", "", "Topic to watch for (required)")
	monitorAddCmd.Flags().StringVar(&monitorTopicID, "topic-id", "", "Pin the topic ID instead of deriving it from the name")
	monitorAddCmd.Flags().StringSliceVar(&monitorKeywords, "keyword", nil, "Keywords that signal relevance (repeatable)")
	_ = monitorAddCmd.MarkFlagRequired("subject")
	_ = monitorAddCmd.MarkFlagRequired("topic")
}
