package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	logShowDays    int
	logCleanupDays int
	logJSON        bool
	clearYes       bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Inspect and maintain the event log",
}

var logShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show recorded boost events",
	RunE:  runLogShow,
}

var logCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove events older than the retention window",
	RunE:  runLogCleanup,
}

var logClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all events",
	RunE:  runLogClear,
}

var logStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the event log",
	RunE:  runLogStats,
}

func init() {
	logShowCmd.Flags().IntVar(&logShowDays, "days", 7, "how many days back to show")
	logShowCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON")
	logCleanupCmd.Flags().IntVar(&logCleanupDays, "days", 0, "retention in days (default from config)")
	logClearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "do not ask for confirmation")

	logCmd.AddCommand(logShowCmd)
	logCmd.AddCommand(logCleanupCmd)
	logCmd.AddCommand(logClearCmd)
	logCmd.AddCommand(logStatsCmd)
}

func runLogShow(cmd *cobra.Command, args []string) error {
	pol, err := resolvePolicy()
	if err != nil {
		return err
	}
	db, err := openStore(pol)
	if err != nil {
		return err
	}
	defer db.Close()

	to := time.Now().Add(time.Minute)
	from := to.AddDate(0, 0, -logShowDays)
	events, err := db.Query(from, to)
	if err != nil {
		return err
	}

	if logJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	if len(events) == 0 {
		fmt.Println("no events")
		return nil
	}
	for _, e := range events {
		ts := time.UnixMilli(e.Timestamp).Format(time.RFC3339)
		fmt.Printf("%s  %-16s %-6s %+6d MB  pressure=%s\n",
			ts, e.Action, e.Trigger, e.DeltaMB, e.Pressure)
	}
	return nil
}

func runLogCleanup(cmd *cobra.Command, args []string) error {
	pol, err := resolvePolicy()
	if err != nil {
		return err
	}
	days := logCleanupDays
	if days <= 0 {
		days = pol.LogRetentionDays
	}

	db, err := openStore(pol)
	if err != nil {
		return err
	}
	defer db.Close()

	removed, err := db.Cleanup(days)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d events older than %d days\n", removed, days)
	return nil
}

func runLogClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		return fmt.Errorf("refusing to clear the event log without --yes")
	}

	pol, err := resolvePolicy()
	if err != nil {
		return err
	}
	db, err := openStore(pol)
	if err != nil {
		return err
	}
	defer db.Close()

	removed, err := db.Clear()
	if err != nil {
		return err
	}
	fmt.Printf("removed %d events\n", removed)
	return nil
}

func runLogStats(cmd *cobra.Command, args []string) error {
	pol, err := resolvePolicy()
	if err != nil {
		return err
	}
	db, err := openStore(pol)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := db.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("events: %d\n", s.Count)
	if s.Count > 0 {
		fmt.Printf("oldest: %s\n", time.UnixMilli(s.Oldest).Format(time.RFC3339))
		fmt.Printf("newest: %s\n", time.UnixMilli(s.Newest).Format(time.RFC3339))
	}
	return nil
}
