package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lazypower/memboost/internal/policy"
	"github.com/lazypower/memboost/internal/procs"
)

var (
	topCount int
	topJSON  bool
	topTiers bool
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "List processes by resident memory",
	RunE:  runTop,
}

func init() {
	topCmd.Flags().IntVarP(&topCount, "count", "n", 10, "number of processes to show")
	topCmd.Flags().BoolVar(&topJSON, "json", false, "output as JSON")
	topCmd.Flags().BoolVar(&topTiers, "tiers", false, "show safety tier for each process")
}

func runTop(cmd *cobra.Command, args []string) error {
	pol, err := resolvePolicy()
	if err != nil {
		return err
	}

	records, err := procs.System().List()
	if err != nil {
		return err
	}
	top := procs.TopN(records, topCount)

	if topJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(top)
	}

	fmt.Printf("%7s  %8s  %4s  %s\n", "PID", "RSS(MB)", "FG", "NAME")
	for _, rec := range top {
		fg := ""
		if rec.Foreground {
			fg = "*"
		}
		if topTiers {
			tier, _ := policy.Classify(rec, pol)
			fmt.Printf("%7d  %8d  %4s  %-30s %s\n", rec.PID, rec.RSSMB, fg, rec.Name, tier)
			continue
		}
		fmt.Printf("%7d  %8d  %4s  %s\n", rec.PID, rec.RSSMB, fg, rec.Name)
	}
	return nil
}
