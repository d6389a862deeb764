package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lazypower/memboost/internal/stats"
)

var snapshotJSON bool

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Read current memory counters and pressure level",
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "output as JSON")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	snap, err := stats.System().Read()
	if err != nil {
		return err
	}

	if snapshotJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	fmt.Printf("total:      %6d MB\n", snap.TotalMB)
	fmt.Printf("free:       %6d MB\n", snap.FreeMB)
	fmt.Printf("active:     %6d MB\n", snap.ActiveMB)
	fmt.Printf("inactive:   %6d MB\n", snap.InactiveMB)
	fmt.Printf("wired:      %6d MB\n", snap.WiredMB)
	fmt.Printf("compressed: %6d MB\n", snap.CompressedMB)
	fmt.Printf("pressure:   %s\n", snap.Pressure)
	return nil
}
