package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lazypower/memboost/internal/policy"
	"github.com/lazypower/memboost/internal/reclaim"
	"github.com/lazypower/memboost/internal/store"
)

var (
	boostTerminate bool
	boostForce     bool
	boostYes       bool
	boostJSON      bool
)

var boostCmd = &cobra.Command{
	Use:   "boost",
	Short: "Run one reclaim operation: cache purge, then optional termination",
	RunE:  runBoost,
}

func init() {
	boostCmd.Flags().BoolVar(&boostTerminate, "terminate", false, "also terminate eligible candidate processes")
	boostCmd.Flags().BoolVar(&boostForce, "force", false, "escalate to SIGKILL for processes that survive the grace period")
	boostCmd.Flags().BoolVarP(&boostYes, "yes", "y", false, "approve risky candidates without prompting (dangerous still prompts)")
	boostCmd.Flags().BoolVar(&boostJSON, "json", false, "output the event record as JSON")

	vp.BindPFlag("enable_termination", boostCmd.Flags().Lookup("terminate"))
}

func runBoost(cmd *cobra.Command, args []string) error {
	pol, err := resolvePolicy()
	if err != nil {
		return err
	}

	db, err := openStore(pol)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer db.Close()

	orch := reclaim.New(db, pol)

	res, err := orch.Boost(context.Background(), reclaim.Options{
		Trigger:        store.TriggerManual,
		AllowTerminate: boostTerminate,
		Confirm:        confirmFunc(),
		Force:          boostForce,
	})
	if err != nil {
		return err
	}
	if res.LogErr != nil {
		// The boost itself succeeded; say so before reporting the log
		// problem.
		fmt.Fprintf(os.Stderr, "warning: event log write failed: %v\n", res.LogErr)
	}

	if boostJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Event)
	}

	fmt.Printf("freed: %d MB (free %d MB -> %d MB)\n",
		res.Event.DeltaMB, res.Event.Before.FreeMB, res.Event.After.FreeMB)
	fmt.Printf("pressure at start: %s\n", res.Event.Pressure)

	var details reclaim.Details
	if err := json.Unmarshal(res.Event.Details, &details); err == nil {
		if !details.Purge.OK {
			fmt.Printf("purge unavailable: %s\n", details.Purge.Error)
		}
		for _, d := range details.Terminations {
			fmt.Printf("  %s (pid %d, %d MB, %s): %s\n", d.Name, d.PID, d.RSSMB, d.Tier, d.Outcome)
		}
	}
	return nil
}

// confirmFunc builds the interactive confirmation gate. Without a
// terminal there is no one to ask, so non-auto-eligible candidates are
// refused. --yes approves risky candidates but a dangerous candidate
// always requires a typed confirmation.
func confirmFunc() func(policy.Candidate) bool {
	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	return func(c policy.Candidate) bool {
		if c.Tier == policy.TierRisky && boostYes {
			return true
		}
		if !interactive {
			return false
		}

		reader := bufio.NewReader(os.Stdin)
		if c.Tier == policy.TierDangerous {
			fmt.Printf("DANGEROUS: terminate %s (pid %d, %d MB)? %s\ntype YES to confirm: ",
				c.Name, c.PID, c.RSSMB, c.Reason)
			line, err := reader.ReadString('\n')
			if err != nil {
				return false
			}
			return strings.TrimSpace(line) == "YES"
		}

		fmt.Printf("terminate %s (pid %d, %d MB, %s)? [y/N]: ", c.Name, c.PID, c.RSSMB, c.Tier)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}
