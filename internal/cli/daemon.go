package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/memboost/internal/monitor"
	"github.com/lazypower/memboost/internal/reclaim"
	"github.com/lazypower/memboost/internal/server"
	"github.com/lazypower/memboost/internal/stats"
	"github.com/lazypower/memboost/internal/store"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Monitor memory pressure and boost automatically",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
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

	// Automatic boosts never confirm and never force: only Safe (and,
	// when confirmation is waived by policy, Risky) candidates act.
	mon := monitor.New(stats.System(), func() {
		if _, err := orch.Boost(context.Background(), reclaim.Options{
			Trigger:        store.TriggerAuto,
			AllowTerminate: pol.EnableTermination,
		}); err != nil {
			log.Printf("daemon: auto boost: %v", err)
		}
	}, pol.ThrottleInterval, pol.SampleInterval)

	mon.Start()
	defer mon.Stop()

	// Retention cleanup once at startup, then daily.
	runCleanup := func() {
		if removed, err := db.Cleanup(pol.LogRetentionDays); err != nil {
			log.Printf("daemon: log cleanup: %v", err)
		} else if removed > 0 {
			log.Printf("daemon: log cleanup removed %d events", removed)
		}
	}
	runCleanup()
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runCleanup()
			case <-cleanupDone:
				return
			}
		}
	}()
	defer close(cleanupDone)

	srv := server.New(db, orch, mon, VersionString())
	addr := pol.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "memboost daemon on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", db.Path)
		fmt.Fprintf(os.Stderr, "  throttle: %s, sample: %s\n", pol.ThrottleInterval, pol.SampleInterval)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
