//go:build darwin

package reclaim

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

const purgeBinary = "/usr/sbin/purge"

// SystemPurger shells out to the system purge tool. Tried directly
// first; some setups allow it unprivileged. Falls back to non-interactive
// sudo so a daemon never hangs on a password prompt.
type SystemPurger struct{}

func (SystemPurger) Purge(ctx context.Context) (time.Duration, error) {
	start := time.Now()

	if err := exec.CommandContext(ctx, purgeBinary).Run(); err == nil {
		return time.Since(start), nil
	}

	cmd := exec.CommandContext(ctx, "sudo", "-n", purgeBinary)
	if out, err := cmd.CombinedOutput(); err != nil {
		return time.Since(start), fmt.Errorf("purge: %w (%s)", err, out)
	}
	return time.Since(start), nil
}
