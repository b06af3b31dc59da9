package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"deckify/internal/config"
	"deckify/internal/services"
	"deckify/internal/services/ankiconnect"
	"deckify/internal/services/backend"
)

const probeTimeout = 5 * time.Second

// CheckBackend verifies that the analysis backend answers its health probe.
// It uses a single attempt with a 5-second timeout.
func CheckBackend(ctx context.Context, cfg config.Backend, opts ...backend.Option) Result {
	const name = "Backend"

	checkCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := backend.NewClient(cfg, opts...).Health(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: cfg.BaseURL}
}

// CheckAnki verifies that AnkiConnect answers a version request.
func CheckAnki(ctx context.Context, cfg config.Anki, opts ...ankiconnect.Option) Result {
	const name = "AnkiConnect"

	checkCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	version, err := ankiconnect.NewClient(cfg, opts...).Version(checkCtx)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("%s (version %d)", cfg.URL, version)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeError produces a human-readable summary for a failed probe.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (service unreachable)"
	}
	if hint := services.Hint(err); hint != "" {
		return fmt.Sprintf("%v (%s)", err, hint)
	}
	return err.Error()
}
