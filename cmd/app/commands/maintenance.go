package commands

import (
	"context"
	"fmt"
	"time"

	storageDomain "github.com/Jisevind/relayum-storage/internal/storage/domain"
)

// RunVerify runs a read-only integrity sweep and prints one line per object.
// With owner 0 every user namespace is swept. A non-zero exit signals that
// unhealthy objects were found.
func RunVerify(ctx context.Context, owner int, cmdIO IOTuple) error {
	container, useCase, err := newEngine()
	if err != nil {
		return err
	}
	defer closeContainer(container, container.Logger())

	var reports []*storageDomain.VerifyReport
	if owner > 0 {
		report, err := useCase.Verify(ctx, int64(owner))
		if err != nil {
			return err
		}
		reports = append(reports, report)
	} else {
		reports, err = useCase.VerifyAll(ctx)
		if err != nil {
			return err
		}
	}

	healthy := true
	total := 0
	for _, report := range reports {
		for _, entry := range report.Entries {
			total++
			fmt.Fprintf(cmdIO.Writer, "%s %s %s\n", report.UserHash[:12], entry.FileID, entry.Status)
			if entry.Status != storageDomain.VerifyOK {
				healthy = false
			}
		}
	}

	fmt.Fprintf(cmdIO.Writer, "checked %d objects in %d namespaces\n", total, len(reports))
	if !healthy {
		return fmt.Errorf("verification found unhealthy objects")
	}
	return nil
}

// RunCleanupTemp removes stale staging files. maxAgeMinutes 0 falls back to
// the configured TEMP_MAX_AGE_MINUTES.
func RunCleanupTemp(ctx context.Context, maxAgeMinutes int, cmdIO IOTuple) error {
	container, useCase, err := newEngine()
	if err != nil {
		return err
	}
	defer closeContainer(container, container.Logger())

	maxAge := container.Config().TempMaxAge
	if maxAgeMinutes > 0 {
		maxAge = time.Duration(maxAgeMinutes) * time.Minute
	}

	removed, err := useCase.CleanupTemp(ctx, maxAge)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmdIO.Writer, "removed %d stale temp files\n", removed)
	return nil
}
