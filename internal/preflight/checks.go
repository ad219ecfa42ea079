package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"animehub/internal/anilist"
	"animehub/internal/config"
	"animehub/internal/fetcher"
	"animehub/internal/store"
)

// CheckAniList requests a single schedule entry to confirm the endpoint is
// reachable and answering GraphQL.
func CheckAniList(ctx context.Context, cfg *config.Config) Result {
	const name = "AniList"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := anilist.New(cfg.AniList.BaseURL,
		anilist.WithTimeout(cfg.RequestTimeout()),
		anilist.WithUserAgent(cfg.AniList.UserAgent),
	)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	page, err := client.FetchPage(checkCtx, fetcher.PageRequest{Page: 1, PerPage: 1, Before: time.Now()})
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%d entries on probe page)", len(page.Entries)+page.Rejected)}
}

// CheckStore opens the configured catalog and counts its records.
func CheckStore(ctx context.Context, cfg *config.Config) Result {
	driver := cfg.Store.Driver
	if driver == "" {
		driver = config.StoreDriverSQLite
	}
	name := "Catalog (" + driver + ")"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	s, err := store.Open(checkCtx, cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer s.Close()

	records, err := s.Scan(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("scan failed (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d record(s)", len(records))}
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

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "probe timed out (AniList unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "probe timed out (AniList unreachable)"
	}
	var statusErr *anilist.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("probe failed (HTTP %d)", statusErr.Code)
	}
	return err.Error()
}
