// Command homeward generates a hex island and serves it to a renderer.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/talgya/homeward/internal/api"
	"github.com/talgya/homeward/internal/config"
	"github.com/talgya/homeward/internal/engine"
	"github.com/talgya/homeward/internal/logging"
	"github.com/talgya/homeward/internal/persistence"
	"github.com/talgya/homeward/internal/world"
)

func main() {
	if err := config.Load("."); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(os.Stdout, config.GetString("logLevel"))

	slog.Info("Homeward: find the way off the island")

	// ── Journal ───────────────────────────────────────────────────────
	var journal *persistence.DB
	jc := config.GetJournalConfig()
	if jc.Enabled {
		if err := os.MkdirAll(filepath.Dir(jc.Path), 0755); err != nil {
			slog.Error("failed to create journal directory", "error", err)
			os.Exit(1)
		}
		db, err := persistence.Open(jc.Path)
		if err != nil {
			slog.Error("failed to open journal", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		journal = db
		slog.Info("journal opened", "path", jc.Path)

		if prev := previousSession(db); prev != "" {
			slog.Info("previous session", "summary", prev)
		}
	}

	// ── Session ───────────────────────────────────────────────────────
	sc := config.GetSessionConfig()
	sess, err := engine.NewSession(sc)
	if err != nil {
		slog.Error("failed to start session", "error", err)
		os.Exit(1)
	}
	if journal != nil {
		sess.Attach(journal)
	}

	for kind, n := range world.TerrainCounts(sess.Map) {
		slog.Info("terrain", "type", kind.String(), "count", n)
	}

	// A fixed seed only pins the first island; regenerated ones are fresh.
	regen := sc
	regen.Gen.Seed = 0

	// ── HTTP API ──────────────────────────────────────────────────────
	ac := config.GetAPIConfig()
	proxies, err := api.ParseProxies(ac.TrustedProxies)
	if err != nil {
		slog.Error("invalid api.trustedProxies", "error", err)
		os.Exit(1)
	}
	apiServer := api.NewServer(sess, func() (*engine.Session, error) {
		return engine.NewSession(regen)
	})
	apiServer.Port = ac.Port
	apiServer.CORSOrigins = ac.CORSOrigins
	apiServer.TrustedProxies = proxies
	if journal != nil {
		apiServer.Journal = journal
	}
	httpServer := apiServer.Start()

	fmt.Printf("\n%s\n", readySummary(sess))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", ac.Port)
	fmt.Println("Waiting for the renderer... (Ctrl+C to stop)")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}

	fmt.Println("Homeward stopped.")
}

// readySummary describes a freshly generated island for the console.
func readySummary(sess *engine.Session) string {
	return fmt.Sprintf("Island ready: %s tiles, %s walkable, found after %s.",
		humanize.Comma(int64(sess.Map.Len())),
		humanize.Comma(int64(sess.Map.WalkableCount())),
		english.Plural(sess.Attempts, "attempt", "attempts"))
}

// previousSession describes the last journaled session, or returns "" when
// there is none.
func previousSession(db *persistence.DB) string {
	row, err := db.LastSession()
	if err != nil {
		slog.Warn("failed to read previous session", "error", err)
		return ""
	}
	if row == nil {
		return ""
	}
	outcome := "unfinished"
	if row.Won {
		outcome = "won"
	}
	return fmt.Sprintf("%s %s after %s, started %s",
		row.ID, outcome,
		english.Plural(row.Moves, "move", "moves"),
		humanize.Time(time.Unix(row.StartedAt, 0)))
}
