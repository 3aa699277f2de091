package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/0x6d61/owlscan/internal/engine"
	"github.com/0x6d61/owlscan/internal/fingerprint"
	"github.com/0x6d61/owlscan/internal/probe"
	"github.com/0x6d61/owlscan/internal/report"
	"github.com/0x6d61/owlscan/internal/session"
	"github.com/0x6d61/owlscan/internal/transport"
)

// runScan wires transport, knowledge base, scanner, report and history
// for a single domain.
func runScan(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	domain := probe.NormalizeDomain(args[0])

	timeout, _ := cmd.Flags().GetDuration("timeout")
	threads, _ := cmd.Flags().GetInt("threads")
	rps, _ := cmd.Flags().GetFloat64("rate")
	proxyURL, _ := cmd.Flags().GetString("proxy")
	insecure, _ := cmd.Flags().GetBool("insecure")
	userAgent, _ := cmd.Flags().GetString("user-agent")
	randomAgent, _ := cmd.Flags().GetBool("random-agent")
	sigPath, _ := cmd.Flags().GetString("signatures")
	independent, _ := cmd.Flags().GetBool("independent")
	catchAll, _ := cmd.Flags().GetBool("catch-all")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	noColor, _ := cmd.Flags().GetBool("no-color")
	verbose, _ := cmd.Flags().GetInt("verbose")
	sessionPath, _ := cmd.Flags().GetString("session")

	if threads < 1 {
		return fmt.Errorf("--threads must be at least 1, got %d", threads)
	}
	if noColor {
		color.NoColor = true
	}

	reporter, err := report.New(format, report.Options{NoColor: noColor, Verbose: verbose})
	if err != nil {
		return err
	}

	kb, err := loadKnowledgeBase(sigPath)
	if err != nil {
		return err
	}

	client, err := transport.NewClient(transport.ClientOptions{
		Timeout:            timeout,
		ProxyURL:           proxyURL,
		FollowRedirects:    true,
		InsecureSkipVerify: insecure,
		UserAgent:          userAgent,
		RandomUserAgent:    randomAgent,
		MaxRPS:             rps,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	var store session.Store
	if sessionPath != "" {
		s, err := session.NewSQLiteStore(sessionPath)
		if err != nil {
			return fmt.Errorf("failed to open session file %q: %w", sessionPath, err)
		}
		defer s.Close()
		store = s
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file %q: %w", outputPath, err)
		}
		defer f.Close()
		out = f
	}

	stderr := cmd.ErrOrStderr()
	cfg := engine.DefaultScanConfig()
	cfg.Threads = threads
	cfg.Verbose = verbose
	cfg.Independent = independent
	cfg.CatchAll = catchAll

	scanner := engine.NewScanner(client, kb, cfg,
		engine.WithLogger(newLogger(stderr, verbose)),
	)
	if verbose > 0 {
		scanner.SetProgressCallback(func(msg string) {
			fmt.Fprintf(stderr, "[*] %s\n", msg)
		})
		fmt.Fprintf(stderr, "[*] Target: %s\n", domain)
		names := kb.Names()
		fmt.Fprintf(stderr, "[*] Platforms (%d): %s\n", len(names), strings.Join(names, ", "))
		fmt.Fprintf(stderr, "[*] Admin paths: %d, threads: %d\n", len(kb.AdminPaths()), threads)
		if proxyURL != "" {
			fmt.Fprintf(stderr, "[*] Proxy: %s\n", proxyURL)
		}
	}

	// CTRL+C stops in-flight probes; the partial result is still reported.
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	result, err := scanner.Scan(ctx, domain)
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}

	// Report generation must not observe the interrupt.
	if err := reporter.Generate(context.WithoutCancel(ctx), result, out); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if store != nil {
		rec := session.NewRecord(result)
		if err := store.Save(context.WithoutCancel(ctx), rec); err != nil {
			fmt.Fprintf(stderr, "[!] Failed to save session: %v\n", err)
		} else if verbose > 0 {
			fmt.Fprintf(stderr, "[*] Saved scan %s to %s\n", rec.ID, sessionPath)
		}
	}

	return nil
}

func loadKnowledgeBase(path string) (*fingerprint.KnowledgeBase, error) {
	if path == "" {
		return fingerprint.Default(), nil
	}
	kb, err := fingerprint.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load signatures: %w", err)
	}
	return kb, nil
}

// newLogger maps verbosity 0-3 onto error, warn, info and debug.
func newLogger(w io.Writer, verbose int) *slog.Logger {
	level := slog.LevelError
	switch {
	case verbose >= 3:
		level = slog.LevelDebug
	case verbose >= 2:
		level = slog.LevelInfo
	case verbose >= 1:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
