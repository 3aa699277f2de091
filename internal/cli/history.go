package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/0x6d61/owlscan/internal/probe"
	"github.com/0x6d61/owlscan/internal/report"
	"github.com/0x6d61/owlscan/internal/session"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show, delete or prune recorded scans",
		Long: `History reads the SQLite file given by --session and lists recorded
scans newest first. --show prints one stored scan in the --format of choice,
either by ID or as "latest" together with --domain. --delete removes one scan
by ID and --prune removes scans older than the given duration.`,
		Example: `  owlscan history --session scans.db
  owlscan history --session scans.db --domain example.com
  owlscan history --session scans.db --show latest --domain example.com
  owlscan history --session scans.db --show 3f0c... --format json
  owlscan history --session scans.db --prune 720h`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
	cmd.Flags().String("domain", "", "Only list scans of this domain")
	cmd.Flags().String("show", "", `Print the scan with this ID ("latest" needs --domain)`)
	cmd.Flags().String("delete", "", "Delete the scan with this ID")
	cmd.Flags().Duration("prune", 0, "Delete scans older than this duration")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	sessionPath, _ := cmd.Flags().GetString("session")
	if sessionPath == "" {
		return fmt.Errorf("--session is required")
	}
	cmd.SilenceUsage = true

	domain, _ := cmd.Flags().GetString("domain")
	showID, _ := cmd.Flags().GetString("show")
	deleteID, _ := cmd.Flags().GetString("delete")
	prune, _ := cmd.Flags().GetDuration("prune")
	noColor, _ := cmd.Flags().GetBool("no-color")

	store, err := session.NewSQLiteStore(sessionPath)
	if err != nil {
		return fmt.Errorf("failed to open session file %q: %w", sessionPath, err)
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case showID != "":
		return showRecord(cmd, store, showID, probe.NormalizeDomain(domain))

	case deleteID != "":
		ok, err := store.Delete(ctx, deleteID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no scan with ID %q", deleteID)
		}
		fmt.Fprintf(out, "[+] Deleted scan %s\n", deleteID)
		return nil

	case prune > 0:
		n, err := store.Cleanup(ctx, prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "[+] Pruned %d scan(s) older than %s\n", n, prune)
		return nil
	}

	summaries, err := store.List(ctx, probe.NormalizeDomain(domain))
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, "[-] No recorded scans.")
		return nil
	}

	if noColor {
		pterm.DisableStyling()
	}

	data := pterm.TableData{{"ID", "DATE", "DOMAIN", "PLATFORMS", "ADMIN PATHS"}}
	for _, s := range summaries {
		platforms := "-"
		if len(s.Platforms) > 0 {
			platforms = strings.Join(s.Platforms, ", ")
		}
		data = append(data, []string{
			s.ID,
			s.CreatedAt.Local().Format(time.DateTime),
			s.Domain,
			platforms,
			strconv.Itoa(s.AdminHits),
		})
	}

	if err := pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(false).
		WithWriter(out).
		WithData(data).
		Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// showRecord renders one stored scan through the reporter chosen by --format.
func showRecord(cmd *cobra.Command, store session.Store, id, domain string) error {
	ctx := cmd.Context()

	var (
		rec *session.Record
		err error
	)
	if id == "latest" {
		if domain == "" {
			return fmt.Errorf("--show latest requires --domain")
		}
		rec, err = store.Load(ctx, domain)
	} else {
		rec, err = store.LoadByID(ctx, id)
	}
	if err != nil {
		return err
	}
	if rec == nil {
		if id == "latest" {
			return fmt.Errorf("no recorded scan of %s", domain)
		}
		return fmt.Errorf("no scan with ID %q", id)
	}

	format, _ := cmd.Flags().GetString("format")
	noColor, _ := cmd.Flags().GetBool("no-color")
	verbose, _ := cmd.Flags().GetInt("verbose")

	reporter, err := report.New(format, report.Options{NoColor: noColor, Verbose: verbose})
	if err != nil {
		return err
	}
	return reporter.Generate(ctx, rec.Result(), cmd.OutOrStdout())
}
