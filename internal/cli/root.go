package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/0x6d61/owlscan/internal/probe"
)

// Version information (set by build flags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Execute runs the owlscan command tree against os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owlscan <domain>",
		Short: "CMS and admin panel reconnaissance tool",
		Long: `owlscan - CMS and admin panel reconnaissance tool

Identifies the content management system or e-commerce platform behind a
domain by fetching well-known paths and matching content fingerprints, then
probes a list of common admin and login paths.

A domain spelled like a subcommand ("version", "history") must follow "--",
as in "owlscan -- version".

WARNING: Use this tool only against systems you have explicit permission to test.`,
		Example: `  owlscan example.com
  owlscan --format json -o result.json example.com
  owlscan --threads 1 --catch-all shop.example.com
  owlscan -- history`,
		Args:          domainArg,
		RunE:          runScan,
		SilenceErrors: true,
	}

	// Connection flags
	cmd.PersistentFlags().Duration("timeout", 6*time.Second, "Timeout per request")
	cmd.PersistentFlags().Int("threads", 10, "Number of concurrent probes (1 = sequential)")
	cmd.PersistentFlags().Float64("rate", 0, "Maximum requests per second (0 = unlimited)")
	cmd.PersistentFlags().String("proxy", "", "Proxy URL (http://host:port or socks5://host:port)")
	cmd.PersistentFlags().Bool("insecure", false, "Skip TLS certificate verification")
	cmd.PersistentFlags().String("user-agent", "", "Override the User-Agent header")
	cmd.PersistentFlags().Bool("random-agent", false, "Use a random User-Agent per request")

	// Detection flags
	cmd.PersistentFlags().String("signatures", "", "YAML signature file replacing the built-in knowledge base")
	cmd.PersistentFlags().Bool("independent", false, "Fingerprint every platform at every reachable URL")
	cmd.PersistentFlags().Bool("catch-all", false, "Flag admin hits that look like the site's catch-all page")

	// Output flags
	cmd.PersistentFlags().StringP("format", "f", "text", "Output format (text, json)")
	cmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().IntP("verbose", "v", 0, "Verbosity level (0-3)")
	cmd.PersistentFlags().String("session", "", "SQLite file recording scan history")

	cmd.AddCommand(newVersionCmd(), newHistoryCmd())
	return cmd
}

// domainArg requires exactly one non-empty domain argument.
func domainArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("accepts exactly 1 domain argument, received %d", len(args))
	}
	if probe.NormalizeDomain(args[0]) == "" {
		return fmt.Errorf("domain must not be empty")
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "owlscan %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
