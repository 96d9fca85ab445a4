package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"cparchive/internal/archive"
	"cparchive/internal/browser"
	"cparchive/internal/canonical"
	"cparchive/internal/config"
	"cparchive/internal/fetcher"
	"cparchive/internal/formatter"
	"cparchive/internal/logger"
	"cparchive/internal/problem"
	"cparchive/internal/scraper"
	_ "cparchive/internal/sites/atcoder"
	_ "cparchive/internal/sites/codechef"
	_ "cparchive/internal/sites/codeforces"
	_ "cparchive/internal/sites/leetcode"
	"cparchive/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

var (
	outputFormat string
	outputFile   string
	cfgFile      string
	force        bool
	showUI       bool
)

func main() {
	v := config.New()
	rootCmd := newRootCmd(v)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, message(err))
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "cparchive [URL]",
		Short:   "Archive competitive-programming problems",
		Version: version,
		Long: `cparchive extracts a problem statement, its sample tests and metadata from
Codeforces, AtCoder, LeetCode or CodeChef into one normalized record.
Formulas are kept as $...$ / $$...$$ markup.`,
		Example: `  # Print a problem as markdown
  cparchive -f markdown https://codeforces.com/problemset/problem/158/A

  # Archive into a database; known problems are not fetched again
  cparchive --db problems.db https://atcoder.jp/contests/abc300/tasks/abc300_a
  cparchive --db problems.db --force https://leetcode.com/problems/two-sum/

  # Show an archived problem
  cparchive show codeforces-158A --db problems.db -f json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				os.Exit(0)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ReadFile(v, cfgFile); err != nil {
				return err
			}
			return logger.Setup(v.GetString("log.level"), v.GetBool("log.pretty"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, args[0])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&outputFormat, "format", "f", "text", "Output format (html, text, markdown, json, csv)")
	flags.StringVarP(&outputFile, "output", "o", "", "Output file path (format inferred from extension if -f not specified)")
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./cparchive.yaml)")
	flags.String("db", "", "SQLite database of archived problems")
	flags.StringP("proxy", "p", os.Getenv("CPARCHIVE_PROXY"), "Proxy URL (e.g. http://127.0.0.1:7890), defaults to CPARCHIVE_PROXY env var")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Duration("timeout", fetcher.DefaultTimeouts.Navigation, "Page navigation timeout")
	rootCmd.Flags().BoolVar(&force, "force", false, "Extract again even if the problem is already archived")
	rootCmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")

	for key, flag := range map[string]string{
		"store.path":          "db",
		"browser.proxy":       "proxy",
		"log.level":           "log-level",
		"timeouts.navigation": "timeout",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(detectCmd(), canonicalCmd(), sourcesCmd(), showCmd(v))
	return rootCmd
}

func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect URL",
		Short: "Print the platform a URL belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, ok := scraper.Detect(args[0])
			if !ok {
				return problem.NewError(problem.ErrUnsupportedPlatform, "", args[0], nil)
			}
			fmt.Fprintln(cmd.OutOrStdout(), source)
			return nil
		},
	}
}

func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the supported platforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, source := range scraper.Registered() {
				fmt.Fprintln(cmd.OutOrStdout(), source)
			}
			return nil
		},
	}
}

func canonicalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "canonical URL",
		Short: "Print the canonical form of a problem URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), canonical.Canonicalize(normalizeURL(args[0])))
			return nil
		},
	}
}

func showCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print an archived problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if cfg.StorePath == "" {
				return errors.New("--db is required")
			}
			st, err := store.OpenSQLite(cfg.StorePath)
			if err != nil {
				return err
			}
			defer st.Close()

			r, err := archive.NewService(nil, st).Show(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no archived problem with id %q", args[0])
				}
				return err
			}
			return write(r)
		},
	}
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	if outputFile != "" && outputFormat == "text" {
		if inferred := formatter.InferFromExtension(outputFile); inferred != "" {
			outputFormat = inferred
		}
	}
	if !formatter.Valid(outputFormat) {
		return nil, fmt.Errorf("invalid output format: %s", outputFormat)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if showUI {
		cfg.Browser.Headless = false
	}
	return cfg, nil
}

func run(ctx context.Context, v *viper.Viper, target string) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	sessions := browser.NewManager(cfg.Browser)
	defer sessions.Close()

	dispatcher := scraper.NewDispatcher(scraper.Deps{
		Browser: fetcher.NewFetcher(sessions, cfg.Timeouts),
		HTTP:    fetcher.NewHTTPClient(cfg.HTTP),
	})

	var st store.Store = store.NewMemory()
	if cfg.StorePath != "" {
		if st, err = store.OpenSQLite(cfg.StorePath); err != nil {
			return err
		}
	}
	defer st.Close()

	res, err := archive.NewService(dispatcher, st).Archive(ctx, normalizeURL(target), force)
	if err != nil {
		return err
	}
	if res.Cached {
		fmt.Fprintf(os.Stderr, "Already archived as %s (use --force to extract again)\n", res.Record.ID)
	}
	return write(res.Record)
}

func write(r *problem.Record) error {
	out, err := formatter.Format(problem.NewContent(r), outputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Output written to: %s\n", outputFile)
		return nil
	}
	fmt.Println(out)
	return nil
}

// message is what the user sees for err. Extraction errors get the
// message for their kind; the detail goes to the log.
func message(err error) string {
	if problem.KindOf(err) == nil {
		return "Error: " + err.Error()
	}
	log.Error().Err(err).Msg("extraction error")
	return "Error: " + problem.UserMessage(err)
}

// normalizeURL adds https:// when the URL has no scheme.
func normalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return rawURL
	}
	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "https://" + rawURL
	}
	return rawURL
}
