// Command ingest is the cruxlog command-line client.
//
// Usage:
//
//	cruxlog sync --user u1 --source mountain_project --profile-url https://www.mountainproject.com/user/200123456/alex
//	cruxlog sync --user u1 --source eight_a --username alex   (password from EIGHTA_PASSWORD)
//	cruxlog pyramid --user u1
//	cruxlog grades code 5.10b/c --discipline trad
//	cruxlog grades convert 7a --from french --to yds
//	cruxlog grades list boulder
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/albapepper/cruxlog/internal/app"
	"github.com/albapepper/cruxlog/internal/config"
	"github.com/albapepper/cruxlog/internal/grade"
	"github.com/albapepper/cruxlog/internal/pipeline"
	"github.com/albapepper/cruxlog/internal/provider"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "cruxlog",
		Short:        "cruxlog logbook sync CLI",
		SilenceUsage: true,
	}

	root.AddCommand(syncCmd())
	root.AddCommand(pyramidCmd())
	root.AddCommand(gradesCmd())
	return root
}

// --------------------------------------------------------------------------
// sync command
// --------------------------------------------------------------------------

func syncCmd() *cobra.Command {
	var userID, source string
	var creds pipeline.Credentials
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch, classify and store a user's logbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			if creds.Password == "" {
				creds.Password = os.Getenv("EIGHTA_PASSWORD")
			}
			return runApp(func(ctx context.Context, cfg *config.Config, a *app.App) error {
				res, err := a.Orchestrator.Process(ctx, userID, provider.SourceType(source), creds)
				if err != nil {
					return err
				}
				logger.Info("Sync finished", "summary", res.Summary())
				fmt.Fprintf(cmd.OutOrStdout(), "saved %d, skipped %d duplicates, %d pyramid entries, %d tags\n",
					res.Saved, res.Skipped, len(res.Pyramid), len(res.Tags))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User identifier")
	cmd.Flags().StringVar(&source, "source", string(provider.SourceMountainProject), "Source type (mountain_project, eight_a)")
	cmd.Flags().StringVar(&creds.ProfileURL, "profile-url", "", "Profile URL")
	cmd.Flags().StringVar(&creds.Username, "username", "", "Login username (8a.nu)")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Login password (8a.nu); defaults to EIGHTA_PASSWORD")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// --------------------------------------------------------------------------
// pyramid command
// --------------------------------------------------------------------------

func pyramidCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "pyramid",
		Short: "Print a user's stored performance pyramid as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(func(ctx context.Context, cfg *config.Config, a *app.App) error {
				entries, err := a.Store.Pyramid(ctx, userID)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User identifier")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// --------------------------------------------------------------------------
// grades command
// --------------------------------------------------------------------------

func gradesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grades",
		Short: "Grade lookups and conversions",
	}
	cmd.AddCommand(gradesCodeCmd())
	cmd.AddCommand(gradesConvertCmd())
	cmd.AddCommand(gradesListCmd())
	cmd.AddCommand(gradesShowCmd())
	return cmd
}

func gradesCodeCmd() *cobra.Command {
	var discipline string
	cmd := &cobra.Command{
		Use:   "code <grade>...",
		Short: "Resolve grades to ordinal codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			d, err := parseDiscipline(discipline)
			if err != nil {
				return err
			}
			for i, code := range e.Codes(args, d) {
				display, _ := e.Grade(code)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", args[i], code, display)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&discipline, "discipline", "", "Discipline; disambiguates Font from French")
	return cmd
}

func gradesConvertCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "convert <grade>",
		Short: "Convert a grade between systems of the same family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			src, ok := grade.ParseSystem(from)
			if !ok {
				return fmt.Errorf("unknown system %q", from)
			}
			dst, ok := grade.ParseSystem(to)
			if !ok {
				return fmt.Errorf("unknown system %q", to)
			}
			out, ok := e.Convert(args[0], src, dst)
			if !ok {
				return fmt.Errorf("no %s equivalent for %s %q", dst, src, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source system (yds, french, v_scale, font)")
	cmd.Flags().StringVar(&to, "to", "", "Target system (yds, french, v_scale, font)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func gradesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <discipline>",
		Short: "List a discipline's grades from easiest to hardest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			d, err := parseDiscipline(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(e.SortedGrades(d), " "))
			return nil
		},
	}
}

func gradesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Print the display grade for a code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine()
			if err != nil {
				return err
			}
			code, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("code must be an integer: %w", err)
			}
			display, err := e.Grade(code)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), display)
			return nil
		},
	}
}

func newEngine() (*grade.Engine, error) {
	h, err := config.LoadHeuristics()
	if err != nil {
		return nil, err
	}
	return grade.NewEngine(grade.NewTable(),
		grade.WithCacheSize(h.GradeCacheSize),
		grade.WithChunkSize(h.GradeChunkSize))
}

func parseDiscipline(s string) (provider.Discipline, error) {
	if s == "" {
		return provider.DisciplineUnset, nil
	}
	d, ok := provider.ParseDiscipline(s)
	if !ok {
		return "", fmt.Errorf("unknown discipline %q", s)
	}
	return d, nil
}

// --------------------------------------------------------------------------
// Shared runner
// --------------------------------------------------------------------------

func runApp(fn func(ctx context.Context, cfg *config.Config, a *app.App) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	a, err := app.New(ctx, cfg, prometheus.NewRegistry(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, cfg, a)
}
