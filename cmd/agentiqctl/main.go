package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xela07ax/agentiq-console/internal/audit"
	"github.com/xela07ax/agentiq-console/internal/domain"
	"github.com/xela07ax/agentiq-console/internal/export"
	"github.com/xela07ax/agentiq-console/internal/infra"
	"github.com/xela07ax/agentiq-console/internal/policy"
	"github.com/xela07ax/agentiq-console/internal/repository/postgres"
	"github.com/xela07ax/agentiq-console/internal/session"
	"github.com/xela07ax/agentiq-console/internal/simulator"
	"github.com/xela07ax/agentiq-console/internal/ticket"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "agentiqctl",
		Short:         "Offline simulator and tooling for the AgentIQ console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		simulateCmd(),
		exportCmd(),
		watchCmd(),
		archiveStatsCmd(),
	)
	return rootCmd
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	return infra.NewLogger(infra.LoggerConfig{Level: level, Format: "console"})
}

func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().Int("count", 10, "Number of actions to perform")
	cmd.Flags().StringSlice("action", nil, "Actions to perform (random from the catalog when empty)")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 picks one from the clock)")
}

// runSimulation наполняет журнал отдельной сессии случайными действиями
func runSimulation(cmd *cobra.Command, logger *zap.Logger) (*session.Session, error) {
	count, _ := cmd.Flags().GetInt("count")
	actions, _ := cmd.Flags().GetStringSlice("action")
	seed, _ := cmd.Flags().GetUint64("seed")

	if count < 0 {
		return nil, fmt.Errorf("count must be non-negative, got %d", count)
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	pool := domain.KnownActions
	if len(actions) > 0 {
		pool = make([]domain.ActionName, 0, len(actions))
		for _, a := range actions {
			if !domain.IsKnownAction(domain.ActionName(a)) {
				return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAction, a)
			}
			pool = append(pool, domain.ActionName(a))
		}
	}

	rng := rand.New(rand.NewPCG(seed, 1))
	gen := simulator.NewGenerator(policy.DefaultPolicy{}, simulator.WithRand(rand.New(rand.NewPCG(seed, 2))))

	sess := session.NewManager(session.Options{}, logger).Create()
	for i := 0; i < count; i++ {
		rec, err := gen.Perform(pool[rng.IntN(len(pool))], simulator.Overrides{})
		if err != nil {
			return nil, err
		}
		sess.Log.Append(rec)
	}
	logger.Debug("simulation finished", zap.Int("count", count), zap.Uint64("seed", seed))
	return sess, nil
}

func selection(cmd *cobra.Command) []domain.ActionName {
	raw, _ := cmd.Flags().GetStringSlice("select")
	out := make([]domain.ActionName, 0, len(raw))
	for _, a := range raw {
		out = append(out, domain.ActionName(a))
	}
	return out
}

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a simulated session and print the audit report as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			sess, err := runSimulation(cmd, logger)
			if err != nil {
				return err
			}

			links := ticket.NewBuilder(defaultTickets())
			agg := audit.NewAggregator(links, logger)
			selected := selection(cmd)

			if err := printYAML(cmd.OutOrStdout(), agg.Report(sess.Log, selected)); err != nil {
				return err
			}

			// Второй показ: уже исполненные предложения больше не появляются
			if twice, _ := cmd.Flags().GetBool("twice"); twice {
				fmt.Fprintln(cmd.OutOrStdout(), "---")
				return printYAML(cmd.OutOrStdout(), agg.Report(sess.Log, selected))
			}
			return nil
		},
	}
	addSimulationFlags(cmd)
	cmd.Flags().StringSlice("select", nil, "Dashboard filter (all actions when empty)")
	cmd.Flags().Bool("twice", false, "Render the dashboard a second time")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run a simulated session and export the filtered log",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			var write func(io.Writer, []domain.ActionRecord) error
			switch format {
			case "csv":
				write = export.WriteCSV
			case "pdf":
				write = export.WritePDF
			default:
				return fmt.Errorf("unsupported format %q (csv, pdf)", format)
			}
			if output == "" {
				output = "filtered_data." + format
			}

			sess, err := runSimulation(cmd, logger)
			if err != nil {
				return err
			}
			records := audit.Filter(sess.Log.All(), audit.NewSelection(selection(cmd)...))

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := write(f, records); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d records written to %s\n", len(records), output)
			return nil
		},
	}
	addSimulationFlags(cmd)
	cmd.Flags().StringSlice("select", nil, "Export filter (all actions when empty)")
	cmd.Flags().String("format", "csv", "Output format: csv or pdf")
	cmd.Flags().StringP("output", "o", "", "Output file (filtered_data.<format> by default)")
	return cmd
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print executed-remediation signals published by the console",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			addr, _ := cmd.Flags().GetString("redis")
			rdb := redis.NewClient(&redis.Options{Addr: addr})
			defer rdb.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			infra.ListenResilient(ctx, rdb, logger, infra.RedisChanRemediationExecuted, func(payload string) {
				fmt.Fprintln(out, payload)
			})
			return nil
		},
	}
	cmd.Flags().String("redis", "localhost:6379", "Redis address")
	return cmd
}

func archiveStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive-stats",
		Short: "Summarize the audit archive written by the console",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, _ := cmd.Flags().GetString("db")
			window, _ := cmd.Flags().GetDuration("window")
			if dsn == "" {
				dsn = os.Getenv("AGENTIQ_DATABASE_URL")
			}
			if dsn == "" {
				return fmt.Errorf("--db or AGENTIQ_DATABASE_URL is required")
			}

			db, err := postgres.Open(dsn)
			if err != nil {
				return err
			}
			repo := postgres.NewArchiveRepo(db)
			defer repo.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			summary, err := repo.Summary(ctx, window)
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().String("db", "", "Postgres connection string")
	cmd.Flags().Duration("window", time.Hour, "Time window to summarize")
	return cmd
}

func printYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// defaultTickets — тот же шаблон, что и у консоли по умолчанию
func defaultTickets() ticket.Config {
	return ticket.Config{
		BaseURL:   ticket.DefaultBaseURL,
		ProjectID: ticket.DefaultProjectID,
		IssueType: ticket.DefaultIssueType,
		Labels:    ticket.DefaultLabels(),
	}
}
