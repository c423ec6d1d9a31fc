package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/okian/atdiff/internal/adapters/nadeo"
	"github.com/okian/atdiff/internal/adapters/repository"
	service "github.com/okian/atdiff/internal/app"
	"github.com/okian/atdiff/internal/config"
	"github.com/okian/atdiff/pkg/logger"
	"github.com/okian/atdiff/pkg/metrics"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(12)
	valueStyle = lipgloss.NewStyle().Bold(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		outPath    string
		logLevel   string
		lenient    bool
	)

	root := &cobra.Command{
		Use:           "atdiff-fetch",
		Short:         "Fetch official campaign author and leaderboard times into a CSV table",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				if err := os.Setenv(config.EnvConfigFile, configPath); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			if outPath != "" {
				cfg.DataPath = outPath
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if lenient {
				cfg.CatalogStrict = false
			}
			return run(ctx, cfg, cmd.OutOrStdout())
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "YAML config file")
	root.Flags().StringVarP(&outPath, "out", "o", "", "output CSV path (overrides data_path)")
	root.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	root.Flags().BoolVar(&lenient, "lenient", false, "keep the first catalog page when more groups exist")
	return root
}

// run executes one fetch and prints a summary to out.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if err := cfg.ValidateFetch(); err != nil {
		return err
	}
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	metrics.Init(
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem("fetch"),
		metrics.WithHistogramBuckets(cfg.MetricsBucketsMS),
		metrics.WithCustomLabels(map[string]string{"process": "fetch"}),
	)

	client := nadeo.New(
		nadeo.WithIdentityURL(cfg.IdentityURL),
		nadeo.WithCoreURL(cfg.CoreURL),
		nadeo.WithLiveURL(cfg.LiveURL),
		nadeo.WithAppID(cfg.UbiAppID),
		nadeo.WithAudience(cfg.Audience),
		nadeo.WithTimeout(cfg.HTTPTimeout()),
		nadeo.WithTokenLifetime(cfg.TokenLifetime()),
	)
	svc := service.New(
		service.WithLogger(logger.Named("fetch")),
		service.WithClient(client),
		service.WithStore(repository.NewCSVStore(cfg.DataPath)),
		service.WithAccount(cfg.UbisoftEmail, cfg.UbisoftPassword, cfg.AppName),
		service.WithCatalogPage(nadeo.CatalogPage{
			Length: cfg.CatalogLength,
			Offset: cfg.CatalogOffset,
			Strict: cfg.CatalogStrict,
		}),
		service.WithOffsets(cfg.TopOffset, cfg.TenKOffset),
		service.WithTokenSkew(cfg.TokenSkew()),
	)

	sum, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("fetch run %s: %w", sum.RunID, err)
	}
	_, err = fmt.Fprintln(out, summary(sum, cfg.DataPath))
	return err
}

func summary(sum service.Summary, path string) string {
	easiest := "-"
	best := 0.0
	for i, r := range sum.Records {
		if i == 0 || r.TenKPercent > best {
			best = r.TenKPercent
			easiest = fmt.Sprintf("%s (%.2f%%)", r.Name, r.TenKPercent)
		}
	}
	line := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Fetch complete"),
		line("Run", sum.RunID),
		line("Campaigns", fmt.Sprint(sum.Groups)),
		line("Tracks", fmt.Sprint(sum.Tracks)),
		line("Easiest AT", easiest),
		line("Took", sum.Duration.Round(time.Millisecond).String()),
		line("Written", path),
	)
	return boxStyle.Render(body)
}
