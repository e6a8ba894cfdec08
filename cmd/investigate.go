package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/osintworks/trailhound/internal/advisor"
	"github.com/osintworks/trailhound/internal/api"
	"github.com/osintworks/trailhound/internal/config"
	"github.com/osintworks/trailhound/internal/controller"
	"github.com/osintworks/trailhound/internal/extract"
	"github.com/osintworks/trailhound/internal/fetcher"
	"github.com/osintworks/trailhound/internal/journal"
	"github.com/osintworks/trailhound/internal/logging"
	"github.com/osintworks/trailhound/internal/ratelimit"
	"github.com/osintworks/trailhound/internal/search"
	"github.com/osintworks/trailhound/internal/snapshot"
)

const shutdownGrace = 5 * time.Second

// newInvestigateCmd creates and configures the 'investigate' subcommand.
func newInvestigateCmd() *cobra.Command {
	var (
		objective         string
		entity            string
		maxIterations     int
		maxHours          float64
		maxIdleIterations int
	)

	cmd := &cobra.Command{
		Use:   "investigate",
		Short: "Runs one investigation to completion",
		Long: `Seeds the target frontier from an advisory research strategy, then
iterates until the iteration, idle, or wall-clock budget is exhausted.
Checkpoints, discoveries, and the final report are written under the
journal directory for the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("objective") {
				cfg.Investigation.Objective = objective
			}
			if cmd.Flags().Changed("entity") {
				cfg.Investigation.Entity = entity
			}
			if cmd.Flags().Changed("max-iterations") {
				cfg.Investigation.MaxIterations = maxIterations
			}
			if cmd.Flags().Changed("max-hours") {
				cfg.Investigation.MaxHours = maxHours
			}
			if cmd.Flags().Changed("max-idle-iterations") {
				cfg.Investigation.MaxIdleIterations = maxIdleIterations
			}

			if err := cfg.ValidateRun(); err != nil {
				return err
			}
			return runInvestigation(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&objective, "objective", "", "what the investigation is trying to establish")
	cmd.Flags().StringVar(&entity, "entity", "", "the primary name or handle under investigation")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "iteration budget override")
	cmd.Flags().Float64Var(&maxHours, "max-hours", 0, "wall-clock budget override, in hours")
	cmd.Flags().IntVar(&maxIdleIterations, "max-idle-iterations", 0, "consecutive no-discovery budget override")

	return cmd
}

func runInvestigation(parent context.Context, cfg config.Config) error {
	log, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	runID := uuid.NewString()
	jrnl, err := journal.New(cfg.Journal.BaseDir, runID, log)
	if err != nil {
		return fmt.Errorf("init journal: %w", err)
	}
	defer func() {
		if cerr := jrnl.Close(); cerr != nil {
			log.Warn("close journal", zap.Error(cerr))
		}
	}()

	adv, err := advisor.New(advisor.Config{
		APIKey:    cfg.Advisor.APIKey,
		Model:     cfg.Advisor.Model,
		MaxTokens: cfg.Advisor.MaxTokens,
	}, log)
	if err != nil {
		return fmt.Errorf("init advisor: %w", err)
	}

	policy := extract.DefaultPolicy()
	policy.Weights = cfg.Scoring

	ctrl, err := controller.New(controller.Config{
		RunID:             runID,
		Objective:         cfg.Investigation.Objective,
		Entity:            cfg.Investigation.Entity,
		MaxIterations:     cfg.Investigation.MaxIterations,
		MaxIdleIterations: cfg.Investigation.MaxIdleIterations,
		MaxRuntime:        cfg.MaxRuntime(),
		FromYear:          cfg.Investigation.FromYear,
		SearchMaxResults:  cfg.Search.MaxResults,
		Seed:              cfg.Investigation.Seed,
		PriorityDomains:   cfg.Investigation.PriorityDomains,
		FallbackSources:   cfg.Investigation.FallbackSources,
	}, controller.Deps{
		Fetcher: fetcher.New(fetcher.Config{
			UserAgent:     cfg.Fetch.UserAgent,
			RespectRobots: cfg.Fetch.RespectRobots,
			Timeout:       cfg.FetchTimeout(),
		}, log),
		Archive:   snapshot.NewClient(cfg.Archive.BaseURL, log),
		Searcher:  search.New(cfg.Search.BaseURL, cfg.Fetch.UserAgent, log),
		Advisor:   adv,
		Extractor: extract.New(policy),
		Journal:   jrnl,
		Limiter: ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.RateLimit.RPS,
			DefaultBurst: cfg.RateLimit.Burst,
		}),
		Log: log,
	})
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Enabled {
		srv := api.NewServer(ctrl, cfg.Server.Port, log)
		go func() {
			if serr := srv.Start(); serr != nil {
				log.Error("status server failed", zap.Error(serr))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				log.Warn("status server shutdown", zap.Error(serr))
			}
		}()
	}

	if err := ctrl.Run(ctx); err != nil {
		return fmt.Errorf("run investigation: %w", err)
	}

	if report, ok := ctrl.Report(); ok {
		log.Info("investigation complete",
			zap.String("run_id", report.RunID),
			zap.String("reason", report.TerminationReason),
			zap.Int("iterations", report.Iterations),
			zap.Int("discoveries", report.TotalDiscoveries),
		)
	}
	return nil
}
