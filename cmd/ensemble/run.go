package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ensembleai/ensemble/pkg/config"
	"github.com/ensembleai/ensemble/pkg/environment"
	"github.com/ensembleai/ensemble/pkg/llm"
	"github.com/ensembleai/ensemble/pkg/memory"
	ollamaembed "github.com/ensembleai/ensemble/pkg/memory/ollama"
	"github.com/ensembleai/ensemble/pkg/memory/qdrant"
	"github.com/ensembleai/ensemble/pkg/resilience"
	"github.com/ensembleai/ensemble/pkg/runner"
	"github.com/ensembleai/ensemble/pkg/telemetry"
	"github.com/ensembleai/ensemble/pkg/tool"
)

func runCommand(ctx context.Context, cfg *config.Config, global globalFlags, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("run needs a request, e.g. ensemble run \"write a haiku\"")
	}
	if global.RosterPath == "" {
		return fmt.Errorf("run needs --roster")
	}
	request := strings.Join(args, " ")

	roster, err := config.LoadRoster(global.RosterPath)
	if err != nil {
		return err
	}

	metrics, err := telemetry.NewRunMetrics()
	if err != nil {
		return err
	}

	provider, err := buildProvider(cfg, metrics)
	if err != nil {
		return err
	}

	var longterm *memory.LongTerm
	if cfg.Memory.Enabled {
		store, err := qdrant.New(cfg.Memory.QdrantAddr)
		if err != nil {
			return fmt.Errorf("connect qdrant: %w", err)
		}
		embedder := ollamaembed.NewEmbedder(cfg.Memory.EmbedderBaseURL, cfg.Memory.EmbedderModel)
		longterm = memory.NewLongTerm(store, embedder, cfg.Memory.Collection)
		if err := longterm.Initialize(ctx); err != nil {
			// Recall degrades to history-only; the run still works.
			fmt.Fprintln(os.Stderr, "warning: long-term memory unavailable:", err)
			longterm = nil
		}
	}

	roles, err := roster.Build(config.BuildDeps{
		Provider: provider,
		Model:    cfg.LLM.Model,
		Tools:    tool.NewRegistry(),
		Retry:    cfg.Retry.Resilience(),
		LongTerm: longterm,
	})
	if err != nil {
		return err
	}

	envOpts := []environment.Option{
		environment.WithMaxRounds(cfg.Run.MaxRounds),
		environment.WithParallel(cfg.Run.Parallel),
		environment.WithMetrics(metrics),
	}
	if cfg.Run.RoundTimeout() > 0 {
		envOpts = append(envOpts, environment.WithRoundTimeout(cfg.Run.RoundTimeout()))
	}
	if longterm != nil {
		envOpts = append(envOpts, environment.WithLongTerm(longterm))
	}
	env := environment.New(envOpts...)
	for _, r := range roles {
		if err := env.Register(r); err != nil {
			return err
		}
	}

	runOpts := []runner.Option{
		runner.WithStrictCompletion(cfg.Run.Strict),
		runner.WithMetrics(metrics),
	}
	if cfg.Memory.ArchivePath != "" {
		archive, err := memory.OpenSQLiteArchive(cfg.Memory.ArchivePath)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer archive.Close()
		runOpts = append(runOpts, runner.WithArchive(archive))
	}

	report, err := runner.New(runOpts...).Run(ctx, env, request)
	if report != nil {
		printReport(report)
	}
	return err
}

func buildProvider(cfg *config.Config, metrics *telemetry.RunMetrics) (llm.Provider, error) {
	var backend llm.Provider
	switch cfg.LLM.Provider {
	case "ollama":
		backend = llm.NewOllama(cfg.LLM.BaseURL)
	case "mock":
		backend = &llm.MockProvider{Response: "mock response"}
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: cfg.LLM.Provider})
	return llm.NewResilient(backend, cfg.Retry.Resilience(),
		llm.WithBreaker(breaker),
		llm.WithOnRetry(func(attempt int, err error) {
			metrics.RecordRetry(context.Background(), "", cfg.LLM.Provider)
		}),
	), nil
}

func validateCommand(global globalFlags, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("validate takes no arguments")
	}
	if global.RosterPath == "" {
		return fmt.Errorf("validate needs --roster")
	}

	roster, err := config.LoadRoster(global.RosterPath)
	if err != nil {
		return err
	}
	// Build with inert dependencies to surface wiring problems.
	if _, err := roster.Build(config.BuildDeps{
		Provider: &llm.MockProvider{Response: "ok"},
		Model:    "validate",
		Tools:    tool.NewRegistry(),
		Retry:    resilience.DefaultRetryConfig(),
	}); err != nil {
		return err
	}

	fmt.Printf("roster ok: %d roles\n", len(roster.Roles))
	for _, spec := range roster.Roles {
		triggers := make([]string, 0, len(spec.Actions))
		for _, a := range spec.Actions {
			triggers = append(triggers, fmt.Sprintf("%s->%s", a.Trigger, a.Name))
		}
		fmt.Printf("  %-16s %s\n", spec.Name, strings.Join(triggers, ", "))
	}
	return nil
}
