package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/use-agent/skisnap/api"
	"github.com/use-agent/skisnap/cleaner"
	"github.com/use-agent/skisnap/config"
	"github.com/use-agent/skisnap/llm"
	"github.com/use-agent/skisnap/models"
	"github.com/use-agent/skisnap/scheduler"
	"github.com/use-agent/skisnap/scraper"
	"github.com/use-agent/skisnap/snapshot"
	"github.com/use-agent/skisnap/webhook"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "skisnap",
		Short:         "Build a structured ski-resort status snapshot from resort web pages",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), cfg)
		},
	}

	root.PersistentFlags().StringVar(&cfg.Output.RegistryPath, "registry", cfg.Output.RegistryPath, "resort registry YAML (default: embedded registry)")
	root.PersistentFlags().StringVarP(&cfg.Output.Path, "output", "o", cfg.Output.Path, "snapshot file to write")

	root.AddCommand(runCmd(cfg), scheduleCmd(cfg), serveCmd(cfg), registryCmd(cfg))
	return root
}

func runCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Build and write one snapshot, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), cfg)
		},
	}
}

func scheduleCmd(cfg *config.Config) *cobra.Command {
	c := &cobra.Command{
		Use:   "schedule",
		Short: "Build a snapshot now and then every interval until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := newPipeline(cfg)
			if err != nil {
				return err
			}
			defer p.close()

			sched := scheduler.New(cfg.Snapshot.Interval, p.runFunc())
			if err := sched.Start(cmd.Context()); err != nil {
				return fail(exitFailure, err)
			}
			<-cmd.Context().Done()
			sched.Stop()
			slog.Info("scheduler stopped")
			return nil
		},
	}
	c.Flags().DurationVar(&cfg.Snapshot.Interval, "every", cfg.Snapshot.Interval, "interval between runs")
	return c
}

func serveCmd(cfg *config.Config) *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run on a schedule and serve the latest snapshot over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := newPipeline(cfg)
			if err != nil {
				return err
			}
			defer p.close()

			sched := scheduler.New(cfg.Snapshot.Interval, p.runFunc())
			if err := sched.Start(ctx); err != nil {
				return fail(exitFailure, err)
			}
			defer sched.Stop()

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(ctx, p.runner, cfg, version, time.Now()),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return fail(exitFailure, fmt.Errorf("http server: %w", err))
			case <-ctx.Done():
			}
			slog.Info("shutdown signal received")

			// Give in-flight requests 5 seconds to complete.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server forced shutdown", "error", err)
			} else {
				slog.Info("HTTP server drained gracefully")
			}
			return nil
		},
	}
	c.Flags().DurationVar(&cfg.Snapshot.Interval, "every", cfg.Snapshot.Interval, "interval between runs")
	c.Flags().IntVar(&cfg.Server.Port, "port", cfg.Server.Port, "HTTP listen port")
	return c
}

func registryCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "registry",
		Short: "Validate the resort registry and print it as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := config.LoadRegistry(cfg.Output.RegistryPath)
			if err != nil {
				return fail(exitFailure, err)
			}
			return printRegistry(cmd.OutOrStdout(), registry)
		},
	}
}

func printRegistry(w io.Writer, registry []models.ResortConfig) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(struct {
		Resorts []models.ResortConfig `yaml:"resorts"`
	}{registry}); err != nil {
		return fail(exitFailure, err)
	}
	return enc.Close()
}

// runOnce builds and writes a single snapshot. A missing credential exits 2
// before any work; a registry, setup or write failure exits 1.
func runOnce(ctx context.Context, cfg *config.Config) error {
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.close()

	if _, err := p.runner.Run(ctx); err != nil {
		return fail(exitFailure, err)
	}
	p.notifier.Wait()
	return nil
}

// pipeline owns everything a run needs.
type pipeline struct {
	scraper  *scraper.Scraper
	runner   *snapshot.Runner
	notifier *webhook.Notifier
}

func newPipeline(cfg *config.Config) (*pipeline, error) {
	// The credential is a startup precondition, checked before anything else.
	if cfg.LLM.APIKey == "" {
		err := fmt.Errorf("%s is not set", config.CredentialEnv(cfg.LLM.Provider))
		slog.Error("missing completion credential", "provider", cfg.LLM.Provider, "error", err)
		return nil, fail(exitNoCredentials, err)
	}

	registry, err := config.LoadRegistry(cfg.Output.RegistryPath)
	if err != nil {
		slog.Error("failed to load registry", "error", err)
		return nil, fail(exitFailure, err)
	}

	completer, err := llm.NewCompleter(cfg.LLM, nil)
	if err != nil {
		slog.Error("failed to initialise completion client", "error", err)
		return nil, fail(exitFailure, err)
	}

	sc, err := scraper.New(cfg.Fetch, cfg.Browser)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		return nil, fail(exitFailure, err)
	}

	builder := snapshot.NewBuilder(sc, cleaner.NewReducer(), llm.NewExtractor(completer, cfg.LLM), snapshot.Options{
		Prompt:        cfg.Prompt,
		CourtesyDelay: cfg.Snapshot.CourtesyDelay,
		Concurrency:   cfg.Snapshot.Concurrency,
	})

	p := &pipeline{scraper: sc, notifier: webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret)}
	var notifier snapshot.Notifier
	if p.notifier != nil {
		notifier = p.notifier
	}
	p.runner = snapshot.NewRunner(builder, registry, cfg.Output.Path, notifier)

	slog.Info("skisnap ready",
		"version", version,
		"resorts", len(registry),
		"provider", cfg.LLM.Provider,
		"model", completer.Model(),
		"strategy", sc.DefaultStrategy(),
		"output", cfg.Output.Path,
	)
	return p, nil
}

func (p *pipeline) runFunc() scheduler.RunFunc {
	return func(ctx context.Context) error {
		_, err := p.runner.Run(ctx)
		return err
	}
}

func (p *pipeline) close() {
	p.scraper.Close()
}
