package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/neonvariant/sitestats/pkg/cache"
	"github.com/neonvariant/sitestats/pkg/errors"
	"github.com/neonvariant/sitestats/pkg/observability"
	"github.com/neonvariant/sitestats/pkg/snapshot"
)

// Provider names as they appear on the command line and in logs.
const (
	providerDockerHub = "dockerhub"
	providerGitHub    = "github"
	providerAnalytics = "analytics"
)

// fetchCommand creates the fetch command tree.
func (c *CLI) fetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch metrics and write snapshots",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   providerDockerHub,
		Short: "Fetch Docker Hub pull and star counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProviders(cmd, providerDockerHub)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   providerGitHub,
		Short: "Fetch GitHub star and fork counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProviders(cmd, providerGitHub)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   providerAnalytics,
		Short: "Fetch Google Analytics page views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProviders(cmd, providerAnalytics)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Fetch every configured provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runProviders(cmd, providerDockerHub, providerGitHub, providerAnalytics)
		},
	})

	return cmd
}

// runProviders runs each named provider in sequence. Providers are isolated:
// one failing run never stops the others, and a failed run never touches
// that provider's previous snapshot. The command fails if any run failed.
func (c *CLI) runProviders(cmd *cobra.Command, names ...string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	httpCache, err := c.newCache(cmd, cfg)
	if err != nil {
		return err
	}
	defer httpCache.Close()

	observability.SetFetchHooks(&logHooks{logger: c.Logger})
	observability.SetCacheHooks(&logHooks{logger: c.Logger})
	observability.SetHTTPHooks(&logHooks{logger: c.Logger})

	store := snapshot.NewStore(cfg.DataDir)
	fetchAll := len(names) > 1

	var failed []string
	for _, name := range names {
		if !cfg.providerConfigured(name) {
			if fetchAll {
				printWarning("Skipping %s: not configured", name)
				continue
			}
			return errors.New(errors.ErrCodeConfiguration, "%s is not configured", name)
		}

		if err := c.runProvider(cmd, cfg, httpCache, store, name); err != nil {
			printError("%s: %s", name, errors.UserMessage(err))
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("fetch failed for %v", failed)
	}
	return nil
}

// runProvider runs one provider end to end: enumerate, build the snapshot,
// write it, report.
func (c *CLI) runProvider(cmd *cobra.Command, cfg *Config, httpCache cache.Cache, store *snapshot.Store, name string) error {
	runID := uuid.NewString()
	logger := c.Logger.With("provider", name, "run", runID[:8])
	ctx := withLogger(cmd.Context(), logger)

	observability.Fetch().OnRunStart(ctx, name, runID)
	prog := newProgress(logger)
	start := time.Now()

	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Fetching %s metrics...", name))
	spin.Start()

	var (
		resources int
		failures  int
		err       error
	)
	switch name {
	case providerDockerHub:
		resources, failures, err = c.fetchDockerHub(ctx, cfg, httpCache, store)
	case providerGitHub:
		resources, failures, err = c.fetchGitHub(ctx, cfg, httpCache, store)
	case providerAnalytics:
		resources, failures, err = c.fetchAnalytics(ctx, cfg, httpCache, store)
	default:
		err = errors.New(errors.ErrCodeInternal, "unknown provider %s", name)
	}
	spin.Stop()

	observability.Fetch().OnRunComplete(ctx, name, runID, resources, time.Since(start), err)
	if err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Fetched %s metrics", name))
	if failures > 0 {
		printWarning("%s: %d of %d resources failed, recorded inline", name, failures, resources)
	} else {
		printSuccess("%s: %d resources", name, resources)
	}
	printFile(store.Path(snapshotFile(name)))
	return nil
}

func snapshotFile(name string) string {
	switch name {
	case providerDockerHub:
		return snapshot.DockerHubFile
	case providerGitHub:
		return snapshot.GitHubFile
	default:
		return snapshot.AnalyticsFile
	}
}

func (c *Config) providerConfigured(name string) bool {
	switch name {
	case providerDockerHub:
		return c.DockerHub.Namespace != ""
	case providerGitHub:
		return c.GitHub.Owner != ""
	case providerAnalytics:
		return c.Analytics.PropertyID != "" && c.Analytics.AccessToken != ""
	}
	return false
}
