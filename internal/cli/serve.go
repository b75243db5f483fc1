package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/neonvariant/sitestats/pkg/snapshot"
)

const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command: a read-only preview server for the
// snapshot data directory, handy for checking what the static site will see.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the snapshot data directory for preview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Serve.Addr
			}

			store := snapshot.NewStore(cfg.DataDir)
			srv := &http.Server{
				Addr:              addr,
				Handler:           c.serveRouter(store),
				ReadHeaderTimeout: 5 * time.Second,
			}

			printInfo("Serving %s on %s", cfg.DataDir, addr)
			printDetail("Snapshots at /stats/{dockerhub|github|analytics}")

			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// serveRouter builds the chi router. Snapshots are served by provider name
// only; the server never exposes arbitrary paths from the data directory.
func (c *CLI) serveRouter(store *snapshot.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(c.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		index := map[string]string{}
		for name, file := range snapshotFiles() {
			if _, err := os.Stat(store.Path(file)); err == nil {
				index[name] = "/stats/" + name
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(index)
	})

	r.Get("/stats/{provider}", func(w http.ResponseWriter, req *http.Request) {
		file, ok := snapshotFiles()[chi.URLParam(req, "provider")]
		if !ok {
			http.NotFound(w, req)
			return
		}
		data, err := os.ReadFile(store.Path(file))
		if os.IsNotExist(err) {
			http.NotFound(w, req)
			return
		}
		if err != nil {
			http.Error(w, "read snapshot", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	return r
}

func snapshotFiles() map[string]string {
	return map[string]string{
		providerDockerHub: snapshot.DockerHubFile,
		providerGitHub:    snapshot.GitHubFile,
		providerAnalytics: snapshot.AnalyticsFile,
	}
}

// requestLogger logs one line per request at debug level.
func (c *CLI) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		c.Logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "elapsed", time.Since(start).Round(time.Millisecond))
	})
}
