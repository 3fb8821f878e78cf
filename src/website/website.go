package website

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/config"
	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/jobs"
	"git.inkwell.blog/inkwell/inkwell/src/logging"
	"git.inkwell.blog/inkwell/inkwell/src/perf"
	"git.inkwell.blog/inkwell/inkwell/src/templates"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var WebsiteCommand = &cobra.Command{
	Use:   "inkwell",
	Short: "Run the Inkwell blog",
	Run: func(cmd *cobra.Command, args []string) {
		defer logging.LogPanics(nil)
		logging.Info().Str("env", string(config.Config.Env)).Msg("Starting Inkwell")

		templates.Init()

		var wg sync.WaitGroup

		conn := db.NewConnPool()
		perfCollector, perfCollectorJob := perf.RunPerfCollector()

		wg.Add(1)
		backgroundJobs := jobs.Jobs{
			perfCollectorJob,
		}

		wg.Add(1)
		server := http.Server{
			Addr:              config.Config.Addr,
			Handler:           NewWebsiteRoutes(conn, perfCollector),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logging.Info().Str("addr", config.Config.Addr).Msg("Serving the website")
			serverErr := server.ListenAndServe()
			if !errors.Is(serverErr, http.ErrServerClosed) {
				logging.Error().Err(serverErr).Msg("Server shut down unexpectedly")
			}
			// The wg.Done() happens in the shutdown logic below.
		}()

		// The private server uses the default mux, which already has the
		// pprof routes from the import above.
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			// We don't bother to gracefully shut this down.
			logging.Info().Str("addr", config.Config.PrivateAddr).Msg("Serving metrics and pprof")
			err := http.ListenAndServe(config.Config.PrivateAddr, nil)
			logging.Warn().Err(err).Msg("Private server stopped")
		}()

		// Wait for SIGINT in the background and trigger graceful shutdown
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt)
		go func() {
			<-signals // First SIGINT (start shutdown)
			logging.Info().Msg("Shutting down the website")

			const timeout = 10 * time.Second

			go func() {
				logging.Info().Msg("Shutting down background jobs...")
				unfinished := backgroundJobs.CancelAndWait(timeout)
				if len(unfinished) == 0 {
					logging.Info().Msg("Background jobs closed gracefully")
				} else {
					logging.Warn().Strs("Unfinished", unfinished).Msg("Background jobs did not finish by the deadline")
				}
				wg.Done()
			}()

			go func() {
				timeoutCtx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				err := server.Shutdown(timeoutCtx)
				if err != nil {
					logging.Warn().Err(err).Msg("Server did not shut down gracefully")
				}
				conn.Close()
				wg.Done()
			}()

			<-signals // Second SIGINT (force quit)
			logging.Warn().Strs("Unfinished background jobs", backgroundJobs.ListUnfinished()).Msg("Forcibly killed the website")
			os.Exit(1)
		}()

		// Wait for all of the above to finish, then exit
		wg.Wait()
	},
}
