package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	staticcmd "github.com/goliatone/go-sitesync/internal/commands/static"
	"github.com/goliatone/go-sitesync/internal/logging"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(state *cliState) *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build, then preview the output directory over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := state.module()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := executeBuild(ctx, res, state.stdout, staticcmd.BuildSiteCommand{Reason: "serve"}); err != nil {
				return err
			}
			if addr == "" {
				addr = res.config.Serve.Addr
			}

			logger := logging.OrNoOp(res.logger)
			server := &http.Server{
				Addr:              addr,
				Handler:           newPreviewServer(res.config.Paths.OutputDir),
				ReadHeaderTimeout: 10 * time.Second,
			}

			group, groupCtx := errgroup.WithContext(ctx)
			group.Go(func() error {
				logger.Info("sitesync.serve.listening", "addr", addr, "root", res.config.Paths.OutputDir)
				fmt.Fprintf(state.stdout, "serving %s on http://%s\n", res.config.Paths.OutputDir, addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			group.Go(func() error {
				<-groupCtx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
			if watch {
				group.Go(func() error {
					return watchAndRebuild(groupCtx, res, state.stdout)
				})
			}
			return group.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: serve.addr)")
	cmd.Flags().BoolVar(&watch, "watch", true, "rebuild when inputs change")
	return cmd
}

// newPreviewServer serves root without directory listings and with caching
// disabled so rebuilt pages show up on reload.
func newPreviewServer(root string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), noCache())
	engine.StaticFS("/", gin.Dir(root, false))
	return engine
}

func noCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}
