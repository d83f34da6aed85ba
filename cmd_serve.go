package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"policy_workbench/generator"
	"policy_workbench/server"
	"policy_workbench/tracing"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	shutdownTracing := tracing.Init(ctx, a.cfg.Tracing, a.logger)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	agent, err := a.buildAgent(ctx)
	if err != nil {
		return err
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	policies, err := a.openPolicies(ctx, st)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Store:           st,
		Policies:        policies,
		Agent:           agent,
		Catalog:         generator.DefaultCatalog(),
		Model:           a.cfg.LLM.Model,
		MaxOutputTokens: a.cfg.LLM.MaxOutputTokens,
		SessionTTL:      a.cfg.GetSessionTTL(),
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		FontPath:        a.cfg.Export.FontPath,
		ServiceName:     a.cfg.Tracing.ServiceName,
		Logger:          a.logger,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting web server",
			zap.String("addr", httpSrv.Addr),
			zap.String("provider", a.cfg.LLM.Provider),
			zap.String("model", a.cfg.LLM.Model),
			zap.String("db", st.Path()))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down web server")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(sctx)
}
