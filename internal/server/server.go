// Package server runs the HTTP and gRPC listeners of one API instance and
// shuts them down gracefully.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dimitrisnimas/Online-Delivery-App/config"
	"github.com/dimitrisnimas/Online-Delivery-App/internal/kernel"
	grpcserver "github.com/dimitrisnimas/Online-Delivery-App/pkg/grpc"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// Start serves k until ctx is cancelled (usually by SIGINT/SIGTERM). Both
// listeners are bound before anything is served, so a port that cannot be
// bound fails Start without leaving the other server running.
func Start(ctx context.Context, k *kernel.Kernel) error {
	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	httpLis, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return closeKernel(k, err)
	}

	var (
		grpcSrv *grpcserver.Server
		grpcLis net.Listener
	)
	if port := config.GRPCPort(); port != "" {
		if grpcLis, err = grpcserver.Listen(port); err != nil {
			httpLis.Close() //nolint:errcheck
			return closeKernel(k, err)
		}
		grpcSrv = grpcserver.New()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return k.Run(gctx) })

	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", httpLis.Addr().String(), "env", config.AppEnv())
		if err := srv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if grpcSrv != nil {
		g.Go(func() error { return grpcSrv.Serve(grpcLis) })
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		if grpcSrv != nil {
			grpcSrv.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return closeKernel(k, g.Wait())
}

func closeKernel(k *kernel.Kernel, err error) error {
	if cerr := k.Close(); cerr != nil {
		logger.Warn("closing realtime publishers", "error", cerr)
	}
	return err
}
