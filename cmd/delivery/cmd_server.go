package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dimitrisnimas/Online-Delivery-App/app/routes"
	"github.com/dimitrisnimas/Online-Delivery-App/internal/kernel"
	"github.com/dimitrisnimas/Online-Delivery-App/internal/server"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/logger"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/router"
)

// delivery serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP (and optional gRPC health) server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		closeLogs, err := logger.UseMongo(ctx)
		if err != nil {
			return err
		}
		defer closeLogs() //nolint:errcheck

		db, err := bootDB()
		if err != nil {
			return err
		}
		k, err := kernel.New(ctx, db)
		if err != nil {
			return err
		}
		return server.Start(ctx, k)
	},
}

// delivery route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.New()
		routes.RegisterAPI(r, routes.Deps{})

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range r.Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
