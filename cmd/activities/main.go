package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/mergington-activities/internal/registry"
	"github.com/celerix-dev/mergington-activities/pkg/client"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	defaultAddr := os.Getenv("ACTIVITIES_ADDR")
	if defaultAddr == "" {
		defaultAddr = "http://localhost:8000"
	}

	connect := func() (*client.Client, error) {
		return client.New(addr, client.WithRetry(3, 200*time.Millisecond))
	}
	withTimeout := func(cmd *cobra.Command) (context.Context, context.CancelFunc) {
		return context.WithTimeout(cmd.Context(), timeout)
	}

	root := &cobra.Command{
		Use:          "activities",
		Short:        "Mergington High School activity signup CLI",
		Long:         "Browse extracurricular activities and manage signups on a running activities daemon.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", defaultAddr, "daemon base URL (env ACTIVITIES_ADDR)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all activities with their participants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			catalog, err := c.List(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, catalog)
		},
	}

	signupCmd := &cobra.Command{
		Use:   "signup <activity> <email>",
		Short: "Sign a student up for an activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			msg, err := c.Signup(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	unregisterCmd := &cobra.Command{
		Use:   "unregister <activity> <email>",
		Short: "Remove a student from an activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			msg, err := c.Unregister(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the live catalog to a YAML file usable as catalog.path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			catalog, err := c.List(ctx)
			if err != nil {
				return err
			}
			if err := registry.WriteCatalog(args[0], catalog); err != nil {
				return fmt.Errorf("write catalog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d activities to %s\n", len(catalog), args[0])
			return nil
		},
	}

	root.AddCommand(listCmd, signupCmd, unregisterCmd, exportCmd)
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(bytes))
	return nil
}
