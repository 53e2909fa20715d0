package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"3tcapital/phonecheck/internal/application/lookup"
	"3tcapital/phonecheck/internal/infrastructure/config"
	"3tcapital/phonecheck/internal/infrastructure/logger"
)

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <number>",
		Short: "Resolve a phone number and print the stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				record, err := a.service.Resolve(ctx, args[0], lookup.RequestContext{})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), record)
			})
		},
	}
}

func newFieldCmd() *cobra.Command {
	var translit bool

	cmd := &cobra.Command{
		Use:   "field <number> <field>",
		Short: "Fetch a single provider field (operator, region, ...) for a number",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				value, err := a.service.Field(ctx, args[0], args[1], translit)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&translit, "translit", false, "ask the provider for a transliterated value")
	return cmd
}

// withApp wires the pipeline for a one-shot command. Logs go to stderr so
// stdout carries only the result.
func withApp(parent context.Context, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.NewWithWriter(os.Stderr, cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	a, err := newApp(parent, cfg, log, false)
	if err != nil {
		return err
	}
	defer a.close()

	return fn(parent, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
