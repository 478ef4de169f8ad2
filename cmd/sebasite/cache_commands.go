package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"sebasite/internal/services"
)

type cacheEntry struct {
	Key   string `json:"key"`
	Bytes int    `json:"bytes"`
}

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local fallback cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "List cached keys and their sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				keys, err := rt.cache.Keys(cmd.Context())
				if err != nil {
					return err
				}
				entries := make([]cacheEntry, 0, len(keys))
				for _, key := range keys {
					value, _, err := rt.cache.Get(cmd.Context(), key)
					if err != nil {
						return err
					}
					entries = append(entries, cacheEntry{Key: key, Bytes: len(value)})
				}
				return ctx.emit(cmd, entries, func(w io.Writer) error {
					rows := make([][]string, 0, len(entries))
					for _, e := range entries {
						rows = append(rows, []string{e.Key, strconv.Itoa(e.Bytes)})
					}
					return printTable(w, []string{"Key", "Bytes"}, rows, []columnAlignment{alignLeft, alignRight})
				})
			})
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print the raw cached value for key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				value, ok, err := rt.cache.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return services.Wrap(services.ErrNotFound, "cli", "cache", fmt.Sprintf("key %q not cached", args[0]), nil)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
				return err
			})
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear [key]...",
		Short: "Remove cached keys (all keys when none are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				keys := args
				if len(keys) == 0 {
					var err error
					keys, err = rt.cache.Keys(cmd.Context())
					if err != nil {
						return err
					}
				}
				for _, key := range keys {
					if err := rt.cache.Delete(cmd.Context(), key); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cache entries\n", len(keys))
				return nil
			})
		},
	})

	return cacheCmd
}
