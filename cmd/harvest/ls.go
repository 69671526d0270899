package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [prefix]",
	Short: "List stored objects",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(lsCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}

	ctx := context.Background()
	a, log, err := newApp(ctx)
	defer log.Sync()
	if err != nil {
		return err
	}

	keys, err := a.Store().List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("listing %q: %w", prefix, err)
	}
	for _, key := range keys {
		fmt.Fprintln(os.Stdout, key)
	}
	return nil
}
