// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfuse/internal/debugsink"
)

var slugCmd = &cobra.Command{
	Use:   "slug [topic]",
	Short: "Print the debug directory name for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), debugsink.SlugOrDefault(strings.Join(args, " ")))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(slugCmd)
}
