package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lojasmm/wabot/internal/command"
	"github.com/lojasmm/wabot/internal/config"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Print the registered commands in match order",
	Long:  "Builds the command registry from the built-ins and REPLIES_FILE and prints it. No credentials are needed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Parse()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		reg, err := buildRegistry(cfg)
		if err != nil {
			return err
		}
		return printCommands(cmd.OutOrStdout(), reg)
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}

func printCommands(out io.Writer, reg *command.Registry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTRIGGER\tCATEGORY\tFLAGS\tDESCRIPTION")
	for i, c := range reg.Commands() {
		flags := "-"
		switch {
		case c.RequiresOwner && !c.Listed():
			flags = "owner,hidden"
		case c.RequiresOwner:
			flags = "owner"
		case !c.Listed():
			flags = "hidden"
		}
		fmt.Fprintf(tw, "%d\t%s%s\t%s\t%s\t%s\n", i+1, reg.Prefix(), c.Pattern, c.Category, flags, c.Description)
	}
	return tw.Flush()
}
