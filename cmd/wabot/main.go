package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "wabot",
	Short:        "WhatsApp Cloud API command bot",
	Long:         "wabot answers prefixed chat commands received through the WhatsApp Cloud API webhook.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
