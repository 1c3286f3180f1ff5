package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ringserve",
	Short: "Serve a ring pipeline built from a YAML config",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ring.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
