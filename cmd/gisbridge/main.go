package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapgrid/gisbridge/pkg/config"
)

var (
	flagHost string
	flagPort int
)

func bridgeAddr() string {
	return fmt.Sprintf("%s:%d", flagHost, flagPort)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "gisbridge",
		Short: "Remote control client for a gisbridged host",
		Long: `gisbridge talks to a running gisbridged instance over its TCP
bridge protocol. Each subcommand maps to one bridge command; the mcp
subcommand exposes the whole set as MCP tools over stdio.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "localhost", "Bridge host")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", config.DefaultPort, "Bridge port")

	rootCmd.AddCommand(
		newInfoCmd(),
		newLayersCmd(),
		newAddVectorCmd(),
		newAddRasterCmd(),
		newZoomCmd(),
		newVisibilityCmd(),
		newRemoveCmd(),
		newExecCmd(),
		newAlgCmd(),
		newMCPCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
