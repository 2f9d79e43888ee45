// Puppybowl serves the Puppy Bowl roster web client and offers a small
// command line view of the same remote roster.
//
// Usage:
//
//	puppybowl serve
//	puppybowl players list
//	puppybowl version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "puppybowl",
		Short: "Puppy Bowl roster client",
		Long: `A server-rendered web client for a remote Puppy Bowl roster.

Configuration is read from the environment (APP_*, PUPPYBOWL_*, SESSION_*).
Run 'puppybowl serve' to start the web client.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newPlayersCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "puppybowl %s\n", version)
		},
	}
}
