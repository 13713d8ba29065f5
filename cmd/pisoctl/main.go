// Command pisoctl runs operational tasks against the room rental database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pisoctl",
		Short:         "Room rental operations tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		HashPasswordCmd(),
		MigrateCmd(),
		SeedCmd(),
		CreateAdminCmd(),
		PingDBCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
