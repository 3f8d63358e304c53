package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "rentdesk",
		Short:         "Rental listings and reservations service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSlice("env-file", []string{".env"}, "dotenv files to load before reading the environment")

	root.AddCommand(
		serveCmd(),
		migrateCmd(),
		reconcileCmd(),
		notifyCmd(),
		createAdminCmd(),
		routesCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
