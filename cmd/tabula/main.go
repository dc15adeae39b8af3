// Command tabula serves the project and formation catalogs and the admin
// dashboard API, and queries the same datasets from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tabula",
	Short: "Tabular data engine and catalog/admin API server",
	Long: `tabula searches, filters, sorts, paginates and selects rows of its
datasets (projects, formations, registrations, messages) and serves them over
a JSON API.

Configuration comes from defaults, an optional YAML file (--config), a .env
file in the working directory and TABULA_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.AddCommand(serveCmd, queryCmd, exportCmd, tokenCmd, backupCmd, restoreCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}
