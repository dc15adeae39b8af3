package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/HerbHall/tabula/internal/backup"
	"github.com/HerbHall/tabula/internal/config"
)

var restoreForce bool

var restoreCmd = &cobra.Command{
	Use:   "restore <archive>",
	Short: "Restore the database from a backup archive",
	Long: `restore replaces database.path with the database stored in an archive
written by "tabula backup". Stop the server first.`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().BoolVar(&restoreForce, "force", false, "overwrite an existing database")
}

func runRestore(cmd *cobra.Command, args []string) error {
	v, err := config.Load(configPath)
	if err != nil {
		return err
	}
	settings, err := config.New(v).Settings()
	if err != nil {
		return err
	}

	if err := backup.Restore(cmd.Context(), args[0], settings.Database.Path, restoreForce); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Restore complete:"), settings.Database.Path)
	return nil
}
