package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HerbHall/tabula/internal/backup"
	"github.com/HerbHall/tabula/internal/services"
	"github.com/HerbHall/tabula/pkg/table"
)

var backupOutput string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Archive the database and a CSV export of every dataset",
	Args:  cobra.NoArgs,
	RunE:  runBackup,
}

func init() {
	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "",
		"output file (default tabula-backup-{timestamp}.tar.gz)")
}

func runBackup(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), zap.NewNop())
	if err != nil {
		return err
	}
	defer a.Close()

	if backupOutput == "" {
		backupOutput = fmt.Sprintf("tabula-backup-%s.tar.gz", time.Now().Format("20060102-150405"))
	}

	datasets := bindDatasets(a.datasets)
	exports := make([]backup.Export, 0, len(datasets))
	for _, name := range datasetNames() {
		d := datasets[name]
		exports = append(exports, backup.Export{
			Name: name,
			Write: func(ctx context.Context, w io.Writer) error {
				return d.exportAll(ctx, defaultExportQuery(name), w)
			},
		})
	}

	if err := backup.Archive(cmd.Context(), a.store.DB(), a.store.Path(), exports, backupOutput); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Backup created:"), backupOutput)
	return nil
}

// defaultExportQuery orders backup exports: inbox datasets by arrival,
// catalog datasets by title.
func defaultExportQuery(name string) table.Query {
	key := "title"
	if name == services.DatasetRegistrations || name == services.DatasetMessages {
		key = "created_at"
	}
	return table.Query{Sort: table.ByColumn(key, table.Ascending)}
}
