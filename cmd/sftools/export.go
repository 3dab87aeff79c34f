package main

import (
	"fmt"

	"github.com/natserract/sftools/pkg/soql"
	"github.com/natserract/sftools/pkg/store/postgres"
	"github.com/spf13/cobra"
)

var (
	exportSelect  string
	exportFrom    string
	exportWhere   string
	exportPreload bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run a SOQL query and persist the records to PostgreSQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		sf, err := newClient(logger)
		if err != nil {
			return err
		}

		db, err := postgres.New(postgres.NewConfig(), logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		ctx := cmd.Context()
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}

		q := soql.NewQuery(exportFrom, exportSelect)
		q.Where = exportWhere

		result, err := sf.Query(ctx, q, exportPreload)
		if err != nil {
			return err
		}

		saved, skipped, err := db.SaveRecords(ctx, exportFrom, result.Records)
		if err != nil {
			return err
		}

		fmt.Printf("Exported %d of %d records (%d skipped)\n", saved, result.TotalSize, skipped)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportSelect, "select", "Id", "Comma-separated fields to select")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Object type to query (required)")
	exportCmd.Flags().StringVar(&exportWhere, "where", "", "SOQL WHERE expression")
	exportCmd.Flags().BoolVar(&exportPreload, "preload-fields", false, "Select all fields (FIELDS(ALL))")
	exportCmd.MarkFlagRequired("from")

	rootCmd.AddCommand(exportCmd)
}
