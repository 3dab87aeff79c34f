package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/natserract/sftools/pkg/soql"
	"github.com/spf13/cobra"
)

var (
	querySelect  string
	queryFrom    string
	queryWhere   string
	queryOrderBy string
	queryPreload bool
	queryFields  []string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a SOQL query, paginating through the full result set",
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

		q := soql.NewQuery(queryFrom, querySelect)
		q.Where = queryWhere
		if queryOrderBy != "" {
			q.OrderBy = soql.ListFromCSV(queryOrderBy)
		}

		result, err := sf.Query(cmd.Context(), q, queryPreload)
		if err != nil {
			return err
		}

		if len(queryFields) > 0 {
			for _, rec := range result.Records {
				for _, f := range queryFields {
					fmt.Printf("%s: %s\n", f, rec.StringField(f))
				}
			}
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Records)
	},
}

var countCmd = &cobra.Command{
	Use:   "count <from> [where]",
	Short: "Count rows matching a query without retrieving them",
	Args:  cobra.RangeArgs(1, 2),
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

		where := ""
		if len(args) > 1 {
			where = args[1]
		}
		count, err := sf.QueryCount(cmd.Context(), args[0], where)
		if err != nil {
			return err
		}
		fmt.Println(strconv.Itoa(count))
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&querySelect, "select", "Id", "Comma-separated fields to select")
	queryCmd.Flags().StringVar(&queryFrom, "from", "", "Object type to query (required)")
	queryCmd.Flags().StringVar(&queryWhere, "where", "", "SOQL WHERE expression")
	queryCmd.Flags().StringVar(&queryOrderBy, "order-by", "", "Comma-separated ORDER BY fields (default Id)")
	queryCmd.Flags().BoolVar(&queryPreload, "preload-fields", false, "Select all fields (FIELDS(ALL)); lowers the page cap to 200 rows")
	queryCmd.Flags().StringArrayVarP(&queryFields, "field", "f", nil, "Print only the given field(s) instead of JSON")
	queryCmd.MarkFlagRequired("from")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(countCmd)
}
