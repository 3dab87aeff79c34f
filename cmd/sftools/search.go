package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var searchNoEscape bool

var searchCmd = &cobra.Command{
	Use:   "search <find> <returning>",
	Short: "Run a SOSL search",
	Long:  "Run a SOSL search. The find string is escaped by default; the enclosing braces are added automatically.",
	Args:  cobra.ExactArgs(2),
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

		result, err := sf.Search(cmd.Context(), args[0], args[1], !searchNoEscape)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.SearchRecords)
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchNoEscape, "no-escape", false, "Do not escape SOSL reserved characters in the find string")
	rootCmd.AddCommand(searchCmd)
}
