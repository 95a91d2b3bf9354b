package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sora/query"
)

var exportCmd = &cobra.Command{
	Use:   "export <year> [end-year]",
	Short: "Export a year range as CSV",
	Long: `Query the store like 'sora query' and write the result as CSV.

Examples:
  sora export 2023 --out sora-2023.csv
  sora export 2021 2023 --out -        # stdout`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExport,
}

var exportOut string

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "sora.csv", "output file, '-' for stdout")
	exportCmd.Flags().StringVarP(&queryFields, "fields", "f", "all",
		"comma-separated composite fields, or 'all'/'none'")
}

func runExport(cmd *cobra.Command, args []string) error {
	tbl, err := runYearQuery(args)
	if err != nil {
		return err
	}

	if exportOut == "-" {
		return query.WriteCSV(os.Stdout, tbl)
	}

	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", exportOut, err)
	}
	if err := query.WriteCSV(f, tbl); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("wrote %d rows to %s\n", len(tbl.Rows), exportOut)
	return nil
}
