package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sora/query"
	"github.com/rustyeddy/sora/rates"
	"github.com/rustyeddy/sora/store"
)

var queryCmd = &cobra.Command{
	Use:   "query <year> [end-year]",
	Short: "Query stored SORA records by year range",
	Long: `Print the stored records whose dates fall within the inclusive year
range, ascending by date. The date, sora and sora_index columns are
always included; --fields selects the compounded-rate columns.

Examples:
  sora query 2023
  sora query 2021 2023 --fields comp_sora_1m,comp_sora_6m
  sora query 2023 --fields none`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runQuery,
}

var queryFields string

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVarP(&queryFields, "fields", "f", "all",
		"comma-separated composite fields, or 'all'/'none'")
}

func runQuery(cmd *cobra.Command, args []string) error {
	tbl, err := runYearQuery(args)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(tbl.Columns, "\t"))
	for _, row := range tbl.Rows {
		cells := []string{rates.FormatDate(row.Date), f4(row.Sora), f4(row.SoraIndex)}
		for _, c := range []*float64{row.Comp1M, row.Comp3M, row.Comp6M} {
			if c != nil {
				cells = append(cells, f4(*c))
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if sum, ok := query.Summarize(tbl); ok {
		fmt.Printf("\nlatest %s  sora %.4f (%+.4f)  index %.4f (%+.4f)\n",
			rates.FormatDate(sum.LatestDate),
			sum.Sora, sum.SoraDelta, sum.SoraIndex, sum.SoraIndexDelta)
	}
	return nil
}

// runYearQuery parses year args and the --fields flag, then queries.
func runYearQuery(args []string) (query.Table, error) {
	y1, err := strconv.Atoi(args[0])
	if err != nil {
		return query.Table{}, fmt.Errorf("year %q: %w", args[0], err)
	}
	y2 := y1
	if len(args) == 2 {
		if y2, err = strconv.Atoi(args[1]); err != nil {
			return query.Table{}, fmt.Errorf("year %q: %w", args[1], err)
		}
	}
	if y2 < y1 {
		return query.Table{}, fmt.Errorf("end year %d before start year %d", y2, y1)
	}

	fields, err := parseFields(queryFields)
	if err != nil {
		return query.Table{}, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return query.Table{}, err
	}

	st, err := store.New(cfg.DB.Path)
	if err != nil {
		return query.Table{}, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	eng := &query.Engine{Store: st}
	return eng.Years(y1, y2, fields)
}

func parseFields(s string) ([]string, error) {
	switch strings.TrimSpace(s) {
	case "", "none":
		return nil, nil
	case "all":
		return rates.CompositeFields, nil
	}

	var fields []string
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func f4(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}
