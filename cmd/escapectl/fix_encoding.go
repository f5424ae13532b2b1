package main

import (
	"context"
	"fmt"
	"io"

	"github.com/escape-finder/api-go/textfix"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	fixDryRun bool
	fixBatch  int
	fixTables []string
)

var fixEncodingCmd = &cobra.Command{
	Use:   "fix-encoding",
	Short: "Repair double-encoded UTF-8 in imported text columns",
	Long: `Scans the imported text columns of escape_rooms, reviews and
pending_listings for mojibake such as "CafÃ©" or "donâ€™t" and rewrites the
rows it can repair.

Use --dry-run to count affected rows without writing.`,
	RunE: runFixEncoding,
}

func init() {
	fixEncodingCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "Report changes without writing them")
	fixEncodingCmd.Flags().IntVar(&fixBatch, "batch", 500, "Rows read per query")
	fixEncodingCmd.Flags().StringSliceVar(&fixTables, "table", nil, "Limit the run to these tables")
}

func runFixEncoding(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	targets, err := selectTargets(textfix.Targets, fixTables)
	if err != nil {
		return err
	}
	reports, err := repairAll(cmd.Context(), db, targets, fixBatch, fixDryRun)
	printReports(cmd.OutOrStdout(), reports, fixDryRun)
	return err
}

func repairAll(ctx context.Context, db *gorm.DB, targets []textfix.Target, batch int, dryRun bool) ([]textfix.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	reports := make([]textfix.Report, 0, len(targets))
	for _, t := range targets {
		logger.Info("scanning table", zap.String("table", t.Table), zap.Bool("dry_run", dryRun))
		rep, err := textfix.Repair(ctx, db, t, batch, dryRun, logger)
		reports = append(reports, rep)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// selectTargets keeps the targets named in tables, or all of them when tables
// is empty.
func selectTargets(all []textfix.Target, tables []string) ([]textfix.Target, error) {
	if len(tables) == 0 {
		return all, nil
	}
	byName := make(map[string]textfix.Target, len(all))
	for _, t := range all {
		byName[t.Table] = t
	}
	out := make([]textfix.Target, 0, len(tables))
	for _, name := range tables {
		t, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown table %q", name)
		}
		out = append(out, t)
	}
	return out, nil
}

func printReports(w io.Writer, reports []textfix.Report, dryRun bool) {
	verb := "repaired"
	if dryRun {
		verb = "would repair"
	}
	for _, r := range reports {
		fmt.Fprintf(w, "%-18s scanned %6d  %s %d\n", r.Table, r.Scanned, verb, r.Changed)
	}
}
