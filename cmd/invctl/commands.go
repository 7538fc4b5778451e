package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/stocktake"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

func runForecast(c *cli.Context) error {
	inv := fromContext(c)
	out := c.App.Writer

	if c.Bool("components") {
		cf := inv.Forecast.Components(c.Context, 0, false)
		if c.Bool("json") {
			return printJSON(out, cf)
		}
		tw := table(out)
		fmt.Fprintln(tw, "CATEGORY\tITEM\tCOLOUR\tSTOCK\tDAILY\tDAYS LEFT\tSTATUS")
		var all []domain.ComponentForecast
		for _, group := range [][]domain.ComponentForecast{cf.Saddles, cf.Screws, cf.Trims, cf.Boxes} {
			all = append(all, group...)
		}
		for _, f := range all {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d %s\t%g\t%s\t%s\n",
				f.Category, f.Name, f.Colour, f.CurrentStock, f.Unit, f.DailyUsage, optional(f.DaysRemaining), f.Status)
		}
		return tw.Flush()
	}

	fs := inv.Forecast.Mesh(c.Context)
	if c.Bool("json") {
		return printJSON(out, fs)
	}
	tw := table(out)
	fmt.Fprintln(tw, "MESH\tWIDTH\tCOLOUR\tROLLS\tMETRES\tM/MONTH\tMONTHS LEFT\tSTATUS")
	for _, f := range fs {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%g\t%g\t%s\t%s\n",
			f.MeshName, f.WidthMM, f.Colour, f.CurrentRolls, f.CurrentMetres, f.AvgMonthlyUsage, optional(f.MonthsRemaining), f.Status)
	}
	return tw.Flush()
}

func runReorder(c *cli.Context) error {
	suggestions := fromContext(c).Forecast.Reorder(c.Context)
	if c.Bool("json") {
		return printJSON(c.App.Writer, suggestions)
	}
	if len(suggestions) == 0 {
		fmt.Fprintln(c.App.Writer, "nothing to reorder")
		return nil
	}
	tw := table(c.App.Writer)
	fmt.Fprintln(tw, "MESH\tWIDTH\tCOLOUR\tCURRENT M\tTARGET M\tINCOMING M\tORDER M\tURGENCY")
	for _, s := range suggestions {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%g\t%g\t%g\t%g\t%s\n",
			s.MeshName, s.WidthMM, s.Colour, s.CurrentMetres, s.TargetMetres, s.IncomingMetres, s.NetOrderMetres, s.Urgency)
	}
	return tw.Flush()
}

func runSummary(c *cli.Context) error {
	stats := fromContext(c).Forecast.Summary(c.Context)
	if c.Bool("json") {
		return printJSON(c.App.Writer, stats)
	}
	tw := table(c.App.Writer)
	fmt.Fprintf(tw, "Rolls on hand\t%d\n", stats.TotalRolls)
	fmt.Fprintf(tw, "Metres on hand\t%g\n", stats.TotalMetres)
	fmt.Fprintf(tw, "Products\t%d\n", stats.UniqueProducts)
	fmt.Fprintf(tw, "Used in last %d days\t%gm\n", stats.UsageRecentDays, stats.UsageRecentMetres)
	fmt.Fprintf(tw, "Incoming\t%gm\n", stats.IncomingMetres)
	fmt.Fprintf(tw, "Critical / order now\t%d\n", stats.CriticalItems)
	fmt.Fprintf(tw, "Low\t%d\n", stats.LowStockItems)
	fmt.Fprintf(tw, "Orders analysed\t%d\n", stats.OrdersAnalyzed)
	return tw.Flush()
}

func runSyncOrders(c *cli.Context) error {
	summary, err := fromContext(c).Forecast.OrderUsage(c.Context, c.Int("days"), true)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, summary)
	}
	fmt.Fprintf(c.App.Writer, "synced %d orders over %d days\n", summary.OrderCount, summary.PeriodDays)
	return nil
}

func runYield(c *cli.Context) error {
	weight := c.Float64("weight-kg")
	if weight <= 0 {
		return fmt.Errorf("weight-kg must be positive")
	}
	est := fromContext(c).Yield.Estimate(weight, c.String("coil-type"))
	if c.Bool("json") {
		return printJSON(c.App.Writer, est)
	}
	fmt.Fprintf(c.App.Writer, "%gkg %s coil: %gkg usable, %d %s expected\n",
		est.WeightKg, est.CoilType, est.UsableKg, est.ExpectedOutput, est.OutputUnit)
	return nil
}

func runStocktakeTemplate(c *cli.Context) error {
	var cats []stocktake.Category
	for _, name := range c.StringSlice("category") {
		cat, err := stocktake.ParseCategory(name)
		if err != nil {
			return err
		}
		cats = append(cats, cat)
	}

	f, err := os.Create(c.String("out"))
	if err != nil {
		return err
	}
	if err := stocktake.WriteTemplate(f, fromContext(c).Catalog.Get(), cats...); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", c.String("out"))
	return nil
}

func runStocktakeApply(c *cli.Context) error {
	cat, err := stocktake.ParseCategory(c.String("category"))
	if err != nil {
		return err
	}
	if c.NArg() == 0 {
		return fmt.Errorf("at least one count sheet is required")
	}

	entries, err := stocktake.ImportFiles(c.Context, c.Args().Slice())
	if err != nil {
		return err
	}
	res, err := fromContext(c).Stocktake.Apply(c.Context, cat, entries)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, res)
	}
	fmt.Fprintf(c.App.Writer, "%s: %d items counted, %d replaced, backup %s\n",
		cat.Name(), res.ItemsAdded, res.PreviousItems, res.Backup)
	return nil
}

func runBackupCreate(c *cli.Context) error {
	info, err := fromContext(c).Backups.Create(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "created %s (%d files)\n", info.Name, info.Files)
	return nil
}

func runBackupList(c *cli.Context) error {
	list, err := fromContext(c).Backups.List(c.Context)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, list)
	}
	tw := table(c.App.Writer)
	fmt.Fprintln(tw, "NAME\tFILES\tCREATED")
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", b.Name, b.Files, b.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func runBackupRestore(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("backup name is required")
	}
	files, err := fromContext(c).Backups.Restore(c.Context, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "restored %d collections from %s\n", files, name)
	return nil
}
