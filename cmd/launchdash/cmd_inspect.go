package main

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"launchdash/internal/launch"
	"launchdash/internal/source"
)

var inspectFlags struct {
	json     bool
	markdown bool
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load the dataset and print a per-site outcome summary",
	Long: `Loads the launch dataset with the same settings as serve and prints the record
count, the payload bounds used by the range slider and a success/failure
tally per launch site.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectFlags.json, "json", false, "Print the summary as JSON")
	inspectCmd.Flags().BoolVar(&inspectFlags.markdown, "markdown", false, "Render the site table as Markdown")
}

type inspectReport struct {
	Records  int                  `json:"records"`
	Payload  launch.PayloadBounds `json:"payload_mass_kg"`
	Boosters []string             `json:"booster_categories"`
	Sites    []launch.SiteSummary `json:"sites"`
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ds, err := source.Load(cmd.Context(), cfg.Source)
	if err != nil {
		return err
	}
	report := inspectReport{
		Records:  ds.Len(),
		Payload:  ds.Bounds(),
		Boosters: ds.BoosterCategories(),
		Sites:    ds.Summaries(),
	}

	out := cmd.OutOrStdout()
	if inspectFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "Records:  %d\n", report.Records)
	fmt.Fprintf(out, "Payload:  %g - %g kg\n", report.Payload.Min, report.Payload.Max)
	fmt.Fprintf(out, "Boosters: %d\n\n", len(report.Boosters))
	tw := siteTable(report.Sites)
	if inspectFlags.markdown {
		fmt.Fprintln(out, tw.RenderMarkdown())
		return nil
	}
	fmt.Fprintln(out, tw.Render())
	return nil
}

func siteTable(sites []launch.SiteSummary) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Site", "Success", "Failure", "Rate"})
	var successes, failures int
	for _, s := range sites {
		tw.AppendRow(table.Row{s.Site, s.Successes, s.Failures, successRate(s.Successes, s.Failures)})
		successes += s.Successes
		failures += s.Failures
	}
	tw.AppendFooter(table.Row{"Total", successes, failures, successRate(successes, failures)})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	return tw
}

func successRate(successes, failures int) string {
	total := successes + failures
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(successes)/float64(total)*100)
}
