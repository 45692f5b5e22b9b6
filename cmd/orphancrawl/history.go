package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/orphancrawl/internal/config"
	"github.com/nao1215/orphancrawl/internal/crawler"
	"github.com/nao1215/orphancrawl/internal/database"
	"github.com/nao1215/orphancrawl/internal/report"
	"github.com/spf13/cobra"
)

// History flags.
const (
	flagSites = "sites"
	flagDiff  = "diff"
	flagShow  = "show"
	flagJSON  = "json"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site-url]",
		Short: "Show archived orphan runs",
		Long: `History reads the report archive written by 'orphancrawl orphans'.

Without flags it lists the archived runs, newest first. --diff compares the
orphans of the two latest runs of a site: new orphans appeared since the
previous run, resolved ones are linked or gone.

Examples:
  # List every archived run
  orphancrawl history

  # List the sites in the archive
  orphancrawl history --sites

  # What changed since the previous run
  orphancrawl history --diff http://www.example.com

  # Print an archived report as Markdown
  orphancrawl history --show 3f2a... -f markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP(flagSites, "L", false,
		"List the sites in the archive")
	cmd.Flags().Bool(flagDiff, false,
		"Compare the two latest runs of the site")
	cmd.Flags().String(flagShow, "",
		"Print the archived report with this run ID")
	cmd.Flags().BoolP(flagJSON, "j", false,
		"Print lists and diffs as JSON")
	cmd.Flags().StringP(flagFormat, "f", config.DefaultReportFormat,
		"Report format for --show")
	cmd.Flags().String(flagDBDir, config.XDGDataDir(),
		"Directory of the report archive")

	return cmd
}

// siteRoot turns a site argument into the root stored in the archive.
func siteRoot(site string) (string, error) {
	if site == "" {
		return "", nil
	}
	u, err := crawler.ParseSiteURL(site)
	if err != nil {
		return "", fmt.Errorf("invalid site %q: %w", site, err)
	}
	return u.Scheme + "://" + u.Host, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	listSites, err := f.GetBool(flagSites)
	if err != nil {
		return err
	}
	diff, err := f.GetBool(flagDiff)
	if err != nil {
		return err
	}
	show, err := f.GetString(flagShow)
	if err != nil {
		return err
	}
	jsonOutput, err := f.GetBool(flagJSON)
	if err != nil {
		return err
	}
	formatName, err := f.GetString(flagFormat)
	if err != nil {
		return err
	}
	dbDir, err := f.GetString(flagDBDir)
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	site := ""
	if len(args) > 0 {
		site, err = siteRoot(args[0])
		if err != nil {
			return err
		}
	}
	if diff && site == "" {
		return errors.New("--diff needs a site URL")
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.Options{})
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			return fmt.Errorf("no archive yet: run 'orphancrawl orphans' first (%w)", err)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case listSites:
		return listArchivedSites(ctx, out, db, jsonOutput)
	case show != "":
		return showRun(ctx, out, db, show, format)
	case diff:
		return diffRuns(ctx, out, db, site, jsonOutput)
	default:
		return listRuns(ctx, out, db, site, jsonOutput)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// listArchivedSites prints the distinct sites of the archive.
func listArchivedSites(ctx context.Context, w io.Writer, db *database.ReportDB, jsonOutput bool) error {
	sites, err := db.ListSites(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		if sites == nil {
			sites = []string{}
		}
		return writeJSON(w, sites)
	}

	if len(sites) == 0 {
		fmt.Fprintln(w, "No archived runs found.")
		fmt.Fprintln(w, "\nUse 'orphancrawl orphans <site>' to create one.")
		return nil
	}
	fmt.Fprintf(w, "Archived sites (%d):\n\n", len(sites))
	for _, s := range sites {
		fmt.Fprintf(w, "  %s\n", s)
	}
	return nil
}

// listRuns prints the archived runs, newest first.
func listRuns(ctx context.Context, w io.Writer, db *database.ReportDB, site string, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, site)
	if err != nil {
		return err
	}
	if jsonOutput {
		if runs == nil {
			runs = []database.RunSummary{}
		}
		return writeJSON(w, runs)
	}

	if len(runs) == 0 {
		if site != "" {
			fmt.Fprintf(w, "No archived runs found for %s\n", site)
		} else {
			fmt.Fprintln(w, "No archived runs found.")
		}
		return nil
	}

	fmt.Fprintf(w, "Archived runs (%d):\n\n", len(runs))
	fmt.Fprintf(w, "  %-36s  %-19s  %7s  %7s  %s\n", "ID", "Date", "Orphans", "Files", "Site")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 90))
	for _, r := range runs {
		s := r.Site
		if r.Partial {
			s += " (partial)"
		}
		fmt.Fprintf(w, "  %-36s  %-19s  %7d  %7d  %s\n",
			r.ID,
			r.GeneratedAt.Local().Format("2006-01-02 15:04:05"),
			r.Orphans,
			r.ServerFiles,
			s,
		)
	}
	fmt.Fprintln(w, "\nUse 'orphancrawl history --diff <site>' to compare the latest two runs.")
	return nil
}

// showRun writes an archived report in format.
func showRun(ctx context.Context, w io.Writer, db *database.ReportDB, id string, format report.Format) error {
	rep, err := db.GetReport(ctx, id)
	if err != nil {
		return err
	}
	writer, err := report.NewWriter(format, w)
	if err != nil {
		return err
	}
	_, err = writer.WriteOrphans(rep)
	return err
}

// diffRuns prints the orphans that appeared or went away between the two
// latest runs of site.
func diffRuns(ctx context.Context, w io.Writer, db *database.ReportDB, site string, jsonOutput bool) error {
	d, err := db.DiffLatest(ctx, site)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(w, d)
	}

	const layout = "2006-01-02 15:04:05"
	fmt.Fprintf(w, "Orphan changes for %s\n\n", site)
	fmt.Fprintf(w, "  Previous: %s  %s  (%d orphans)\n", d.Previous.ID, d.Previous.GeneratedAt.Local().Format(layout), d.Previous.Orphans)
	fmt.Fprintf(w, "  Current:  %s  %s  (%d orphans)\n\n", d.Current.ID, d.Current.GeneratedAt.Local().Format(layout), d.Current.Orphans)

	if d.Unchanged() {
		fmt.Fprintln(w, "No changes.")
		return nil
	}
	writeList(w, "New orphans", "+", d.New)
	writeList(w, "Resolved", "-", d.Resolved)
	if d.Current.Partial || d.Previous.Partial {
		fmt.Fprintln(w, "Note: at least one run was partial; some changes may come from the crawl cap.")
	}
	return nil
}

func writeList(w io.Writer, title, mark string, items []string) {
	fmt.Fprintf(w, "%s (%d):\n", title, len(items))
	for _, p := range items {
		fmt.Fprintf(w, "  %s %s\n", mark, p)
	}
	fmt.Fprintln(w)
}
