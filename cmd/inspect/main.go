// Command inspect prints archived interview reports, evidence and audit rows.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/interview-controller/internal/archive"
	"github.com/danielpatrickdp/interview-controller/internal/logging"
)

// #region main

func main() {
	os.Exit(run())
}

func run() int {
	dbPath := flag.String("db", "", "path to the interview archive database")
	last := flag.Int("last", 20, "list N most recent reports")
	sessionID := flag.String("session", "", "show one session in detail")
	format := flag.String("format", "table", "output format: table, json or yaml")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db interviews.db [--last N] [--session id] [--format table|json|yaml]")
		return 2
	}

	ctx := context.Background()
	store, err := archive.OpenReadOnly(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 1
	}
	defer store.Close()

	if *sessionID != "" {
		err = runDetailMode(ctx, os.Stdout, store, *sessionID, *format)
	} else {
		err = runListMode(ctx, os.Stdout, store, *last, *format)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// #endregion main

// #region list-mode

func runListMode(ctx context.Context, w io.Writer, store *archive.Store, last int, format string) error {
	rows, err := store.ListReports(ctx, last)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "no reports found")
		return nil
	}
	if format != "table" {
		return encode(w, format, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tCANDIDATE\tVERDICT\tSCORE\tINTEGRITY\tENDED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%d\t%s\n",
			r.SessionID, r.CandidateName, r.Verdict, r.FinalScore, r.IntegrityScore,
			r.EndedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// #endregion list-mode

// #region detail-mode

type detail struct {
	Report   archive.ReportRecord `json:"report" yaml:"report"`
	Evidence []archive.Evidence   `json:"evidence" yaml:"evidence"`
	Audit    []logging.AuditEntry `json:"audit" yaml:"audit"`
}

func runDetailMode(ctx context.Context, w io.Writer, store *archive.Store, sessionID, format string) error {
	rec, err := store.GetReport(ctx, sessionID)
	if err != nil {
		return err
	}
	ev, err := store.ListEvidence(ctx, sessionID)
	if err != nil {
		return err
	}
	audit, err := logging.NewAuditLog(store.DB()).Entries(ctx, sessionID)
	if err != nil {
		return err
	}
	d := detail{Report: rec, Evidence: ev, Audit: audit}
	if format != "table" {
		return encode(w, format, d)
	}
	printDetail(w, d)
	return nil
}

func printDetail(w io.Writer, d detail) {
	r := d.Report
	fmt.Fprintf(w, "Session   %s (join %s)\n", r.SessionID, r.JoinCode)
	fmt.Fprintf(w, "Candidate %s, %s, %d yrs\n", r.Candidate.Name, r.Candidate.Role, r.Candidate.ExperienceYears)
	fmt.Fprintf(w, "Verdict   %s  score %.1f  integrity %d", r.Report.Verdict, r.Report.FinalScore, r.Report.IntegrityScore)
	if r.Report.IntegrityBreach {
		fmt.Fprint(w, "  [integrity breach]")
	}
	if r.Report.Degraded {
		fmt.Fprint(w, "  [degraded]")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "\n%s\n", r.Report.Summary)

	if len(r.MonitorWarnings)+len(r.ExternalWarnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, m := range r.MonitorWarnings {
			fmt.Fprintf(w, "  monitor   %s\n", m)
		}
		for _, x := range r.ExternalWarnings {
			fmt.Fprintf(w, "  %-9s %s\n", x.Type, x.Message)
		}
	}

	if len(d.Evidence) > 0 {
		fmt.Fprintln(w, "\nEvidence:")
		for _, e := range d.Evidence {
			fmt.Fprintf(w, "  %s  %s\n", e.CapturedAt.Format("15:04:05"), e.Path)
		}
	}

	if len(d.Audit) > 0 {
		fmt.Fprintln(w, "\nAudit:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, a := range d.Audit {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", a.CreatedAt.Format("15:04:05"), a.Event, a.Reason, a.DetailJSON)
		}
		tw.Flush()
	}
}

// #endregion detail-mode

// #region helpers

func encode(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// #endregion helpers
