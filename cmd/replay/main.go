// Command replay runs recorded detector fixtures through the behavior tracker
// and reports the warnings raised against each fixture's expectations.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/danielpatrickdp/interview-controller/internal/behavior"
	"github.com/danielpatrickdp/interview-controller/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "fixture file, or a directory of *.yaml / *.json fixtures")
	thresholdOverride := flag.Duration("threshold", 0, "override the fixture's sustained-label threshold")
	verbose := flag.Bool("v", false, "print every tracker reading")
	jsonOut := flag.Bool("json", false, "output results as JSON")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.yaml [--threshold 3s] [-v] [--json]")
		os.Exit(2)
	}

	paths, err := fixturePaths(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	var reports []fixtureReport
	for _, p := range paths {
		rep, err := runFixture(p, *thresholdOverride)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", p, err)
			failed++
			continue
		}
		if len(rep.Mismatches) > 0 {
			failed++
		}
		reports = append(reports, rep)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			os.Exit(1)
		}
	} else {
		for _, rep := range reports {
			printReport(os.Stdout, rep, *verbose)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// #endregion main

// #region run

type fixtureReport struct {
	Path        string            `json:"path"`
	Description string            `json:"description"`
	Threshold   time.Duration     `json:"threshold_ns"`
	Summary     summaryJSON       `json:"summary"`
	Warnings    []string          `json:"warnings"`
	Mismatches  []replay.Mismatch `json:"mismatches,omitempty"`
	Results     []replay.Result   `json:"-"`
}

type summaryJSON struct {
	Frames       int            `json:"frames"`
	Observations int            `json:"observations"`
	Reports      int            `json:"reports"`
	Labels       map[string]int `json:"labels"`
}

func runFixture(path string, threshold time.Duration) (fixtureReport, error) {
	f, err := replay.LoadFixture(path)
	if err != nil {
		return fixtureReport{}, err
	}
	cfg := f.Config()
	if threshold > 0 {
		cfg.Tracker.Threshold = threshold
	}

	results := replay.Replay(f.SessionID, f.ToFrames(), cfg)
	sum := replay.Summarize(results)

	rep := fixtureReport{
		Path:        path,
		Description: f.Description,
		Threshold:   cfg.Tracker.Threshold,
		Summary: summaryJSON{
			Frames:       sum.TotalFrames,
			Observations: sum.Observations,
			Reports:      sum.Reports,
			Labels:       labelCounts(sum.LabelCounts),
		},
		Results: results,
	}
	for _, w := range sum.Warnings {
		rep.Warnings = append(rep.Warnings, w.Message)
	}
	// an overridden threshold is exploratory; expectations no longer apply
	if threshold <= 0 {
		rep.Mismatches = replay.Check(f, results)
	}
	return rep, nil
}

func labelCounts(m map[behavior.Label]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

// #endregion run

// #region output

func printReport(w io.Writer, rep fixtureReport, verbose bool) {
	status := "PASS"
	if len(rep.Mismatches) > 0 {
		status = "FAIL"
	}
	fmt.Fprintf(w, "=== %s  %s\n", status, rep.Path)
	if rep.Description != "" {
		fmt.Fprintf(w, "    %s\n", rep.Description)
	}
	fmt.Fprintf(w, "    threshold=%s frames=%d observations=%d reports=%d\n",
		rep.Threshold, rep.Summary.Frames, rep.Summary.Observations, rep.Summary.Reports)

	labels := make([]string, 0, len(rep.Summary.Labels))
	for l := range rep.Summary.Labels {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		fmt.Fprintf(w, "    %-15s %d\n", l, rep.Summary.Labels[l])
	}

	if verbose {
		for _, r := range rep.Results {
			for _, rd := range r.Readings {
				mark := ""
				if rd.Report {
					mark = "  <- warning"
				}
				fmt.Fprintf(w, "    [%3d] %s %-8s %-15s %6s%s\n",
					r.Index, r.At.Format("15:04:05.000"), rd.SubjectID, rd.Label, rd.Elapsed, mark)
			}
		}
	}

	for _, msg := range rep.Warnings {
		fmt.Fprintf(w, "    warning: %s\n", msg)
	}
	for _, m := range rep.Mismatches {
		fmt.Fprintf(w, "    mismatch @%dms: expected %q, got %q\n", m.OffsetMS, m.Expected, m.Actual)
	}
}

// #endregion output

// #region helpers

func fixturePaths(p string) ([]string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{p}, nil
	}
	var out []string
	for _, pat := range []string{"*.yaml", "*.yml", "*.json"} {
		m, err := filepath.Glob(filepath.Join(p, pat))
		if err != nil {
			return nil, err
		}
		out = append(out, m...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no fixtures in %s", p)
	}
	sort.Strings(out)
	return out, nil
}

// #endregion helpers
