package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hublift/hublift/internal/importer"
	"github.com/hublift/hublift/internal/ui"
)

// reportResult renders the run outcome in the selected output mode.
// Failed items are part of a normal outcome; the returned error covers
// rendering faults only.
func reportResult(w io.Writer, repoPath string, errs []importer.Error, start time.Time) error {
	if jsonOutput {
		return printJSONReport(w, errs)
	}
	printReport(w, repoPath, errs, start)
	return nil
}

// printReport renders the run outcome for humans: a summary line plus
// one line per failed item.
func printReport(w io.Writer, repoPath string, errs []importer.Error, start time.Time) {
	if len(errs) == 0 {
		if !quietFlag {
			fmt.Fprintf(w, "%s Import of %s completed (started %s)\n",
				ui.RenderPass(ui.IconPass), repoPath, humanize.Time(start))
		}
		return
	}

	fmt.Fprintf(w, "%s Import of %s finished with %d failed items (started %s)\n",
		ui.RenderWarn(ui.IconWarn), repoPath, len(errs), humanize.Time(start))
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.RenderHeader("Failed items:"))
	for _, e := range errs {
		line := fmt.Sprintf("%s %s: %s", ui.RenderFail(ui.IconFail), e.Kind, e.Message)
		if e.URL != "" {
			line += " " + ui.RenderMuted("("+e.URL+")")
		}
		fmt.Fprintln(w, line)
	}
}

// printJSONReport emits the error ledger as a JSON array, empty when
// everything imported.
func printJSONReport(w io.Writer, errs []importer.Error) error {
	if errs == nil {
		errs = []importer.Error{}
	}
	out, err := json.MarshalIndent(errs, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
