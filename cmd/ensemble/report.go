package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/ensembleai/ensemble/pkg/runner"
)

func printReport(report *runner.Report) {
	fmt.Printf("run %s finished: %s after %d rounds, %d messages\n\n",
		report.RunID, report.Outcome, report.Rounds, len(report.History))

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TS\tROLE\tACTION\tCONTENT")
	for _, msg := range report.History {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", msg.Timestamp, msg.Role, msg.CauseBy, oneline(msg.Content))
	}
	w.Flush()

	names := make([]string, 0, len(report.Roles))
	for name := range report.Roles {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println()
	for _, name := range names {
		status := report.Roles[name]
		if status.Err != nil {
			fmt.Printf("role %s: %s (%v)\n", name, status.State, status.Err)
		} else {
			fmt.Printf("role %s: %s\n", name, status.State)
		}
	}

	if final := report.Final(); final != "" {
		fmt.Printf("\n%s\n", final)
	}
}

func oneline(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}
