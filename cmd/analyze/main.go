// analyze turns a JSONL telemetry export into a per-condition summary:
// a plain-text report on stdout and optionally an .xlsx workbook.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vinvit-2/exp-ai-account/internal/analysis"
)

func main() {
	input := flag.String("input", "events.jsonl", "JSONL event export to analyze")
	output := flag.String("output", "", "optional .xlsx workbook to write")
	flag.Parse()

	file, err := os.Open(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", *input, err)
		os.Exit(1)
	}
	defer file.Close()

	events, err := analysis.ReadEvents(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read events: %v\n", err)
		os.Exit(1)
	}

	summary := analysis.Summarize(events)
	fmt.Print(analysis.Describe(summary))

	if *output != "" {
		if err := analysis.WriteWorkbook(*output, summary); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write workbook: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *output)
	}
}
