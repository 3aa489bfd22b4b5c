// Command labpulse analyzes diagnostic-test exports and writes the report
// tables as CSV or XLSX files.
//
//	labpulse profile --input data/input --profile P1 --out reports
//	labpulse trend --file a.csv --file b.xlsx --profile P1 --lab "Lab A"
//	labpulse report --profile P1 --format xlsx
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
