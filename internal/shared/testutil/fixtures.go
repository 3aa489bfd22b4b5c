package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// RunsCSV is a small export with a header row: two labs, two lots and
// one run that fails to parse its test time.
//
//	P1: 4 runs, 2 invalid, 1 indeterminate. Lab A has D1 and D2, lab B has D3.
//	P2: 1 run in Lab B.
const RunsCSV = `Test Time,Profile,Patient,Result,Status,Lab,Operator,Module,Device,Lot
15-01-2024 10:00:00,P1,x,Detected,Invalid,Lab A,o,m,D1,L1
16-01-2024 11:00:00,P1,x,Not Detected,Valid,Lab A,o,m,D2,L1
05-02-2024 09:30:00,P1,x,Detected,Indeterminate,Lab B,o,m,D3,L2
06-02-2024 09:30:00,P1,x,Not Detected,Invalid,Lab A,o,m,D1,L2
07-02-2024 14:00:00,P2,x,Detected,Valid,Lab B,o,m,D3,L3
not a date,P2,x,Detected,Valid,Lab B,o,m,D3,L3
`

// WriteInputFile writes content to dir/name and returns the path.
func WriteInputFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", path, err)
	}
	return path
}
