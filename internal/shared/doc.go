// Package shared holds helpers used by more than one layer of the
// application. It carries no domain logic.
//
// The testutil subpackage provides a capturing slog handler with log
// assertions and helpers that write input fixture files:
//
//	func TestSomething(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger(t)
//	    dir := t.TempDir()
//	    testutil.WriteInputFile(t, dir, "runs.csv", testutil.RunsCSV)
//	    ...
//	    testutil.AssertLogContains(t, handler, slog.LevelInfo, "Dataset loaded")
//	}
package shared
