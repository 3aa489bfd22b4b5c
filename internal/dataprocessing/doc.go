// Package dataprocessing turns instrument test-run exports into a dataset and
// computes the analysis views over it.
//
// # Components
//
// 1. Parser: reads CSV and XLSX exports into positional raw records
// 2. Builder: parses timestamps, derives month and week keys, builds a Dataset
// 3. Aggregations: ProfileSummary, LotSummary, TrendAnalysis, WeeklyByLab
// 4. ResultCache: memoizes aggregation results per dataset version
//
// # Usage
//
//	parser := dataprocessing.NewParser(logger, dataprocessing.DefaultParserOptions())
//	sets, report, err := parser.ParseFiles(ctx, paths)
//	if err != nil {
//	    return err
//	}
//	ds := dataprocessing.NewBuilder(logger).Build(sets...)
//	overall, labs, ok := dataprocessing.ProfileSummary(ds, domain.NewFilter("PROFILE-A", ""))
//
// # Data Flow
//
//	files → Parser → RawRecords → Builder → Dataset → filter → views
//
// # Empty selections
//
// Aggregations never fail. A selection that matches no record returns nil
// tables and ok == false.
package dataprocessing
