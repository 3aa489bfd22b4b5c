// Package exporter serializes analysis tables.
//
// Every table exposes its headers and typed rows; the exporter owns the text
// form of each cell. Rates keep the report style of 66.67, 100.0 and 0.0, and
// counts are plain integers.
//
// Example usage:
//
//	data, err := exporter.ToCSV(labs)
//
//	w := exporter.NewFileWriter("reports", logger)
//	name := exporter.FileName(exporter.ReportLots, filter, exporter.FormatCSV)
//	path, err := w.WriteTable(name, lots, exporter.FormatCSV)
//
//	book, err := exporter.ToXLSX(
//	    exporter.Sheet{Name: "Monthly", Table: monthly},
//	    exporter.Sheet{Name: "Weekly", Table: weekly},
//	)
package exporter
