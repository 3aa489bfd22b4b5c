package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"labpulse/internal/dataprocessing"
	"labpulse/internal/exporter"
	"labpulse/internal/services"
	"labpulse/pkg/contracts/domain"
)

// reportSummary names the JSON summary the report command writes.
const reportSummary exporter.Report = "summary"

// output is one report file. A CSV file holds the first sheet only, an
// XLSX file holds all of them.
type output struct {
	report exporter.Report
	sheets []exporter.Sheet
}

// viewFunc computes the outputs of one view; ok is false for an empty
// selection.
type viewFunc func(cmd *cobra.Command, svc *services.AnalysisService, f domain.Filter) (outs []output, ok bool, err error)

func newViewCmd(o *options, use, short string, view viewFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := o.exportFormat()
			if err != nil {
				return err
			}

			svc, err := o.loadService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			f := o.filter()
			outs, ok, err := view(cmd, svc, f)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), domain.EmptySelectionMessage)
				return nil
			}
			return o.writeOutputs(cmd, outs, f, format)
		},
	}
}

func newProfileCmd(o *options) *cobra.Command {
	return newViewCmd(o, "profile", "Overall and per-lab invalid rates of a profile",
		func(cmd *cobra.Command, svc *services.AnalysisService, f domain.Filter) ([]output, bool, error) {
			res, ok, err := svc.ProfileSummary(cmd.Context(), f)
			if err != nil || !ok {
				return nil, ok, err
			}
			return []output{profileOutput(res.Overall, res.Labs)}, true, nil
		})
}

func newLotsCmd(o *options) *cobra.Command {
	return newViewCmd(o, "lots", "Per-lot rates and the top 20 lots of a profile",
		func(cmd *cobra.Command, svc *services.AnalysisService, f domain.Filter) ([]output, bool, error) {
			res, ok, err := svc.LotSummary(cmd.Context(), f)
			if err != nil || !ok {
				return nil, ok, err
			}
			return []output{lotsOutput(res.Lots, res.TopLots)}, true, nil
		})
}

func newTrendCmd(o *options) *cobra.Command {
	return newViewCmd(o, "trend", "Monthly and weekly trends of the selection",
		func(cmd *cobra.Command, svc *services.AnalysisService, f domain.Filter) ([]output, bool, error) {
			res, ok, err := svc.Trend(cmd.Context(), f)
			if err != nil || !ok {
				return nil, ok, err
			}
			return trendOutputs(res.Monthly, res.Weekly), true, nil
		})
}

func newWeeklyCmd(o *options) *cobra.Command {
	return newViewCmd(o, "weekly", "Weekly rates per lab of the selection",
		func(cmd *cobra.Command, svc *services.AnalysisService, f domain.Filter) ([]output, bool, error) {
			table, ok, err := svc.WeeklyByLab(cmd.Context(), f)
			if err != nil || !ok {
				return nil, ok, err
			}
			return []output{weeklyOutput(table)}, true, nil
		})
}

// newReportCmd writes every view that has data plus a JSON summary.
func newReportCmd(o *options) *cobra.Command {
	return newViewCmd(o, "report", "Every view of the selection and a JSON summary",
		func(cmd *cobra.Command, svc *services.AnalysisService, f domain.Filter) ([]output, bool, error) {
			report, err := svc.Report(cmd.Context(), f)
			if err != nil || report.Empty {
				return nil, false, err
			}

			path := filepath.Join(o.cfg.Analysis.OutputDir, exporter.FileName(reportSummary, f, exporter.FormatJSON))
			if err := dataprocessing.NewSummarizer(o.logger).WriteJSON(cmd.Context(), path, report); err != nil {
				return nil, false, err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)

			var outs []output
			if report.Overall != nil {
				outs = append(outs, profileOutput(report.Overall, report.Labs))
			}
			if len(report.Lots) > 0 {
				outs = append(outs, lotsOutput(report.Lots, report.TopLots))
			}
			if len(report.Monthly) > 0 {
				outs = append(outs, trendOutputs(report.Monthly, report.Weekly)...)
			}
			if len(report.WeeklyByLab) > 0 {
				outs = append(outs, weeklyOutput(report.WeeklyByLab))
			}
			return outs, true, nil
		})
}

func newProfilesCmd(o *options) *cobra.Command {
	return newListCmd(o, "profiles", "List the profile ids of the dataset",
		(*services.AnalysisService).Profiles)
}

func newLabsCmd(o *options) *cobra.Command {
	return newListCmd(o, "labs", "List the lab names of the dataset",
		(*services.AnalysisService).Labs)
}

func newListCmd(o *options, use, short string, list func(*services.AnalysisService, context.Context) ([]string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := o.loadService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			values, err := list(svc, cmd.Context())
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}

func profileOutput(overall *domain.ProfileOverall, labs domain.LabSummaryTable) output {
	return output{report: exporter.ReportProfile, sheets: []exporter.Sheet{
		{Name: "Lab Summary", Table: labs},
		{Name: "Overall", Table: overall},
	}}
}

func lotsOutput(lots, top domain.LotSummaryTable) output {
	return output{report: exporter.ReportLots, sheets: []exporter.Sheet{
		{Name: "Lots", Table: lots},
		{Name: "Top 20 Lots", Table: top},
	}}
}

func trendOutputs(monthly domain.MonthlyTrendTable, weekly domain.WeeklyTrendTable) []output {
	return []output{
		{report: exporter.ReportMonthlyTrend, sheets: []exporter.Sheet{{Name: "Monthly Trend", Table: monthly}}},
		{report: exporter.ReportWeeklyTrend, sheets: []exporter.Sheet{{Name: "Weekly Trend", Table: weekly}}},
	}
}

func weeklyOutput(table domain.WeeklyLabTable) output {
	return output{report: exporter.ReportWeeklyByLab, sheets: []exporter.Sheet{{Name: "Weekly Analysis", Table: table}}}
}

// writeOutputs encodes each output and prints the written paths.
func (o *options) writeOutputs(cmd *cobra.Command, outs []output, f domain.Filter, format exporter.Format) error {
	writer := exporter.NewFileWriter(o.cfg.Analysis.OutputDir, o.logger)

	for _, out := range outs {
		sheets := out.sheets
		if format == exporter.FormatCSV {
			sheets = sheets[:1]
		}
		data, err := exporter.Encode(format, sheets...)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", out.report, err)
		}
		path, err := writer.Write(exporter.FileName(out.report, f, format), data)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}
