package http

import (
	"context"

	"labpulse/internal/dataprocessing"
	"labpulse/internal/services"
	"labpulse/pkg/contracts/domain"
)

// AnalysisServiceInterface defines the analysis operations the handlers use
type AnalysisServiceInterface interface {
	Status() services.DatasetStatus
	Profiles(ctx context.Context) ([]string, error)
	Labs(ctx context.Context) ([]string, error)
	ProfileSummary(ctx context.Context, f domain.Filter) (*services.ProfileSummaryResult, bool, error)
	LotSummary(ctx context.Context, f domain.Filter) (*services.LotSummaryResult, bool, error)
	Trend(ctx context.Context, f domain.Filter) (*services.TrendResult, bool, error)
	WeeklyByLab(ctx context.Context, f domain.Filter) (domain.WeeklyLabTable, bool, error)
	Report(ctx context.Context, f domain.Filter) (*dataprocessing.Report, error)
	TryReload(ctx context.Context) (services.DatasetStatus, error)
}
