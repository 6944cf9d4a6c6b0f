package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/subsidy-tracker/internal/entity"
	"github.com/joseph-ayodele/subsidy-tracker/internal/repository"
)

// Service is a tiny façade over the repository that produces XLSX bytes for
// review exports.
type Service struct {
	subsidies repository.SubsidyRepository
	logger    *slog.Logger
}

func NewService(subsidies repository.SubsidyRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{subsidies: subsidies, logger: logger}
}

// ExportSubsidiesXLSX returns an XLSX workbook (as bytes) of all stored
// subsidies, review-flagged rows included.
func (s *Service) ExportSubsidiesXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	recs, err := s.subsidies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query subsidies: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Subsidies"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"URL",
		"Title",
		"Agency",
		"Region",
		"Sector",
		"Amount",
		"Co-financing Rate",
		"Deadline",
		"Coverage Score",
		"Requires Review",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		values := []any{
			r.URL,
			r.Title,
			r.Agency,
			strings.Join(r.Region, ", "),
			strings.Join(r.Sector, ", "),
			amountRange(r),
			rateString(r),
			deadlineString(r),
			r.CoverageScore,
			r.RequiresReview,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.subsidies.xlsx", "rows", len(recs), "elapsed", time.Since(start))
	return buf.Bytes(), nil
}

func amountRange(r *entity.Subsidy) string {
	parts := make([]string, len(r.Amounts))
	for i, d := range r.Amounts {
		parts[i] = d.String()
	}
	return strings.Join(parts, " - ")
}

func rateString(r *entity.Subsidy) string {
	if r.CoFinancingRate == nil {
		return ""
	}
	return r.CoFinancingRate.String() + "%"
}

func deadlineString(r *entity.Subsidy) string {
	if r.Deadline == nil {
		return ""
	}
	return r.Deadline.Format("2006-01-02")
}
