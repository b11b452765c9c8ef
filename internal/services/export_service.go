package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/vocabmaster/quiz-service/internal/models"
)

// ExportService renders a user's statistics as an XLSX workbook for
// download: one sheet with the full attempt history, one with the
// per-category breakdown.
type ExportService interface {
	ExportStats(ctx context.Context, email string) ([]byte, error)
}

type exportService struct {
	stats  StatsService
	logger *slog.Logger
}

func NewExportService(stats StatsService, logger *slog.Logger) ExportService {
	return &exportService{stats: stats, logger: logger}
}

const (
	historySheet    = "History"
	categoriesSheet = "Categories"
)

func (s *exportService) ExportStats(ctx context.Context, email string) ([]byte, error) {
	stats, err := s.stats.GetStats(ctx, email)
	if err != nil {
		return nil, err
	}
	categories, err := s.stats.GetCategoryStats(ctx, email)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close export workbook", "error", err)
		}
	}()

	if err := writeHistorySheet(f, stats); err != nil {
		return nil, fmt.Errorf("failed to write history sheet: %w", err)
	}
	if err := writeCategoriesSheet(f, stats, categories); err != nil {
		return nil, fmt.Errorf("failed to write categories sheet: %w", err)
	}

	// Drop the default sheet so the workbook opens on History.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	s.logger.Info("Exported stats workbook",
		"email", email,
		"attempts", stats.TotalAttempts)

	return buf.Bytes(), nil
}

func writeHistorySheet(f *excelize.File, stats *models.UserStats) error {
	if _, err := f.NewSheet(historySheet); err != nil {
		return err
	}

	header := []interface{}{"Timestamp", "Category", "Target Word", "Correct"}
	if err := f.SetSheetRow(historySheet, "A1", &header); err != nil {
		return err
	}

	for i, record := range stats.History {
		row := []interface{}{
			record.Timestamp.Format("2006-01-02 15:04:05"),
			string(record.Category),
			record.TargetWord,
			record.IsCorrect,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeCategoriesSheet(f *excelize.File, stats *models.UserStats, categories []models.CategoryStats) error {
	if _, err := f.NewSheet(categoriesSheet); err != nil {
		return err
	}

	header := []interface{}{"Category", "Attempts", "Accuracy %"}
	if err := f.SetSheetRow(categoriesSheet, "A1", &header); err != nil {
		return err
	}

	for i, cs := range categories {
		row := []interface{}{string(cs.Category), cs.Attempts, cs.Accuracy}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(categoriesSheet, cell, &row); err != nil {
			return err
		}
	}

	summaryRow := len(categories) + 3
	cell, err := excelize.CoordinatesToCellName(1, summaryRow)
	if err != nil {
		return err
	}
	summary := []interface{}{"Overall", stats.TotalAttempts, stats.Accuracy()}
	return f.SetSheetRow(categoriesSheet, cell, &summary)
}
