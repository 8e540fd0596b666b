package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	domainerrors "fleetpay/contexts/finance-core/payout-service/domain/errors"
	"fleetpay/contexts/finance-core/payout-service/ports"

	"github.com/xuri/excelize/v2"
)

// Generator renders payout statements to local files. Monetary values are
// converted to display scale here and nowhere else.
type Generator struct {
	OutputDir string
	Logger    *slog.Logger
}

func NewGenerator(outputDir string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if outputDir == "" {
		outputDir = "reports"
	}
	return &Generator{
		OutputDir: outputDir,
		Logger:    logger,
	}
}

func (g *Generator) Generate(_ context.Context, summary ports.PayoutSummary, format string) (string, error) {
	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create report output dir: %w", err)
	}

	base := fmt.Sprintf("payout_%s_%dW%02d", summary.CourierID, summary.Year, summary.WeekNumber)
	var path string
	var err error
	switch format {
	case ports.ReportFormatDocument:
		path = filepath.Join(g.OutputDir, base+".xlsx")
		err = g.writeWorkbook(summary, path)
	case ports.ReportFormatTabular:
		path = filepath.Join(g.OutputDir, base+".csv")
		err = g.writeCSV(summary, path)
	default:
		return "", domainerrors.ErrInvalidPayoutInput
	}
	if err != nil {
		return "", err
	}

	g.Logger.Info("payout report written",
		"event", "payout_report_written",
		"module", "finance-core/payout-service",
		"layer", "adapter",
		"courier_id", summary.CourierID,
		"format", format,
		"path", path,
	)
	return path, nil
}

func (g *Generator) writeWorkbook(summary ports.PayoutSummary, path string) error {
	f := excelize.NewFile()
	sheet := "Payout"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create payout sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	currency := summary.TotalEarnings.Currency
	rows := [][]any{
		{"Courier", summary.CourierID},
		{"Period", summary.PeriodStart.Format("2006-01-02") + " - " + summary.PeriodEnd.AddDate(0, 0, -1).Format("2006-01-02")},
		{"ISO week", fmt.Sprintf("%dW%02d", summary.Year, summary.WeekNumber)},
		{"Deliveries", summary.TotalDeliveries},
		{"Distance (km)", summary.TotalDistanceKm},
		{fmt.Sprintf("Total earnings (%s)", currency), summary.TotalEarnings.Units()},
		{fmt.Sprintf("Base earnings (%s)", currency), summary.BaseEarnings.Units()},
		{fmt.Sprintf("Distance earnings (%s)", currency), summary.DistanceEarnings.Units()},
		{fmt.Sprintf("Bonus earnings (%s)", currency), summary.BonusEarnings.Units()},
		{"Peak-hour deliveries", summary.Hours.PeakDeliveries},
		{fmt.Sprintf("Peak-hour earnings (%s)", currency), summary.Hours.PeakEarnings.Units()},
	}
	for i, row := range rows {
		for j, value := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			f.SetCellValue(sheet, cell, value)
		}
	}

	headerRow := len(rows) + 2
	headers := []string{"Date", "Deliveries", "Peak deliveries", "Earnings"}
	for j, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(j+1, headerRow)
		f.SetCellValue(sheet, cell, header)
	}
	for i, day := range summary.ByDay {
		rowIndex := headerRow + 1 + i
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowIndex), day.Date)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowIndex), day.Deliveries)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", rowIndex), day.PeakDeliveries)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", rowIndex), day.Earnings.Units())
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save payout workbook: %w", err)
	}
	return nil
}

func (g *Generator) writeCSV(summary ports.PayoutSummary, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create payout csv: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"delivery_id", "calculated_at", "base", "distance", "peak_bonus", "vehicle_bonus", "total", "currency"}); err != nil {
		return fmt.Errorf("write payout csv header: %w", err)
	}
	for _, calculation := range summary.Calculations {
		record := []string{
			calculation.DeliveryID,
			calculation.CalculatedAt.Format(time.RFC3339),
			formatUnits(calculation.BaseEarning.Units()),
			formatUnits(calculation.DistanceEarning.Units()),
			formatUnits(calculation.PeakHourBonus.Units()),
			formatUnits(calculation.VehicleBonus.Units()),
			formatUnits(calculation.TotalEarning.Units()),
			calculation.TotalEarning.Currency,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write payout csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatUnits(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

var _ ports.ReportGenerator = (*Generator)(nil)
