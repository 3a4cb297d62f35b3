package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
	"github.com/rovshanmuradov/solstrike-client/internal/storage/models"
)

// ErrNothingToExport is returned when no journaled transaction passes the filters.
var ErrNothingToExport = errors.New("no transactions match the export criteria")

// Format represents the export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts csv and json.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// Options configures the export behavior
type Options struct {
	Format      Format
	StartTime   time.Time
	EndTime     time.Time
	Instruction string // only this instruction kind
	OnlySuccess bool   // skip transactions that landed with an error
	OutputDir   string
}

// Exporter writes journaled transactions to disk.
type Exporter struct {
	logger *zap.Logger
}

func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Export writes the filtered transactions oldest first and returns the file path.
func (e *Exporter) Export(txs []*models.Transaction, options Options) (string, error) {
	filtered := e.filter(txs, options)
	if len(filtered) == 0 {
		return "", ErrNothingToExport
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(options.OutputDir, filename(options))

	var err error
	switch options.Format {
	case FormatCSV:
		err = writeCSV(filtered, outputPath)
	case FormatJSON:
		err = writeJSON(outputPath, struct {
			ExportTime time.Time             `json:"export_time"`
			Count      int                   `json:"count"`
			Summary    Summary               `json:"summary"`
			Rows       []*models.Transaction `json:"transactions"`
		}{
			ExportTime: time.Now().UTC(),
			Count:      len(filtered),
			Summary:    Summarize(filtered),
			Rows:       filtered,
		})
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("Transactions exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))
	return outputPath, nil
}

func (e *Exporter) filter(txs []*models.Transaction, options Options) []*models.Transaction {
	var out []*models.Transaction
	for _, tx := range txs {
		if !options.StartTime.IsZero() && tx.CreatedAt.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && !tx.CreatedAt.Before(options.EndTime) {
			continue
		}
		if options.Instruction != "" && tx.Instruction != options.Instruction {
			continue
		}
		if options.OnlySuccess && !succeeded(tx) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func succeeded(tx *models.Transaction) bool {
	return tx.ErrorMessage == "" && tx.Status != "failed"
}

func filename(options Options) string {
	prefix := "transactions_all"
	if options.Instruction != "" {
		prefix = "transactions_" + options.Instruction
	}
	return fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("20060102_150405"), options.Format)
}

// CSVHeaders returns the column order of the CSV export.
func CSVHeaders() []string {
	return []string{"time", "signature", "authority", "instruction", "status", "slot", "amount", "error"}
}

func csvRow(tx *models.Transaction) []string {
	return []string{
		tx.CreatedAt.UTC().Format(time.RFC3339),
		tx.Signature,
		tx.Authority,
		tx.Instruction,
		tx.Status,
		strconv.FormatUint(tx.Slot, 10),
		strconv.FormatUint(tx.Amount, 10),
		tx.ErrorMessage,
	}
}

func writeCSV(txs []*models.Transaction, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, tx := range txs {
		if err := writer.Write(csvRow(tx)); err != nil {
			return fmt.Errorf("failed to write transaction: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(outputPath string, v interface{}) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// Summary aggregates an exported range.
type Summary struct {
	Total         int            `json:"total"`
	Succeeded     int            `json:"succeeded"`
	Failed        int            `json:"failed"`
	ByInstruction map[string]int `json:"by_instruction"`
	// Lamports paid into the treasury by successful buy_chip_with_sol calls.
	LamportsSpent uint64 `json:"lamports_spent"`
	// Chips requested by successful reserve_chips calls.
	ChipsReserved uint64    `json:"chips_reserved"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
}

// Summarize expects txs oldest first.
func Summarize(txs []*models.Transaction) Summary {
	s := Summary{Total: len(txs), ByInstruction: make(map[string]int)}
	if len(txs) == 0 {
		return s
	}
	s.StartDate = txs[0].CreatedAt
	s.EndDate = txs[len(txs)-1].CreatedAt

	for _, tx := range txs {
		s.ByInstruction[tx.Instruction]++
		if !succeeded(tx) {
			s.Failed++
			continue
		}
		s.Succeeded++
		switch tx.Instruction {
		case solstrike.InstructionKindBuyChipWithSol.String():
			s.LamportsSpent += tx.Amount
		case solstrike.InstructionKindReserveChips.String():
			s.ChipsReserved += tx.Amount
		}
	}
	return s
}

// DailyReport is one UTC day of journal activity.
type DailyReport struct {
	Date            time.Time             `json:"date"`
	Summary         Summary               `json:"summary"`
	HourlyBreakdown []HourlyStats         `json:"hourly_breakdown"`
	Transactions    []*models.Transaction `json:"transactions"`
}

type HourlyStats struct {
	Hour      int `json:"hour"`
	Count     int `json:"count"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ExportDailyReport writes daily_report_YYYYMMDD.json for the UTC day of
// date. It returns an empty path when the day has no transactions.
func (e *Exporter) ExportDailyReport(txs []*models.Transaction, date time.Time, outputDir string) (string, error) {
	date = date.UTC()
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	filtered := e.filter(txs, Options{StartTime: startOfDay, EndTime: startOfDay.Add(24 * time.Hour)})
	if len(filtered) == 0 {
		e.logger.Info("No transactions for daily report", zap.Time("date", startOfDay))
		return "", nil
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(outputDir, fmt.Sprintf("daily_report_%s.json", startOfDay.Format("20060102")))
	report := DailyReport{
		Date:            startOfDay,
		Summary:         Summarize(filtered),
		HourlyBreakdown: hourlyBreakdown(filtered),
		Transactions:    filtered,
	}
	if err := writeJSON(outputPath, report); err != nil {
		return "", err
	}

	e.logger.Info("Daily report exported",
		zap.String("file", outputPath),
		zap.Time("date", startOfDay),
		zap.Int("transactions", len(filtered)))
	return outputPath, nil
}

func hourlyBreakdown(txs []*models.Transaction) []HourlyStats {
	var hours [24]*HourlyStats
	for _, tx := range txs {
		h := tx.CreatedAt.UTC().Hour()
		if hours[h] == nil {
			hours[h] = &HourlyStats{Hour: h}
		}
		hours[h].Count++
		if succeeded(tx) {
			hours[h].Succeeded++
		} else {
			hours[h].Failed++
		}
	}
	var out []HourlyStats
	for _, stats := range hours {
		if stats != nil {
			out = append(out, *stats)
		}
	}
	return out
}
