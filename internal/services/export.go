package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/repository"
)

var exportHeaders = []string{"Date", "Description", "Category", "Type", "Amount", "Notes"}

// Exporter renders transactions as spreadsheets.
type Exporter struct {
	transactions *repository.Transactions
	logger       *log.Logger
}

func NewExporter(repos *repository.Set, logger *log.Logger) *Exporter {
	return &Exporter{transactions: repos.Transactions, logger: logger.WithComponent(log.ComponentExport)}
}

// TransactionsWorkbook builds an XLSX workbook with the transactions of
// month followed by income, expense and net totals. The caller closes the
// returned file.
func (e *Exporter) TransactionsWorkbook(ctx context.Context, month core.Month) (*excelize.File, error) {
	txs, ok := e.transactions.ForMonth(ctx, month)
	if !ok {
		return nil, fmt.Errorf("fetch transactions for %s: %w", month, ErrStoreUnavailable)
	}

	f := excelize.NewFile()
	sheet := "Transactions " + month.String()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	totalStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
	})

	f.SetColWidth(sheet, "A", "A", 12)
	f.SetColWidth(sheet, "B", "B", 30)
	f.SetColWidth(sheet, "C", "D", 16)
	f.SetColWidth(sheet, "E", "E", 12)
	f.SetColWidth(sheet, "F", "F", 30)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	income, expenses := decimal.Zero, decimal.Zero
	for i, t := range txs {
		row := i + 2
		amount, _ := t.Amount.Float64()
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &[]any{
			t.Date.String(), t.Description, t.Category, string(t.Type), amount, t.Notes,
		})
		switch t.Type {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expenses = expenses.Add(t.Amount)
		}
	}

	row := len(txs) + 3
	for _, total := range []struct {
		label string
		value decimal.Decimal
	}{
		{"Total income", income},
		{"Total expenses", expenses},
		{"Net", income.Sub(expenses)},
	} {
		v, _ := total.value.Float64()
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), total.label)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), v)
		f.SetCellStyle(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("E%d", row), totalStyle)
		row++
	}

	e.logger.InfoContext(ctx, "Exported transactions", log.FieldMonth, month.String(), log.FieldCount, len(txs))
	return f, nil
}
