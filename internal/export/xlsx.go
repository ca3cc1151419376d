package export

import (
	"io"

	"bookkeeping/internal/ledger"
	"bookkeeping/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	TransactionsSheet = "Transactions"
	BalancesSheet     = "Balances"
	ContentType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var transactionHeaders = []string{
	"Date", "Type", "Account", "Amount", "Description", "Category", "Contact",
	"Due date", "Remaining", "Status", "Linked transaction",
}

// WriteWorkbook renders a user's transactions and current balances as an xlsx workbook.
func WriteWorkbook(w io.Writer, txs []models.Transaction, balances ledger.Balances) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TransactionsSheet); err != nil {
		return err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeRow(f, TransactionsSheet, 1, toCells(transactionHeaders)); err != nil {
		return err
	}
	for i, tx := range txs {
		row := i + 2
		if err := writeRow(f, TransactionsSheet, row, transactionCells(tx)); err != nil {
			return err
		}
		if err := f.SetCellStyle(TransactionsSheet, cell(4, row), cell(4, row), amountStyle); err != nil {
			return err
		}
		if err := f.SetCellStyle(TransactionsSheet, cell(9, row), cell(9, row), amountStyle); err != nil {
			return err
		}
	}
	last := cell(len(transactionHeaders), 1)
	if err := f.SetCellStyle(TransactionsSheet, "A1", last, headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(TransactionsSheet, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(TransactionsSheet, "E", "E", 40); err != nil {
		return err
	}

	if _, err := f.NewSheet(BalancesSheet); err != nil {
		return err
	}
	summary := [][]any{
		{"Balance", "Amount"},
		{"Cash", number(balances.Cash)},
		{"Bank", number(balances.Bank)},
		{"Credit", number(balances.Credit)},
		{"Loan", number(balances.Loan)},
	}
	for i, values := range summary {
		if err := writeRow(f, BalancesSheet, i+1, values); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(BalancesSheet, "B2", "B5", amountStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(BalancesSheet, "A1", "B1", headerStyle); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func transactionCells(tx models.Transaction) []any {
	var due, remaining, status any
	if tx.DueDate != nil {
		due = tx.DueDate.Format("2006-01-02")
	}
	if tx.RemainingAmount.Valid {
		remaining = number(tx.RemainingAmount.Decimal)
	}
	if tx.Status != nil {
		status = string(*tx.Status)
	}
	return []any{
		tx.Date.Format("2006-01-02"),
		string(tx.Type),
		string(tx.Account),
		number(tx.Amount),
		tx.Description,
		text(tx.Category),
		text(tx.ContactName),
		due,
		remaining,
		status,
		text(tx.LinkedTransactionID),
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	return f.SetSheetRow(sheet, cell(1, row), &values)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func toCells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// number stores amounts as spreadsheet numbers; two decimal places survive a float64.
func number(value decimal.Decimal) float64 {
	return value.Round(2).InexactFloat64()
}

func text(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
