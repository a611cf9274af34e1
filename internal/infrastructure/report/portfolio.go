// Package report renders collection reports as XLSX workbooks.
package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/port"
	"github.com/bibbank/collections-service/internal/domain/valueobject"
)

const (
	casesSheet   = "Cases"
	summarySheet = "Summary"
	dateLayout   = "2006-01-02"
)

type column struct {
	Header string
	Width  float64
	Value  func(c model.CollectionCase) any
}

func dateCell(t time.Time) any {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func money(d decimal.Decimal) any {
	f, _ := d.Round(2).Float64()
	return f
}

var caseColumns = []column{
	{Header: "Case Number", Width: 18, Value: func(c model.CollectionCase) any { return c.CaseNumber() }},
	{Header: "Loan", Width: 38, Value: func(c model.CollectionCase) any { return c.LoanID() }},
	{Header: "Member", Width: 38, Value: func(c model.CollectionCase) any { return c.MemberID() }},
	{Header: "Status", Width: 16, Value: func(c model.CollectionCase) any { return c.Status().String() }},
	{Header: "Priority", Width: 10, Value: func(c model.CollectionCase) any { return c.Priority().String() }},
	{Header: "Classification", Width: 14, Value: func(c model.CollectionCase) any { return c.Classification().String() }},
	{Header: "Days Past Due", Width: 14, Value: func(c model.CollectionCase) any { return c.CurrentDaysPastDue() }},
	{Header: "Amount Overdue", Width: 16, Value: func(c model.CollectionCase) any { return money(c.AmountOverdue()) }},
	{Header: "Total Outstanding", Width: 18, Value: func(c model.CollectionCase) any { return money(c.TotalOutstanding()) }},
	{Header: "Recovered", Width: 14, Value: func(c model.CollectionCase) any { return money(c.AmountRecovered()) }},
	{Header: "Collector", Width: 20, Value: func(c model.CollectionCase) any { return c.AssignedCollectorID() }},
	{Header: "Contact Attempts", Width: 16, Value: func(c model.CollectionCase) any { return c.ContactAttempts() }},
	{Header: "Last Contact", Width: 12, Value: func(c model.CollectionCase) any { return dateCell(c.LastContactDate()) }},
	{Header: "Next Follow-Up", Width: 14, Value: func(c model.CollectionCase) any { return dateCell(c.NextFollowUpDate()) }},
	{Header: "Opened", Width: 12, Value: func(c model.CollectionCase) any { return dateCell(c.OpenedDate()) }},
}

// bucketTotals aggregates one classification row of the summary sheet.
type bucketTotals struct {
	count       int
	overdue     decimal.Decimal
	outstanding decimal.Decimal
}

// PortfolioRenderer implements port.PortfolioRenderer with excelize.
type PortfolioRenderer struct{}

var _ port.PortfolioRenderer = PortfolioRenderer{}

func NewPortfolioRenderer() PortfolioRenderer { return PortfolioRenderer{} }

// RenderPortfolio writes one row per case and a summary by classification.
func (PortfolioRenderer) RenderPortfolio(cases []model.CollectionCase, asOf time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), casesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	_ = f.SetDocProps(&excelize.DocProperties{
		Title:   "Portfolio at risk " + asOf.UTC().Format(dateLayout),
		Creator: "collections-service",
	})

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := writeCases(f, cases, header); err != nil {
		return nil, err
	}
	if err := writeSummary(f, cases, asOf, header); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeCases(f *excelize.File, cases []model.CollectionCase, header int) error {
	for i, col := range caseColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(casesSheet, cell, col.Header); err != nil {
			return fmt.Errorf("cases header: %w", err)
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(casesSheet, name, name, col.Width)
	}
	last, _ := excelize.CoordinatesToCellName(len(caseColumns), 1)
	_ = f.SetCellStyle(casesSheet, "A1", last, header)

	for r, c := range cases {
		row := make([]any, len(caseColumns))
		for i, col := range caseColumns {
			row[i] = col.Value(c)
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(casesSheet, cell, &row); err != nil {
			return fmt.Errorf("case row %d: %w", r+2, err)
		}
	}
	return f.SetPanes(casesSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeSummary(f *excelize.File, cases []model.CollectionCase, asOf time.Time, header int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}

	totals := map[valueobject.Classification]*bucketTotals{}
	for _, cls := range valueobject.AllClassifications() {
		totals[cls] = &bucketTotals{}
	}
	var grand bucketTotals
	for _, c := range cases {
		b, ok := totals[c.Classification()]
		if !ok {
			continue
		}
		b.count++
		b.overdue = b.overdue.Add(c.AmountOverdue())
		b.outstanding = b.outstanding.Add(c.TotalOutstanding())
		grand.count++
		grand.overdue = grand.overdue.Add(c.AmountOverdue())
		grand.outstanding = grand.outstanding.Add(c.TotalOutstanding())
	}

	rows := [][]any{
		{"As of", asOf.UTC().Format(dateLayout)},
		{},
		{"Classification", "Cases", "Amount Overdue", "Total Outstanding", "Share of Outstanding %"},
	}
	for _, cls := range valueobject.AllClassifications() {
		b := totals[cls]
		rows = append(rows, []any{cls.String(), b.count, money(b.overdue), money(b.outstanding), share(b.outstanding, grand.outstanding)})
	}
	rows = append(rows, []any{"TOTAL", grand.count, money(grand.overdue), money(grand.outstanding), share(grand.outstanding, grand.outstanding)})

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("summary row %d: %w", i+1, err)
		}
	}
	_ = f.SetCellStyle(summarySheet, "A3", "E3", header)
	_ = f.SetColWidth(summarySheet, "A", "E", 22)
	return nil
}

func share(part, whole decimal.Decimal) any {
	if whole.IsZero() {
		return 0.0
	}
	return money(part.Div(whole).Mul(decimal.NewFromInt(100)))
}
