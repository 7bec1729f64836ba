// Package export выгружает отфильтрованные записи в CSV и PDF.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/xela07ax/agentiq-console/internal/domain"
	"github.com/xela07ax/agentiq-console/internal/ticket"
)

// Columns — порядок колонок совпадает с полями записи
var Columns = []string{
	"id", "action", "timestamp", "details", "confidence", "response_time",
	"error", "sla_breach", "remediation", "remediation_executed", "rationale", "policy_name",
}

func row(r domain.ActionRecord) []string {
	remediation := ""
	if r.Remediation != nil {
		remediation = *r.Remediation
	}
	return []string{
		r.ID,
		string(r.Action),
		ticket.FormatTimestamp(r.Timestamp),
		r.Details,
		strconv.FormatFloat(r.Confidence, 'f', -1, 64),
		strconv.FormatFloat(r.ResponseTime, 'f', -1, 64),
		strconv.FormatBool(r.Error),
		strconv.FormatBool(r.SLABreach),
		remediation,
		strconv.FormatBool(r.RemediationExecuted),
		r.Rationale,
		r.PolicyName,
	}
}

// WriteCSV пишет заголовок и по строке на запись
func WriteCSV(w io.Writer, records []domain.ActionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("export: csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("export: csv row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePDF рисует простую таблицу с рамками: заголовок + строки
func WritePDF(w io.Writer, records []domain.ActionRecord) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 10)

	pageW, _ := pdf.GetPageSize()
	colW := pageW / float64(len(Columns)+1)
	_, fontSize := pdf.GetFontSize()
	rowH := fontSize * 1.5

	for _, c := range Columns {
		pdf.CellFormat(colW, rowH, c, "1", 0, "", false, 0, "")
	}
	pdf.Ln(rowH)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, r := range records {
		for _, cell := range row(r) {
			pdf.CellFormat(colW, rowH, tr(cell), "1", 0, "", false, 0, "")
		}
		pdf.Ln(rowH)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: pdf: %w", err)
	}
	return nil
}
