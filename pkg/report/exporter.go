package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/sefazor/festival-backend/internal/models"
)

const (
	FormatExcel = "xlsx"
	FormatCSV   = "csv"
	FormatPDF   = "pdf"
)

const (
	contentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV   = "text/csv"
	contentTypePDF   = "application/pdf"
)

var headers = []string{
	"ID", "Kind", "Event", "Team", "Join Code", "Members", "Payer Name", "Payer Email", "Phone",
	"Institute", "Qualification", "Portfolio 1", "Portfolio 2", "Category",
	"Payment Status", "Payment Verification", "Status", "Proof URL", "Registered At",
}

// Exporter renders registration listings as downloadable files.
type Exporter struct {
	now func() time.Time
}

func NewExporter() *Exporter {
	return &Exporter{now: time.Now}
}

// Export returns the file body, a suggested filename and its content type.
func (e *Exporter) Export(format string, views []models.RegistrationView) ([]byte, string, string, error) {
	timestamp := e.now().Format("20060102_150405")
	base := "registrations_" + timestamp

	switch format {
	case FormatExcel:
		data, err := e.exportExcel(views)
		if err != nil {
			return nil, "", "", err
		}
		return data, base + ".xlsx", contentTypeExcel, nil

	case FormatCSV:
		data, err := e.exportCSV(views)
		if err != nil {
			return nil, "", "", err
		}
		return data, base + ".csv", contentTypeCSV, nil

	case FormatPDF:
		data, err := e.exportPDF(views)
		if err != nil {
			return nil, "", "", err
		}
		return data, base + ".pdf", contentTypePDF, nil

	default:
		return nil, "", "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func row(v models.RegistrationView) []string {
	members := ""
	if v.Kind == models.ViewKindTeam {
		members = strconv.Itoa(v.MemberCount)
	}
	proof := ""
	if v.PaymentProofURL != nil {
		proof = *v.PaymentProofURL
	}
	return []string{
		strconv.FormatUint(uint64(v.ID), 10),
		v.Kind,
		v.EventName,
		v.TeamName,
		v.JoinCode,
		members,
		v.PayerName,
		v.PayerEmail,
		v.Phone,
		v.Applicant.Institute,
		v.Applicant.Qualification,
		v.Applicant.PortfolioPreference1,
		v.Applicant.PortfolioPreference2,
		v.Applicant.Category,
		string(v.PaymentStatus),
		string(v.PaymentVerification),
		string(v.Status),
		proof,
		v.RegisteredAt.Format("2006-01-02 15:04:05"),
	}
}

func (e *Exporter) exportExcel(views []models.RegistrationView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Registrations"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(sheetName, "A1", toCells(headers)); err != nil {
		return nil, err
	}
	for i, v := range views {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, toCells(row(v))); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toCells(values []string) *[]interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return &cells
}

func (e *Exporter) exportCSV(views []models.RegistrationView) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(headers); err != nil {
		return nil, err
	}
	for _, v := range views {
		if err := w.Write(row(v)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pdfColumns is the subset of headers that fits a landscape page.
var pdfColumns = []struct {
	index int
	width float64
}{
	{0, 12}, {1, 14}, {2, 40}, {3, 32}, {6, 36}, {7, 52}, {8, 24}, {14, 22}, {15, 22}, {16, 22},
}

func (e *Exporter) exportPDF(views []models.RegistrationView) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Registrations", false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Registrations (%d)", len(views)))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 8)
	for _, c := range pdfColumns {
		pdf.CellFormat(c.width, 7, headers[c.index], "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 7)
	for _, v := range views {
		cells := row(v)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, 6, tr(truncate(cells[c.index], int(c.width/1.6))), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
