package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const (
	reportTitle  = "Santa Clara Valley Water Report"
	reportFooter = "Generated by EcoTrail AI - Empowering Trail Preservation"
	fontFamily   = "Helvetica"
)

// Document is the content of a rendered report. Text fields must already be ASCII.
type Document struct {
	Date        time.Time
	Location    string
	Description string
	Comment     string
}

// RenderPDF lays out doc as an A4 report with a footer on every page.
func RenderPDF(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 32)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-30)
		pdf.SetDrawColor(169, 169, 169)
		pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
		pdf.SetY(-20)
		pdf.SetFont(fontFamily, "", 8)
		pdf.CellFormat(0, 10, reportFooter, "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(fontFamily, "", 12)
	pdf.CellFormat(0, 10, reportTitle, "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.MultiCell(0, 10, "Date: "+doc.Date.Format("January 02, 2006"), "", "L", false)
	pdf.MultiCell(0, 10, "Location: "+doc.Location, "", "L", false)
	pdf.Ln(5)

	pdf.MultiCell(0, 10, "Trail Issue, Solutions, and Potential Dangers:", "", "L", false)
	pdf.MultiCell(0, 10, doc.Description, "", "L", false)

	if doc.Comment != "" {
		pdf.Ln(5)
		pdf.MultiCell(0, 10, "Additional User Comments: "+doc.Comment, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// PageCount inspects a rendered PDF.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("count report pages: %w", err)
	}
	return n, nil
}

// Filename names a report after its creation time.
func Filename(created time.Time) string {
	return "Santa_Clara_Water_Report_" + created.Format("20060102_150405") + ".pdf"
}
