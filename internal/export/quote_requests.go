// Package export renders quote requests as spreadsheet workbooks.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the MIME type of the generated workbook
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Quote requests"

type column struct {
	header string
	width  float64
	value  func(q *domain.QuoteRequestDTO, labelNames map[string]string) interface{}
}

var columns = []column{
	{"Title", 36, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return q.Title }},
	{"Status", 14, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return string(q.Status) }},
	{"Bucket", 18, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return q.Bucket }},
	{"Creator country", 18, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return q.CreatorCountry }},
	{"Involved country", 18, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return q.InvolvedCountry }},
	{"Customer", 28, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return q.CustomerName }},
	{"Start date", 12, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return deref(q.StartDate) }},
	{"End date", 12, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return deref(q.EndDate) }},
	{"Urgent", 9, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return yesNo(q.Effective.Urgent) }},
	{"Problems", 9, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return yesNo(q.Effective.Problems) }},
	{"Waiting", 9, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return yesNo(q.Effective.Waiting) }},
	{"Planned", 9, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return yesNo(q.Effective.Planned) }},
	{"Snoozed", 9, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return yesNo(q.Effective.Snoozed) }},
	{"Labels", 30, func(q *domain.QuoteRequestDTO, names map[string]string) interface{} { return labelList(q.Labels, names) }},
	{"Products", 40, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return productList(q.Products) }},
	{"Jobsite", 36, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return q.Jobsite.Address }},
	{"Created by", 24, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return q.CreatedBy }},
	{"Updated", 20, func(q *domain.QuoteRequestDTO, _ map[string]string) interface{} { return q.UpdatedAt }},
}

// QuoteRequests builds a workbook with one row per quote request.
// labelNames maps label IDs to display names; unknown IDs are written as-is.
func QuoteRequests(rows []domain.QuoteRequestDTO, labelNames map[string]string, generatedAt time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	_ = f.SetCellValue(sheetName, "A1", "LoxConnect PRO quote requests")
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	_ = f.SetCellValue(sheetName, "A2", "Generated: "+generatedAt.UTC().Format("2006-01-02 15:04:05")+" UTC")

	const headerRow = 4
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		_ = f.SetCellValue(sheetName, cell, col.header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheetName, name, name, col.width)
	}

	for r := range rows {
		for i, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, headerRow+1+r)
			if err := f.SetCellValue(sheetName, cell, col.value(&rows[r], labelNames)); err != nil {
				return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

// Filename returns the attachment name of an export generated at t
func Filename(t time.Time) string {
	return fmt.Sprintf("quote_requests_%s.xlsx", t.UTC().Format("20060102_150405"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func labelList(ids []string, names map[string]string) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			out = append(out, name)
		} else {
			out = append(out, id)
		}
	}
	return strings.Join(out, ", ")
}

func productList(products []domain.Product) string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, fmt.Sprintf("%dx %s %s", p.Quantity, p.CatClass, p.Description))
	}
	return strings.Join(out, "; ")
}
