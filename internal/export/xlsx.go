package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/meridies/eventbid/internal/model"
)

const (
	sheetBid        = "Bid"
	sheetExpenses   = "Expenses"
	sheetProjection = "Projection"
)

type xlsxStyles struct {
	title  int
	header int
	label  int
	money  int
}

// XLSX renders a workbook with Bid, Expenses and, when a report is present,
// Projection sheets. Money cells hold numbers with a currency format.
func XLSX(s Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetBid); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	st, err := newXLSXStyles(f)
	if err != nil {
		return nil, err
	}

	sections := Sections(s.Bid, s.Report)
	if err := writeBidSheet(f, st, s, sections); err != nil {
		return nil, err
	}
	if err := writeExpenseSheet(f, st, s.Bid.Expenses); err != nil {
		return nil, err
	}
	if s.Report != nil {
		if err := writeFieldSheet(f, st, sheetProjection, sections[len(sections)-1]); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var st xlsxStyles
	var err error
	if st.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	}); err != nil {
		return st, fmt.Errorf("create title style: %w", err)
	}
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Border: thinBorders(),
	}); err != nil {
		return st, fmt.Errorf("create header style: %w", err)
	}
	if st.label, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 10},
	}); err != nil {
		return st, fmt.Errorf("create label style: %w", err)
	}
	numFmt := "$#,##0.00;-$#,##0.00"
	if st.money, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &numFmt,
	}); err != nil {
		return st, fmt.Errorf("create money style: %w", err)
	}
	return st, nil
}

func writeBidSheet(f *excelize.File, st xlsxStyles, s Snapshot, sections []Section) error {
	sheet := sheetBid
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 48); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", "B1"); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", sanitizeCell(s.Bid.EventName))
	f.SetCellStyle(sheet, "A1", "B1", st.title)
	f.SetCellValue(sheet, "A2", "Generated "+s.GeneratedAt.Format("2006-01-02 15:04"))

	row := 4
	for _, sec := range sections {
		if sec.Title == "Expenses" || sec.Title == "Financial Projection" {
			continue
		}
		cell := fmt.Sprintf("A%d", row)
		f.SetCellValue(sheet, cell, sec.Title)
		f.SetCellStyle(sheet, cell, fmt.Sprintf("B%d", row), st.header)
		row++
		for _, fl := range sec.Fields {
			if err := setField(f, st, sheet, row, fl); err != nil {
				return err
			}
			row++
		}
		row++
	}
	return nil
}

func writeExpenseSheet(f *excelize.File, st xlsxStyles, l model.ExpenseLedger) error {
	sheet := sheetExpenses
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "D", 16); err != nil {
		return err
	}
	for i, h := range []string{"Expense", "Category", "Projected", "Actual"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A1", "D1", st.header)

	row := 2
	for _, name := range l.Names() {
		e := l[name]
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), sanitizeCell(name))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), sanitizeCell(e.Category))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), e.Projected.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), e.Actual.InexactFloat64())
		row++
	}
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total")
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), st.label)
	if row > 2 {
		f.SetCellFormula(sheet, fmt.Sprintf("C%d", row), fmt.Sprintf("SUM(C2:C%d)", row-1))
		f.SetCellFormula(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("SUM(D2:D%d)", row-1))
	} else {
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), 0)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), 0)
	}
	f.SetCellStyle(sheet, "C2", fmt.Sprintf("D%d", row), st.money)
	return nil
}

func writeFieldSheet(f *excelize.File, st xlsxStyles, sheet string, sec Section) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 18); err != nil {
		return err
	}
	f.SetCellValue(sheet, "A1", "Metric")
	f.SetCellValue(sheet, "B1", "Value")
	f.SetCellStyle(sheet, "A1", "B1", st.header)
	for i, fl := range sec.Fields {
		if err := setField(f, st, sheet, i+2, fl); err != nil {
			return err
		}
	}
	return nil
}

func setField(f *excelize.File, st xlsxStyles, sheet string, row int, fl Field) error {
	label := fmt.Sprintf("A%d", row)
	value := fmt.Sprintf("B%d", row)
	if err := f.SetCellValue(sheet, label, sanitizeCell(fl.Label)); err != nil {
		return err
	}
	f.SetCellStyle(sheet, label, label, st.label)
	if fl.Amount != nil {
		if err := f.SetCellValue(sheet, value, fl.Amount.InexactFloat64()); err != nil {
			return err
		}
		return f.SetCellStyle(sheet, value, value, st.money)
	}
	return f.SetCellValue(sheet, value, sanitizeCell(fl.Text))
}

// thinBorders returns thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
