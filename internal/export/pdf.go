package export

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	pdfMuted    = &props.Color{Red: 110, Green: 110, Blue: 110}
	pdfHeaderBg = &props.Color{Red: 211, Green: 211, Blue: 211}
	pdfStripeBg = &props.Color{Red: 245, Green: 245, Blue: 245}
)

// PDF renders the bid report. Sections with money render as two-column
// tables; the rest as label/value lines.
func PDF(s Snapshot) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.Letter).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   pdfMuted,
		}).
		Build()

	m := maroto.New(cfg)

	addPDFTitle(m, s)
	for _, sec := range Sections(s.Bid, s.Report) {
		if len(sec.Fields) == 0 {
			continue
		}
		addPDFHeading(m, sec.Title)
		if sec.Title == "Financial Projection" || sec.Title == "Expenses" {
			addPDFTable(m, sec)
		} else {
			addPDFFields(m, sec)
		}
		m.AddRows(row.New(4))
	}
	if s.Report != nil && len(s.Report.Issues) > 0 {
		addPDFHeading(m, "Capacity Notes")
		for _, i := range s.Report.Issues {
			m.AddRows(row.New(5).Add(col.New(12).Add(
				text.New(i.String(), props.Text{Size: 8, Color: pdfMuted}),
			)))
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addPDFTitle(m core.Maroto, s Snapshot) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New("Event Bid Report", props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
		row.New(7).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("%s / %s", s.Bid.GroupName, s.Bid.EventName), props.Text{
					Size:  9,
					Align: align.Left,
					Color: pdfMuted,
				}),
			),
			col.New(6).Add(
				text.New("Generated "+s.GeneratedAt.Format("2006-01-02 15:04"), props.Text{
					Size:  9,
					Align: align.Right,
					Color: pdfMuted,
				}),
			),
		),
		row.New(4),
	)
}

func addPDFHeading(m core.Maroto, title string) {
	m.AddRows(row.New(8).Add(col.New(12).Add(
		text.New(title, props.Text{Size: 11, Style: fontstyle.Bold}),
	)))
}

func addPDFFields(m core.Maroto, sec Section) {
	label := props.Text{Size: 9, Style: fontstyle.Bold}
	value := props.Text{Size: 9}
	for _, f := range sec.Fields {
		m.AddRows(row.New(5).Add(
			col.New(4).Add(text.New(f.Label+":", label)),
			col.New(8).Add(text.New(f.Display(), value)),
		))
	}
}

func addPDFTable(m core.Maroto, sec Section) {
	header := props.Text{Size: 9, Style: fontstyle.Bold}
	headerRight := header
	headerRight.Align = align.Right
	headerCell := &props.Cell{BackgroundColor: pdfHeaderBg}

	m.AddRows(row.New(6).Add(
		col.New(7).Add(text.New("Metric", header)).WithStyle(headerCell),
		col.New(5).Add(text.New("Value", headerRight)).WithStyle(headerCell),
	))

	left := props.Text{Size: 9}
	right := props.Text{Size: 9, Align: align.Right}
	for i, f := range sec.Fields {
		c1 := col.New(7).Add(text.New(f.Label, left))
		c2 := col.New(5).Add(text.New(f.Display(), right))
		if i%2 == 1 {
			stripe := &props.Cell{BackgroundColor: pdfStripeBg}
			c1 = c1.WithStyle(stripe)
			c2 = c2.WithStyle(stripe)
		}
		m.AddRows(row.New(5).Add(c1, c2))
	}
}
