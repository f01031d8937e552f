package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"studiorit/internal/models"
)

const dateLayout = "02.01.2006 15:04"

// Generator renders printable task reports.
type Generator interface {
	TaskReport(detail *models.TaskDetail) ([]byte, error)
}

// DocumentGenerator renders with a UTF-8 TTF when FontPath is set and
// falls back to the Helvetica core font otherwise.
type DocumentGenerator struct {
	FontPath string
	fontName string
}

func NewDocumentGenerator(fontPath string) *DocumentGenerator {
	g := &DocumentGenerator{FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		g.fontName = "DejaVu"
	}
	return g
}

func (g *DocumentGenerator) TaskReport(detail *models.TaskDetail) ([]byte, error) {
	if detail == nil || detail.Task == nil {
		return nil, fmt.Errorf("task report: nil task")
	}
	t := detail.Task

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Task report: "+t.Title, true)
	pdf.SetAuthor("Studio RIT", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	r := g.newReport(pdf, detail)
	pdf.AddPage()

	pdf.SetFont(r.font, "B", 18)
	pdf.CellFormat(0, 10, r.text(t.Title), "", 1, "C", false, 0, "")
	pdf.SetFont(r.font, "", 11)
	pdf.CellFormat(0, 7, r.text(detail.Project.Title), "", 1, "C", false, 0, "")
	r.hr()

	r.sectionTitle("Summary")
	r.kvLine("Status", string(t.Status))
	r.kvLine("Priority", string(t.Priority))
	r.kvLine("Due", t.DueDate.Format(dateLayout))
	if detail.IsOverdue {
		r.kvLine("Overdue", "yes")
	}
	r.kvLine("Assignee", r.person(t.AssignedTo))
	r.kvLine("Assigned by", r.person(t.AssignedBy))
	r.kvLine("Created by", r.person(t.CreatedBy))
	if t.CompletedAt != nil && t.CompletedBy != nil {
		r.kvLine("Completed", t.CompletedAt.Format(dateLayout)+" by "+r.person(*t.CompletedBy))
	}
	if strings.TrimSpace(t.Description) != "" {
		pdf.Ln(1)
		pdf.SetFont(r.font, "", 11)
		pdf.MultiCell(0, 6, r.text(t.Description), "", "L", false)
	}
	r.hr()

	r.sectionTitle("Approvals")
	if len(t.Approvals) == 0 {
		r.addLines([]string{"No approvals yet."})
	}
	for _, a := range t.Approvals {
		line := fmt.Sprintf("%s  %s  %s", a.UpdatedAt.Format(dateLayout), a.Status, r.person(a.Approver))
		if a.Comments != "" {
			line += ": " + a.Comments
		}
		r.addLines([]string{line})
	}
	r.hr()

	r.sectionTitle("Revisions")
	if len(t.Revisions) == 0 {
		r.addLines([]string{"No revisions yet."})
	}
	for _, rev := range t.Revisions {
		line := fmt.Sprintf("v%d  %s  %s, %d file(s)", rev.Version, rev.SubmittedAt.Format(dateLayout),
			r.person(rev.SubmittedBy), len(rev.Files))
		if rev.Description != "" {
			line += ": " + rev.Description
		}
		r.addLines([]string{line})
	}

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(r.font, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render task report: %w", err)
	}
	return buf.Bytes(), nil
}

// report is the state of one render.
type report struct {
	pdf    *gofpdf.Fpdf
	detail *models.TaskDetail
	font   string
	text   func(string) string
}

// newReport registers the UTF-8 font when one is configured. Without it
// text is mapped to cp1252 for the core font.
func (g *DocumentGenerator) newReport(pdf *gofpdf.Fpdf, detail *models.TaskDetail) *report {
	r := &report{pdf: pdf, detail: detail, font: g.fontName}
	if g.FontPath != "" {
		pdf.AddUTF8Font(g.fontName, "", g.FontPath)
		pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
		r.text = func(s string) string { return s }
	} else {
		r.text = pdf.UnicodeTranslatorFromDescriptor("")
	}
	return r
}

func (r *report) person(id string) string {
	if id == "" {
		return "-"
	}
	if u, ok := r.detail.People[id]; ok && u.Name != "" {
		return u.Name
	}
	return id
}

func (r *report) sectionTitle(s string) {
	r.pdf.SetFont(r.font, "B", 12)
	r.pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	r.pdf.SetFont(r.font, "", 11)
}

func (r *report) kvLine(key, val string) {
	r.pdf.SetFont(r.font, "B", 11)
	r.pdf.CellFormat(35, 6, key+":", "", 0, "L", false, 0, "")
	r.pdf.SetFont(r.font, "", 11)
	r.pdf.CellFormat(0, 6, r.text(val), "", 1, "L", false, 0, "")
}

func (r *report) hr() {
	y := r.pdf.GetY() + 1.5
	r.pdf.SetLineWidth(0.2)
	r.pdf.Line(20, y, 190, y)
	r.pdf.SetY(y + 2)
}

func (r *report) addLines(lines []string) {
	r.pdf.SetFont(r.font, "", 10)
	for _, line := range lines {
		r.pdf.MultiCell(0, 5, r.text(line), "", "L", false)
	}
	r.pdf.Ln(1)
}
