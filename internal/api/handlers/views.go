package handlers

import (
	"bytes"
	"embed"
	"encoding/base64"
	"html/template"
	"net/http"

	"github.com/dvloznov/payroll-csv/internal/pipeline"
	"github.com/dvloznov/payroll-csv/internal/render"
)

//go:embed templates/*.html
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// previewLimit caps the rows rendered on the result page.
const previewLimit = 1000

type indexView struct {
	MaxUploadMB int64
}

type resultView struct {
	Error string

	Filename   string
	Summary    string
	Strategy   string
	Pages      int
	GrandTotal string

	Rows      []render.DetailRow
	TotalRows int
	Truncated bool

	DetailName  string
	DetailURL   template.URL
	SummaryName string
	SummaryURL  template.URL
}

func newResultView(state *pipeline.PipelineState) resultView {
	report := state.Report
	rows := render.DetailRows(report)

	view := resultView{
		Filename:    state.Source,
		Summary:     report.Summary(),
		Strategy:    report.Strategy,
		Pages:       report.Pages,
		GrandTotal:  render.FormatRand(report.GrandTotal()),
		Rows:        rows,
		TotalRows:   len(rows),
		DetailName:  render.DetailFilename,
		DetailURL:   csvDataURL(state.DetailCSV),
		SummaryName: render.SummaryFilename,
		SummaryURL:  csvDataURL(state.SummaryCSV),
	}
	if len(rows) > previewLimit {
		view.Rows = rows[:previewLimit]
		view.Truncated = true
	}
	return view
}

// csvDataURL embeds a CSV in a link so downloads need no server-side state.
func csvDataURL(data []byte) template.URL {
	return template.URL("data:text/csv;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(data))
}

func (h *ExtractHandler) renderHTML(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log := h.requestLog(r)
		log.Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

type recordJSON struct {
	Date  string `json:"date"`
	Gross string `json:"gross_remuneration"`
}

type employeeJSON struct {
	Employee string       `json:"employee"`
	Total    string       `json:"total_gross"`
	Records  []recordJSON `json:"records"`
}

type reportJSON struct {
	Summary       string         `json:"summary"`
	Strategy      string         `json:"strategy"`
	Pages         int            `json:"pages"`
	RecordCount   int            `json:"record_count"`
	EmployeeCount int            `json:"employee_count"`
	GrandTotal    string         `json:"grand_total"`
	Employees     []employeeJSON `json:"employees"`
}

func newReportJSON(state *pipeline.PipelineState) reportJSON {
	report := state.Report
	out := reportJSON{
		Summary:       report.Summary(),
		Strategy:      report.Strategy,
		Pages:         report.Pages,
		RecordCount:   report.RecordCount(),
		EmployeeCount: report.EmployeeCount(),
		GrandTotal:    report.GrandTotal().StringFixed(2),
		Employees:     make([]employeeJSON, 0, len(report.Groups)),
	}
	for _, g := range report.Groups {
		emp := employeeJSON{
			Employee: g.Employee,
			Total:    g.Total.StringFixed(2),
			Records:  make([]recordJSON, 0, len(g.Records)),
		}
		for _, rec := range g.Records {
			emp.Records = append(emp.Records, recordJSON{
				Date:  rec.DisplayDate(),
				Gross: rec.Gross.StringFixed(2),
			})
		}
		out.Employees = append(out.Employees, emp)
	}
	return out
}
