package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dvloznov/payroll-csv/internal/extract"
	"github.com/dvloznov/payroll-csv/internal/metrics"
	"github.com/dvloznov/payroll-csv/internal/payroll"
	"github.com/dvloznov/payroll-csv/internal/pdftext"
	"github.com/dvloznov/payroll-csv/internal/pdftext/pdftest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	pages []pdftext.Page
}

func (f fakeReader) ReadPages(ctx context.Context, data []byte) ([]pdftext.Page, int, error) {
	return f.pages, len(f.pages), nil
}

func textLine(y float64, text string) pdftext.Line {
	return pdftext.Line{Y: y, Cells: []pdftext.Cell{{Text: text, X0: 40, X1: 40 + float64(len(text))*5, Y: y, FontSize: 9}}}
}

var payrollPages = []pdftext.Page{{
	Number: 1,
	Lines: []pdftext.Line{
		textLine(780, "Smith, John"),
		textLine(760, "2024-01-25 Salary 12,000.00 12,500.00 11,000.00"),
		textLine(740, "2024-02-25 Salary 12,000.00 12,500.00 11,000.00"),
		textLine(720, "Adams, Jane"),
		textLine(700, "2024-01-25 Salary 9,000.00 9,800.50 8,000.00"),
	},
}}

func newTestHandler(pages []pdftext.Page, maxBytes int64) (*ExtractHandler, *metrics.Metrics) {
	m := metrics.New()
	h := NewExtractHandler(Config{
		Options:        extract.DefaultOptions(),
		MaxUploadBytes: maxBytes,
		Metrics:        m,
		Reader:         fakeReader{pages: pages},
	}, zerolog.Nop())
	return h, m
}

func multipartRequest(t *testing.T, target, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile(uploadField, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var pdfBytes = []byte("%PDF-1.4\n%fake report\n")

func TestIndex(t *testing.T) {
	h, _ := newTestHandler(nil, 20<<20)

	rec := httptest.NewRecorder()
	h.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Armour Me Payroll")
	assert.Contains(t, body, `name="file"`)
	assert.Contains(t, body, "max 20 MB")
}

func TestExtractPage_Success(t *testing.T) {
	h, m := newTestHandler(payrollPages, 20<<20)

	rec := httptest.NewRecorder()
	h.ExtractPage(rec, multipartRequest(t, "/extract", "march.pdf", pdfBytes))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Extracted 3 rows from 2 employees")
	assert.Contains(t, body, "R 25,000.00")
	assert.Contains(t, body, `download="armour_me_gross_remuneration.csv"`)
	assert.Contains(t, body, `download="armour_me_gross_totals.csv"`)
	assert.Contains(t, body, `href="data:text/csv;charset=utf-8;base64,`)
	assert.NotContains(t, body, "#ZgotmplZ")

	metricsRec := httptest.NewRecorder()
	m.Handler().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metricsRec.Body.String(), `payroll_csv_uploads_total{result="success"} 1`)
	assert.Contains(t, metricsRec.Body.String(), `payroll_csv_records_extracted_total{strategy="lines"} 3`)
}

func TestExtractPage_NoData(t *testing.T) {
	h, _ := newTestHandler([]pdftext.Page{{Number: 1, Lines: []pdftext.Line{textLine(700, "Armour Me (Pty) Ltd")}}}, 20<<20)

	rec := httptest.NewRecorder()
	h.ExtractPage(rec, multipartRequest(t, "/extract", "empty.pdf", pdfBytes))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), payroll.NoDataMessage)
}

func TestExtractAPI_Formats(t *testing.T) {
	tests := []struct {
		format      string
		contentType string
		filename    string
		contains    string
	}{
		{"", "text/csv", "armour_me_gross_remuneration.csv", `"Smith, John",Total,"R 25,000.00"`},
		{"csv", "text/csv", "armour_me_gross_remuneration.csv", "Employee,Date,Gross Remuneration"},
		{"summary", "text/csv", "armour_me_gross_totals.csv", `"Adams, Jane","R 9,800.50"`},
		{"json", "application/json", "", `"summary":"Extracted 3 rows from 2 employees"`},
	}

	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			h, _ := newTestHandler(payrollPages, 20<<20)

			rec := httptest.NewRecorder()
			h.ExtractAPI(rec, multipartRequest(t, "/api/extract?format="+tt.format, "march.pdf", pdfBytes))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			if tt.filename != "" {
				assert.Contains(t, rec.Header().Get("Content-Disposition"), tt.filename)
				assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}), "missing BOM")
			}
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestExtractAPI_JSONReport(t *testing.T) {
	h, _ := newTestHandler(payrollPages, 20<<20)

	rec := httptest.NewRecorder()
	h.ExtractAPI(rec, multipartRequest(t, "/api/extract?format=json", "march.pdf", pdfBytes))
	require.Equal(t, http.StatusOK, rec.Code)

	var got reportJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3, got.RecordCount)
	assert.Equal(t, 2, got.EmployeeCount)
	assert.Equal(t, "34800.50", got.GrandTotal)
	require.Len(t, got.Employees, 2)
	assert.Equal(t, "Adams, Jane", got.Employees[0].Employee)
	assert.Equal(t, "25000.00", got.Employees[1].Total)
	assert.Equal(t, []recordJSON{{Date: "2024-01-25", Gross: "12500.00"}, {Date: "2024-02-25", Gross: "12500.00"}}, got.Employees[1].Records)
}

func TestExtractAPI_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		maxBytes   int64
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantError  string
	}{
		{
			name:     "too large",
			maxBytes: 64,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/extract", "big.pdf", append(pdfBytes, make([]byte, 256)...))
			},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantError:  "The file is too large.",
		},
		{
			name:     "not a pdf",
			maxBytes: 20 << 20,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/extract", "notes.pdf", []byte("just text"))
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "The uploaded file is not a PDF.",
		},
		{
			name:     "no file",
			maxBytes: 20 << 20,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/extract", "", nil)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Choose a PDF file to upload.",
		},
		{
			name:     "not multipart",
			maxBytes: 20 << 20,
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader("%PDF-1.4"))
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "The upload could not be read.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(payrollPages, tt.maxBytes)

			rec := httptest.NewRecorder()
			h.ExtractAPI(rec, tt.req(t))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestExtractAPI_UnknownFormat(t *testing.T) {
	h, _ := newTestHandler(payrollPages, 20<<20)

	rec := httptest.NewRecorder()
	h.ExtractAPI(rec, multipartRequest(t, "/api/extract?format=xlsx", "march.pdf", pdfBytes))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCSVDataURL(t *testing.T) {
	url := string(csvDataURL([]byte("a,b\n")))
	prefix := "data:text/csv;charset=utf-8;base64,"
	require.True(t, strings.HasPrefix(url, prefix))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(decoded))
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestExtractAPI_RealPDF(t *testing.T) {
	var logs bytes.Buffer
	h := NewExtractHandler(Config{
		Options:        extract.DefaultOptions(),
		MaxUploadBytes: 1 << 20,
	}, zerolog.New(&logs))

	rec := httptest.NewRecorder()
	h.ExtractAPI(rec, multipartRequest(t, "/api/extract?format=summary", "statement.pdf", pdftest.PayrollStatement()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Smith, John","R 13,500.00"`)

	var strategyLine map[string]interface{}
	for _, l := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(l), &entry))
		if entry["message"] == "Extraction strategy finished" {
			strategyLine = entry
			break
		}
	}
	require.NotNil(t, strategyLine, "pipeline logs missing: %s", logs.String())
	assert.Equal(t, "statement.pdf", strategyLine["filename"])
	assert.Equal(t, "table", strategyLine["strategy"])
}
