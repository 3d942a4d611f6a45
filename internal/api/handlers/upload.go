package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/dvloznov/payroll-csv/internal/payroll"
	"github.com/dvloznov/payroll-csv/internal/pdftext"
	"github.com/dvloznov/payroll-csv/internal/pipeline"
)

// uploadField is the multipart field holding the PDF.
const uploadField = "file"

// multipartMemory is how much of a form is kept in memory before spilling
// to temp files.
const multipartMemory = 8 << 20

var (
	errTooLarge  = errors.New("upload exceeds size limit")
	errNoFile    = errors.New("no file uploaded")
	errNotPDF    = errors.New("uploaded file is not a PDF")
	errBadUpload = errors.New("malformed upload")
)

type upload struct {
	Filename string
	Data     []byte
}

// readUpload pulls the PDF out of a multipart form, enforcing maxBytes on
// the whole request body.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (*upload, error) {
	if maxBytes > 0 {
		if r.ContentLength > maxBytes {
			return nil, errTooLarge
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, errTooLarge
		}
		return nil, fmt.Errorf("%w: %v", errBadUpload, err)
	}

	f, hdr, err := r.FormFile(uploadField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, errNoFile
		}
		return nil, fmt.Errorf("%w: %v", errBadUpload, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadUpload, err)
	}
	if !pdftext.IsPDF(data) {
		return nil, errNotPDF
	}

	return &upload{Filename: filepath.Base(hdr.Filename), Data: data}, nil
}

func uploadStatus(err error) int {
	if errors.Is(err, errTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// userMessage is the text shown for a failed upload.
func userMessage(err error) string {
	switch {
	case errors.Is(err, payroll.ErrNoRecords):
		return payroll.NoDataMessage
	case errors.Is(err, errTooLarge):
		return "The file is too large."
	case errors.Is(err, errNoFile):
		return "Choose a PDF file to upload."
	case errors.Is(err, errNotPDF):
		return "The uploaded file is not a PDF."
	case errors.Is(err, errBadUpload):
		return "The upload could not be read."
	case errors.Is(err, pipeline.ErrUnreadablePDF):
		return "The PDF could not be read."
	default:
		return "Something went wrong while extracting the report."
	}
}
