package echo

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/mediqr-dev/mediqr/middleware"
	"github.com/mediqr-dev/mediqr/services"
)

// maxUploadBytes caps a single document upload.
const maxUploadBytes = 15 << 20

// UploadUnderSessionHandler stores a multipart upload through a write
// session.
func (a *API) UploadUnderSessionHandler(c echo.Context) error {
	in, err := a.uploadInputFromForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responseBody{Message: err.Error()})
	}

	doc, err := a.documents.UploadUnderSession(
		c.Request().Context(), c.Param("sessionId"), *in, middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, err, "Session not found or expired")
	}

	return respond(c, http.StatusCreated, "Document uploaded", doc)
}

// UploadByPatientHandler stores a multipart upload for a patient directly.
// An authenticated patient always uploads to their own record; the form's
// patientId only counts for anonymous devices.
func (a *API) UploadByPatientHandler(c echo.Context) error {
	in, err := a.uploadInputFromForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responseBody{Message: err.Error()})
	}

	doc, err := a.documents.UploadByPatient(c.Request().Context(), *in, middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, err, "Patient not found")
	}

	return respond(c, http.StatusCreated, "Document uploaded", doc)
}

type jsonUploadRequest struct {
	DataURL      string `json:"dataUrl"`
	Type         string `json:"type"`
	UploaderName string `json:"uploaderName"`
	PatientID    string `json:"patientId"`
}

// UploadByPatientJSONHandler is the data-url fallback for clients that
// cannot send multipart bodies.
func (a *API) UploadByPatientJSONHandler(c echo.Context) error {
	var req jsonUploadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, responseBody{Message: "Invalid request body"})
	}

	doc, err := a.documents.UploadByPatient(c.Request().Context(), services.UploadInput{
		DataURL:      req.DataURL,
		Type:         req.Type,
		UploaderName: req.UploaderName,
		PatientID:    req.PatientID,
	}, middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, err, "Patient not found")
	}

	return respond(c, http.StatusCreated, "Document uploaded", doc)
}

// ListBySessionHandler returns the documents a session grants access to.
func (a *API) ListBySessionHandler(c echo.Context) error {
	docs, err := a.documents.ListBySession(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		return respondError(c, err, "Session not found or expired")
	}

	return respond(c, http.StatusOK, "Documents found", docs)
}

// ListByPatientHandler returns every document owned by a patient.
func (a *API) ListByPatientHandler(c echo.Context) error {
	docs, err := a.documents.ListByPatient(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return respondError(c, err, "Patient not found")
	}

	return respond(c, http.StatusOK, "Documents found", docs)
}

// SummarizeDocumentHandler runs the OCR and summary pipeline for one
// document.
func (a *API) SummarizeDocumentHandler(c echo.Context) error {
	doc, err := a.summaries.SummarizeDocument(
		c.Request().Context(), c.Param("id"), middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, err, "Document not found")
	}

	return respond(c, http.StatusOK, "Document summarized", doc)
}

// PatientSummaryHandler builds the aggregate summary over a patient's
// documents. Per-document failures are reported, not fatal.
func (a *API) PatientSummaryHandler(c echo.Context) error {
	summary, err := a.summaries.SummarizePatientDocuments(
		c.Request().Context(), c.Param("patientId"), middleware.IdentityFrom(c))
	if err != nil {
		return respondError(c, err, "Patient not found")
	}

	return respond(c, http.StatusOK, "Summary generated", summary)
}

// DeleteDocumentHandler deletes a document. Only the owning patient may.
func (a *API) DeleteDocumentHandler(c echo.Context) error {
	if err := a.documents.Delete(c.Request().Context(), c.Param("id"), middleware.IdentityFrom(c)); err != nil {
		return respondError(c, err, "Document not found")
	}

	return respond(c, http.StatusOK, "Document deleted", nil)
}

// uploadInputFromForm decodes a multipart upload into the service input,
// inlining the file as a data URL.
func (a *API) uploadInputFromForm(c echo.Context) (*services.UploadInput, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return nil, fmt.Errorf("file exceeds the %d MB upload limit", maxUploadBytes>>20)
	}

	dataURL, err := encodeDataURL(fileHeader)
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("failed to read upload")
		return nil, fmt.Errorf("failed to read uploaded file")
	}

	return &services.UploadInput{
		DataURL:      dataURL,
		Type:         c.FormValue("type"),
		UploaderName: c.FormValue("uploaderName"),
		PatientID:    c.FormValue("patientId"),
	}, nil
}

func encodeDataURL(fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return "", err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(raw)), nil
}
