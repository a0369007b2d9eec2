package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/franckalain/ecoscan/internal/ml"
	"github.com/franckalain/ecoscan/internal/upload"
	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
	Raw   string `json:"raw,omitempty"`
}

// handleAnalyzeImage is the vision backend: one multipart "image" in, one analysis out
func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Only POST method is allowed"})
		return
	}

	// leave room for the multipart envelope around the image itself
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "Image is too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No image file provided"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Error reading uploaded image"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	f := upload.File{Name: header.Filename, ContentType: contentType, Data: data}
	if err := upload.Validate(f, s.maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	log := s.log.WithFields(logrus.Fields{"name": f.Name, "type": contentType, "bytes": len(data)})
	log.Debug("Analyzing uploaded image")

	result, err := s.model.ProcessImage(r.Context(), data, contentType)
	if err != nil {
		var respErr *ml.ResponseError
		if errors.As(err, &respErr) {
			log.WithError(err).Warn("Model answered with invalid JSON")
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error: "model response was not valid JSON",
				Raw:   respErr.Raw,
			})
			return
		}
		log.WithError(err).Error("Error processing image")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}
