package httpapi

import (
	"encoding/json"
	"net/http"
)

type TailorRequest struct {
	JobAd string `json:"jobAd"`
}

type TailorResponse struct {
	CVPdf               string `json:"cvPdf"`
	CoverLetterPdf      string `json:"coverLetterPdf"`
	CVFilename          string `json:"cvFilename"`
	CoverLetterFilename string `json:"coverLetterFilename"`
	ZipFile             string `json:"zipFile"`
	ZipFilename         string `json:"zipFilename"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// Render writes v as a JSON body with the given status code.
func Render(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func RenderError(w http.ResponseWriter, code int, message string) error {
	return Render(w, code, ErrorResponse{Error: message})
}
