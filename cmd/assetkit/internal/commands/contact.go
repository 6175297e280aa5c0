package commands

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
)

const maxContactBody = 64 * 1024 // 64KiB

type contactResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// contactHandler accepts the demo page's contact form. Messages are only
// logged.
func contactHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxContactBody)
	if err := r.ParseMultipartForm(maxContactBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeContactResponse(w, http.StatusBadRequest, contactResponse{Status: "error", Error: "invalid form"})
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	message := strings.TrimSpace(r.FormValue("message"))

	if _, err := mail.ParseAddress(email); err != nil {
		writeContactResponse(w, http.StatusBadRequest, contactResponse{Status: "error", Error: "a valid email is required"})
		return
	}
	if message == "" {
		writeContactResponse(w, http.StatusBadRequest, contactResponse{Status: "error", Error: "a message is required"})
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Str("email", email).
		Int("length", len(message)).
		Msg("Contact message received")

	writeContactResponse(w, http.StatusOK, contactResponse{Status: "ok"})
}

func writeContactResponse(w http.ResponseWriter, status int, resp contactResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
