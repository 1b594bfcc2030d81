package handler

import (
	"encoding/json"
	"maps"
	"net/http"
)

// Fields are extra top-level keys merged into an envelope.
type Fields map[string]any

// envelope renders {"success":bool,"message":string, ...fields}.
type envelope struct {
	status  int
	success bool
	message string
	fields  Fields
}

func (e envelope) Render(w http.ResponseWriter, r *http.Request) error {
	body := make(map[string]any, len(e.fields)+2)
	maps.Copy(body, e.fields)
	body["success"] = e.success
	body["message"] = e.message
	return writeJSON(w, e.status, body)
}

// OK is a 200 success envelope.
func OK(message string, fields Fields) Response {
	return envelope{status: http.StatusOK, success: true, message: message, fields: fields}
}

// Fail is an error envelope. Non-error status codes fall back to 400.
func Fail(status int, message string) Response {
	if status < http.StatusBadRequest {
		status = http.StatusBadRequest
	}
	return envelope{status: status, message: message}
}

// FailWith is Fail with extra fields.
func FailWith(status int, message string, fields Fields) Response {
	r := Fail(status, message).(envelope)
	r.fields = fields
	return r
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, j.status, j.body)
}

// JSON renders v as-is with the given status.
func JSON(status int, v any) Response {
	return jsonResponse{status: status, body: v}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(append(data, '\n'))
	return err
}
