package response

import (
	"encoding/json"
	"net/http"
)

// Result codes shared by the HTTP envelope and per-atom results. Clients
// treat the HTTP status as transport-level only and switch on Code.
const (
	CodeOK           = "0000"
	CodeBadRequest   = "E4000"
	CodeUnauthorized = "E4003"
	CodeNotFound     = "E4004"
	CodeDecrypt      = "E4009"
	CodeInternal     = "E5001"
)

type Body struct {
	Code   string      `json:"code"`
	Data   interface{} `json:"data,omitempty"`
	ErrMsg string      `json:"errMsg,omitempty"`
}

func write(w http.ResponseWriter, statusCode int, body Body) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func Success(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, Body{Code: CodeOK, Data: data})
}

func Created(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusCreated, Body{Code: CodeOK, Data: data})
}

func Fail(w http.ResponseWriter, statusCode int, code, errMsg string) {
	write(w, statusCode, Body{Code: code, ErrMsg: errMsg})
}

func BadRequest(w http.ResponseWriter, errMsg string) {
	Fail(w, http.StatusBadRequest, CodeBadRequest, errMsg)
}

func Unauthorized(w http.ResponseWriter, errMsg string) {
	Fail(w, http.StatusUnauthorized, CodeUnauthorized, errMsg)
}

func NotFound(w http.ResponseWriter, errMsg string) {
	Fail(w, http.StatusNotFound, CodeNotFound, errMsg)
}

func DecryptError(w http.ResponseWriter) {
	Fail(w, http.StatusBadRequest, CodeDecrypt, "decryption failed")
}

func InternalError(w http.ResponseWriter, errMsg string) {
	Fail(w, http.StatusInternalServerError, CodeInternal, errMsg)
}
