package helper

import (
	"encoding/json"
	"net/http"
	"runtime"
)

const (
	ContentType     = "Content-Type"
	ContentTypeJson = "application/json"
)

// GetFuncName returns the fully qualified name of the calling function.
func GetFuncName() string {
	pc, _, _, _ := runtime.Caller(1)
	return runtime.FuncForPC(pc).Name()
}

// WriteJSON writes v as the JSON body of a response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set(ContentType, ContentTypeJson)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
