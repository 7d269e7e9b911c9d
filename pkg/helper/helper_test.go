package helper

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetFuncName(t *testing.T) {
	got := GetFuncName()
	if !strings.HasSuffix(got, "helper.TestGetFuncName") {
		t.Errorf("GetFuncName() = %s, want suffix helper.TestGetFuncName", got)
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	if err := WriteJSON(rr, http.StatusCreated, map[string]string{"message": "ok"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	if got := rr.Header().Get(ContentType); got != ContentTypeJson {
		t.Errorf("Content-Type = %q, want %q", got, ContentTypeJson)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"message":"ok"}` {
		t.Errorf("body = %s", got)
	}
}
