package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/campusdesk/apiserver/internal/apperr"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		url        string
		wantPage   int
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{"/items", 1, 20, 0, false},
		{"/items?page=3&limit=10", 3, 10, 20, false},
		{"/items?limit=500", 1, 100, 0, false},
		{"/items?page=0", 0, 0, 0, true},
		{"/items?page=abc", 0, 0, 0, true},
		{"/items?limit=-1", 0, 0, 0, true},
	}

	for _, tt := range tests {
		r := httptest.NewRequest("GET", tt.url, nil)
		page, limit, offset, err := parsePagination(r)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if page != tt.wantPage || limit != tt.wantLimit || offset != tt.wantOffset {
			t.Errorf("%s: got (%d, %d, %d), want (%d, %d, %d)",
				tt.url, page, limit, offset, tt.wantPage, tt.wantLimit, tt.wantOffset)
		}
	}
}

func TestWriteAppErrorStatusMapping(t *testing.T) {
	tests := []struct {
		kind       apperr.Kind
		wantStatus int
	}{
		{apperr.KindValidation, 400},
		{apperr.KindSelfAction, 400},
		{apperr.KindUnauthenticated, 401},
		{apperr.KindForbidden, 403},
		{apperr.KindAccountDisabled, 403},
		{apperr.KindNotFound, 404},
		{apperr.KindInvalidTransition, 409},
		{apperr.KindStore, 500},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		writeAppError(w, apperr.New(tt.kind, "boom"))
		if w.Code != tt.wantStatus {
			t.Errorf("kind %q: status = %d, want %d", tt.kind, w.Code, tt.wantStatus)
		}
	}
}

func TestWriteAppErrorValidationPayload(t *testing.T) {
	w := httptest.NewRecorder()
	writeAppError(w, apperr.Validation([]apperr.FieldViolation{
		{Field: "title", Message: "too short"},
		{Field: "category", Message: "unknown"},
	}))

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Kind != apperr.KindValidation {
		t.Errorf("kind = %q, want validation", resp.Kind)
	}
	if len(resp.Fields) != 2 {
		t.Errorf("fields = %v, want both violations", resp.Fields)
	}
}

func TestWriteAppErrorHidesStoreDetail(t *testing.T) {
	w := httptest.NewRecorder()
	writeAppError(w, apperr.Newf(apperr.KindStore, "store operation failed: dial tcp 10.0.0.1: refused"))

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "internal server error" {
		t.Errorf("error = %q, store detail leaked", resp.Error)
	}
}
