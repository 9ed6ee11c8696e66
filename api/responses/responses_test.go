package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok || data["hello"] != "world" {
		t.Fatalf("unexpected data: %+v", envelope.Data)
	}
}

func TestWriteErrorUsesCodeMetadata(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			err:        pkgerrors.New(pkgerrors.CodeNotFound, "event not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantMsg:    "event not found",
		},
		{
			err:        pkgerrors.New(pkgerrors.CodeCapacityExceeded, "not enough seats left"),
			wantStatus: http.StatusConflict,
			wantCode:   "CAPACITY_EXCEEDED",
			wantMsg:    "not enough seats left",
		},
		{
			err:        pkgerrors.New(pkgerrors.CodeInsufficientPayment, "payment below ticket cost"),
			wantStatus: http.StatusPaymentRequired,
			wantCode:   "INSUFFICIENT_PAYMENT",
			wantMsg:    "payment below ticket cost",
		},
		{
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
			wantMsg:    "internal server error",
		},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(context.Background(), nil, w, tc.err)

		if w.Code != tc.wantStatus {
			t.Errorf("%v: expected status %d, got %d", tc.err, tc.wantStatus, w.Code)
		}
		var envelope types.ErrorEnvelope
		if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if envelope.Error.Code != tc.wantCode {
			t.Errorf("%v: expected code %s, got %s", tc.err, tc.wantCode, envelope.Error.Code)
		}
		if envelope.Error.Message != tc.wantMsg {
			t.Errorf("%v: expected message %q, got %q", tc.err, tc.wantMsg, envelope.Error.Message)
		}
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("pq: column missing"), "loading event").
		WithDetails(map[string]any{"query": "select"})
	WriteError(context.Background(), nil, w, err)

	var envelope types.ErrorEnvelope
	if derr := json.NewDecoder(w.Body).Decode(&envelope); derr != nil {
		t.Fatalf("decode envelope: %v", derr)
	}
	if envelope.Error.Details != nil {
		t.Fatalf("internal details must not leak: %+v", envelope.Error.Details)
	}
	if envelope.Error.Message != "internal server error" {
		t.Fatalf("internal message must be generic, got %q", envelope.Error.Message)
	}
}
