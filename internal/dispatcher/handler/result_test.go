package handler_test

import (
	"errors"
	"testing"

	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
	"github.com/dshills/ctrlshell/internal/viewmgr"
)

func TestResultStatus(t *testing.T) {
	tests := []struct {
		status   handler.ResultStatus
		expected string
	}{
		{handler.StatusOK, "ok"},
		{handler.StatusNoOp, "no-op"},
		{handler.StatusError, "error"},
		{handler.StatusCancelled, "cancelled"},
		{handler.ResultStatus(99), "unknown"},
	}

	for _, tc := range tests {
		if tc.status.String() != tc.expected {
			t.Errorf("ResultStatus(%d).String() = %q, want %q", tc.status, tc.status.String(), tc.expected)
		}
	}
}

func TestConstructors(t *testing.T) {
	view := viewmgr.GeneratedView{ID: "v1", Label: "x"}
	err := errors.New("boom")

	tests := []struct {
		name   string
		result handler.Result
		status handler.ResultStatus
	}{
		{"success message", handler.SuccessWithMessage("done"), handler.StatusOK},
		{"shown", handler.Shown(view), handler.StatusOK},
		{"no-op", handler.NoOp(), handler.StatusNoOp},
		{"error", handler.Error(err), handler.StatusError},
		{"errorf", handler.Errorf("bad %d", 1), handler.StatusError},
		{"cancelled message", handler.CancelledWithMessage("stop"), handler.StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.status {
				t.Errorf("status = %v, want %v", tt.result.Status, tt.status)
			}
			if tt.result.IsOK() != (tt.status == handler.StatusOK) {
				t.Error("IsOK mismatch")
			}
			if tt.result.IsError() != (tt.status == handler.StatusError) {
				t.Error("IsError mismatch")
			}
		})
	}

	if handler.Shown(view).View != view {
		t.Error("Shown should carry the view")
	}
	if handler.Errorf("bad %d", 1).Error.Error() != "bad 1" {
		t.Error("Errorf message mismatch")
	}
	if !errors.Is(handler.Error(err).Error, err) {
		t.Error("Error should carry the error")
	}
}

func TestBuilders(t *testing.T) {
	view := viewmgr.GeneratedView{ID: "v", Label: "l"}
	r := handler.Shown(view).
		WithMessage("msg").
		WithChangeDir("/tmp").
		WithData("count", 3).
		WithData("name", "n")

	if r.Message != "msg" || r.View != view || r.ChangeDir != "/tmp" {
		t.Errorf("unexpected result %+v", r)
	}
	if r.Data["count"] != 3 || r.Data["name"] != "n" {
		t.Errorf("data = %v", r.Data)
	}
	if handler.NoOp().Data != nil {
		t.Error("expected no data")
	}
}
