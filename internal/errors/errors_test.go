package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestProcessingErrorWrapsCause(t *testing.T) {
	cause := stderrors.New("target closed")
	err := NewCaptureFailedError("cycle-1", cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if !strings.Contains(err.Error(), "CAPTURE_FAILED") || !strings.Contains(err.Error(), "target closed") {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if err.Fatal() {
		t.Error("capture failure must not be fatal")
	}
}

func TestSetupErrorIsFatal(t *testing.T) {
	err := NewSetupFailedError("tesseract", stderrors.New("no tessdata"))
	if !err.Fatal() {
		t.Error("setup failure must be fatal")
	}

	var pe *ProcessingError
	if !stderrors.As(error(err), &pe) || pe.Code != ErrorSetupFailed {
		t.Errorf("errors.As did not recover the setup error")
	}
}

func TestToMap(t *testing.T) {
	err := NewOCRFailedError("cycle-7", "digits", stderrors.New("engine busy"))
	m := err.ToMap()

	if m["error_code"] != "OCR_FAILED" {
		t.Errorf("error_code = %v", m["error_code"])
	}
	if m["cycle_id"] != "cycle-7" {
		t.Errorf("cycle_id = %v", m["cycle_id"])
	}
	if m["ocr_mode"] != "digits" {
		t.Errorf("ocr_mode = %v", m["ocr_mode"])
	}
	if m["cause"] != "engine busy" {
		t.Errorf("cause = %v", m["cause"])
	}
}

func TestAsFindsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("cycle: %w", NewOCRFailedError("cycle-3", "label", stderrors.New("boom")))

	var pe *ProcessingError
	if !As(wrapped, &pe) {
		t.Fatal("As should find the ProcessingError")
	}
	if pe.CycleID != "cycle-3" || pe.Details["ocr_mode"] != "label" {
		t.Errorf("unexpected error: %+v", pe)
	}
	var other *ProcessingError
	if As(stderrors.New("plain"), &other) {
		t.Error("As should not match a plain error")
	}
}
