package capture

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	workererrors "github.com/adverant/nexus/boll-capture-worker/internal/errors"
	"github.com/adverant/nexus/boll-capture-worker/internal/processor"
)

var fixedTime = time.Date(2026, 10, 18, 9, 30, 5, 0, time.UTC)

func TestFormatReading(t *testing.T) {
	testCases := []struct {
		name string
		rec  *processor.Recognition
		want string
	}{
		{
			name: "found",
			rec: &processor.Recognition{
				Found:   true,
				Reading: processor.Reading{Upper: "65,432.10", Middle: "65,000.00", Lower: "64,567.89"},
			},
			want: "[2026-10-18 09:30:05] BOLL 上轨:65,432.10 中轨:65,000.00 下轨:64,567.89",
		},
		{
			name: "not found",
			rec:  &processor.Recognition{},
			want: "[2026-10-18 09:30:05] BOLL 上轨:none 中轨:none 下轨:none",
		},
		{
			name: "partial reading is never printed",
			rec: &processor.Recognition{
				Found:   true,
				Reading: processor.Reading{Upper: "1.5", Middle: "1.2"},
			},
			want: "[2026-10-18 09:30:05] BOLL 上轨:none 中轨:none 下轨:none",
		},
		{
			name: "nil",
			want: "[2026-10-18 09:30:05] BOLL 上轨:none 中轨:none 下轨:none",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatReading(fixedTime, tc.rec); got != tc.want {
				t.Errorf("FormatReading = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTimestampsAreUTC(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*60*60)
	ts := time.Date(2026, 10, 18, 17, 30, 5, 0, shanghai)

	got := FormatReading(ts, nil)
	if !strings.HasPrefix(got, "[2026-10-18 09:30:05] ") {
		t.Errorf("FormatReading = %q, want UTC timestamp", got)
	}

	got = FormatError(ts, errors.New("boom"))
	if !strings.HasPrefix(got, "[2026-10-18 09:30:05] ") {
		t.Errorf("FormatError = %q, want UTC timestamp", got)
	}
}

func TestFormatError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "plain",
			err:  errors.New("target closed"),
			want: "[2026-10-18 09:30:05] 发生错误: target closed",
		},
		{
			name: "coded error prints its cause",
			err:  workererrors.NewCaptureFailedError("c1", errors.New("screenshot failed: target closed")),
			want: "[2026-10-18 09:30:05] 发生错误: screenshot failed: target closed",
		},
		{
			name: "wrapped coded error",
			err:  fmt.Errorf("cycle: %w", workererrors.NewOCRFailedError("c1", "label", errors.New("engine busy"))),
			want: "[2026-10-18 09:30:05] 发生错误: engine busy",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatError(fixedTime, tc.err); got != tc.want {
				t.Errorf("FormatError = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestReporterWritesOneLinePerCall(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	if err := r.Line("a"); err != nil {
		t.Fatal(err)
	}
	if err := r.Line("b"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "a\nb\n" {
		t.Errorf("output = %q", buf.String())
	}
}
