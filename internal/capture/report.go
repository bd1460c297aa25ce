package capture

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/adverant/nexus/boll-capture-worker/internal/errors"
	"github.com/adverant/nexus/boll-capture-worker/internal/processor"
)

const timestampLayout = "2006-01-02 15:04:05"

const noneValue = "none"

// FormatReading renders one cycle's result line, stamped in UTC. A
// recognition without a complete reading prints "none" for every band.
func FormatReading(ts time.Time, rec *processor.Recognition) string {
	upper, middle, lower := noneValue, noneValue, noneValue
	if rec != nil && rec.Found && rec.Reading.Complete() {
		upper, middle, lower = rec.Reading.Upper, rec.Reading.Middle, rec.Reading.Lower
	}
	return fmt.Sprintf("[%s] BOLL 上轨:%s 中轨:%s 下轨:%s", ts.UTC().Format(timestampLayout), upper, middle, lower)
}

// FormatError renders the line for a failed cycle. Coded errors print
// their underlying cause; the code goes to the diagnostics log instead.
func FormatError(ts time.Time, err error) string {
	return fmt.Sprintf("[%s] 发生错误: %s", ts.UTC().Format(timestampLayout), errorMessage(err))
}

func errorMessage(err error) string {
	var pe *errors.ProcessingError
	if errors.As(err, &pe) && pe.Cause != nil {
		return pe.Cause.Error()
	}
	return err.Error()
}

// Reporter writes result lines, one per cycle
type Reporter struct {
	mu  sync.Mutex
	out io.Writer
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

func (r *Reporter) Line(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintln(r.out, line)
	return err
}
