package loader

import (
	"bufio"
	"fmt"
	"os"

	"github.com/andrew-lundgren/hveto/internal/segments"
	"github.com/andrew-lundgren/hveto/internal/trigger"
)

// WriteTriggers writes an ASCII trigger table with a header comment naming
// the columns. Times are written with microsecond precision.
func WriteTriggers(path string, kind trigger.Kind, trigs []trigger.Trigger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("loader: create table: %w", err)
	}
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# time snr %s\n", kind.Column())
	for _, tr := range trigs {
		fmt.Fprintf(w, "%.6f %g %g\n", tr.Time, tr.SNR, tr.Discriminant)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("loader: write table: %w", err)
	}
	return f.Close()
}

// WriteSegments writes a two-column "start end" segment list.
func WriteSegments(path string, spans segments.List) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("loader: create segments: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, s := range spans {
		fmt.Fprintf(w, "%.6f %.6f\n", s.Start, s.End)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("loader: write segments: %w", err)
	}
	return f.Close()
}
