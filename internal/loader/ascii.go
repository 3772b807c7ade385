package loader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/andrew-lundgren/hveto/internal/trigger"
)

// asciiLoader reads whitespace-separated tables with columns
// time, snr, discriminant. The discriminant column is optional.
type asciiLoader struct {
	path string
}

func (l *asciiLoader) Load() ([]trigger.Trigger, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	var trigs []trigger.Trigger
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s line %d: want at least 2 columns, got %d", l.path, lineNo, len(fields))
		}
		tr, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", l.path, lineNo, err)
		}
		trigs = append(trigs, tr)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	return trigs, nil
}

// parseRow converts one table row into a Trigger. A missing third column
// leaves the discriminant at zero.
func parseRow(fields []string) (trigger.Trigger, error) {
	var tr trigger.Trigger
	var err error
	if tr.Time, err = parseFloat(fields[0]); err != nil {
		return tr, fmt.Errorf("time: %w", err)
	}
	if tr.SNR, err = parseFloat(fields[1]); err != nil {
		return tr, fmt.Errorf("snr: %w", err)
	}
	if len(fields) > 2 {
		if tr.Discriminant, err = parseFloat(fields[2]); err != nil {
			return tr, fmt.Errorf("discriminant: %w", err)
		}
	}
	return tr, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return v, nil
}
