package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/andrew-lundgren/hveto/internal/trigger"
)

// csvLoader reads CSV tables. If the first record is not numeric it is
// treated as a header and columns are matched by name: "time", "snr" and
// the kind's discriminant column. Headerless files use the fixed order
// time, snr, discriminant.
type csvLoader struct {
	path string
	kind trigger.Kind
}

func (l *csvLoader) Load() ([]trigger.Trigger, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: read csv: %w", l.path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	timeCol, snrCol, discCol := 0, 1, 2
	start := 0
	if _, err := strconv.ParseFloat(records[0][0], 64); err != nil {
		timeCol, snrCol, discCol, err = l.mapHeader(records[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", l.path, err)
		}
		start = 1
	}

	var trigs []trigger.Trigger
	for i, rec := range records[start:] {
		if timeCol >= len(rec) || snrCol >= len(rec) {
			return nil, fmt.Errorf("%s record %d: too few columns (%d)", l.path, start+i+1, len(rec))
		}
		fields := []string{rec[timeCol], rec[snrCol]}
		if discCol >= 0 && discCol < len(rec) {
			fields = append(fields, rec[discCol])
		}
		tr, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("%s record %d: %w", l.path, start+i+1, err)
		}
		trigs = append(trigs, tr)
	}
	return trigs, nil
}

// mapHeader resolves column indices from a header record. The discriminant
// column is optional; -1 marks it absent.
func (l *csvLoader) mapHeader(header []string) (timeCol, snrCol, discCol int, err error) {
	timeCol, snrCol, discCol = -1, -1, -1
	for i, name := range header {
		switch name {
		case "time":
			timeCol = i
		case "snr":
			snrCol = i
		case l.kind.Column():
			discCol = i
		}
	}
	if timeCol < 0 {
		return 0, 0, 0, fmt.Errorf("header: missing column %q", "time")
	}
	if snrCol < 0 {
		return 0, 0, 0, fmt.Errorf("header: missing column %q", "snr")
	}
	return timeCol, snrCol, discCol, nil
}
