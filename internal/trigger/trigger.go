package trigger

import (
	"fmt"
	"sort"

	"github.com/andrew-lundgren/hveto/internal/segments"
)

// Trigger is one detection event. Time is GPS seconds with sub-second
// precision, SNR is the signal-to-noise ratio, and Discriminant is the
// channel-kind-specific parameter (peak frequency or chirp mass).
type Trigger struct {
	Time         float64
	SNR          float64
	Discriminant float64
}

// Kind identifies which discriminant a channel's triggers carry.
type Kind int

const (
	// KindFrequency marks channels whose discriminant is peak frequency (Hz).
	KindFrequency Kind = iota

	// KindChirpMass marks channels whose discriminant is a chirp-mass-like
	// template parameter (solar masses).
	KindChirpMass
)

// String returns the kind's configuration name.
func (k Kind) String() string {
	switch k {
	case KindFrequency:
		return "frequency"
	case KindChirpMass:
		return "mchirp"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Column returns the trigger-table column header for the kind's discriminant.
func (k Kind) Column() string {
	return k.String()
}

// ParseKind maps a configuration string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "frequency", "":
		return KindFrequency, nil
	case "mchirp", "chirpmass":
		return KindChirpMass, nil
	default:
		return 0, fmt.Errorf("trigger: unknown kind %q", s)
	}
}

// Channel is a named trigger source. Exactly one channel per analysis is
// primary; all others are auxiliary noise witnesses.
type Channel struct {
	Name string
	Kind Kind

	// Live is the current trigger set, sorted by time. It shrinks as vetoes
	// are applied and is never grown back.
	Live []Trigger

	// Original is the trigger set as loaded, retained for accounting.
	Original []Trigger
}

// NewChannel creates a Channel from trigs, sorting them by time. The input
// slice is copied; both Live and Original start identical.
func NewChannel(name string, kind Kind, trigs []Trigger) *Channel {
	sorted := make([]Trigger, len(trigs))
	copy(sorted, trigs)
	SortByTime(sorted)

	live := make([]Trigger, len(sorted))
	copy(live, sorted)

	return &Channel{Name: name, Kind: kind, Live: live, Original: sorted}
}

// SortByTime sorts trigs ascending by timestamp in place.
func SortByTime(trigs []Trigger) {
	sort.Slice(trigs, func(i, j int) bool { return trigs[i].Time < trigs[j].Time })
}

// Times projects the timestamps of trigs into a new slice, preserving order.
func Times(trigs []Trigger) []float64 {
	out := make([]float64, len(trigs))
	for i, tr := range trigs {
		out[i] = tr.Time
	}
	return out
}

// AboveSNR returns the triggers with SNR >= threshold, preserving order.
func AboveSNR(trigs []Trigger, threshold float64) []Trigger {
	var out []Trigger
	for _, tr := range trigs {
		if tr.SNR >= threshold {
			out = append(out, tr)
		}
	}
	return out
}

// Within returns the triggers whose timestamps fall inside spans.
func Within(trigs []Trigger, spans segments.List) []Trigger {
	inside, _ := Partition(trigs, spans)
	return inside
}

// Partition splits trigs by span membership, preserving order in both
// halves. Veto application keeps outside and discards inside.
func Partition(trigs []Trigger, spans segments.List) (inside, outside []Trigger) {
	for _, tr := range trigs {
		if spans.Contains(tr.Time) {
			inside = append(inside, tr)
		} else {
			outside = append(outside, tr)
		}
	}
	return inside, outside
}
