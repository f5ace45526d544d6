package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/gpgpu/layout"
)

// ValueCSV describes where one value lives in a layout.
type ValueCSV struct {
	Value      int    `csv:"value"`
	Name       string `csv:"name"`
	Channels   int    `csv:"channels"`
	Texture    int    `csv:"texture"`
	Pass       int    `csv:"pass"`
	Attachment int    `csv:"attachment"`
	Swizzle    string `csv:"swizzle"`
	Derive     string `csv:"derive"`
	Reads      int    `csv:"reads"`
}

// SampleCSV is one entry of a pass's sample list.
type SampleCSV struct {
	Pass    int `csv:"pass"`
	Index   int `csv:"index"`
	Step    int `csv:"step"`
	Texture int `csv:"texture"`
}

// ValueRecords lists every value of a layout in index order.
func ValueRecords(m *layout.Maps) []ValueCSV {
	rows := make([]ValueCSV, len(m.Values))
	for v, channels := range m.Values {
		row := ValueCSV{
			Value:      v,
			Name:       m.Name(v),
			Channels:   channels,
			Texture:    m.ValueToTexture[v],
			Pass:       m.ValueToPass[v],
			Attachment: m.Attachment(v),
			Swizzle:    m.Swizzle(v),
			Reads:      len(m.Edges(v)),
		}
		if v < len(m.Derives) && m.Derives[v] != nil {
			row.Derive = m.Derives[v].String()
		}
		rows[v] = row
	}
	return rows
}

// SampleRecords lists every pass's samples in sample order.
func SampleRecords(m *layout.Maps) []SampleCSV {
	var rows []SampleCSV
	for pass, samples := range m.Samples {
		for i, s := range samples {
			rows = append(rows, SampleCSV{Pass: pass, Index: i, Step: s.Step, Texture: s.Texture})
		}
	}
	return rows
}

// LayoutSummary is a loggable overview of a layout.
type LayoutSummary struct {
	Values    int
	Textures  int
	Passes    int
	Samples   int
	StepsPast int
	Key       uint64
}

// Summarize counts a layout's resources.
func Summarize(m *layout.Maps) LayoutSummary {
	s := LayoutSummary{
		Values:    len(m.Values),
		Textures:  len(m.Textures),
		Passes:    len(m.Passes),
		StepsPast: m.StepsPast,
		Key:       m.Key,
	}
	for _, samples := range m.Samples {
		s.Samples += len(samples)
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s LayoutSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("values", s.Values),
		slog.Int("textures", s.Textures),
		slog.Int("passes", s.Passes),
		slog.Int("samples", s.Samples),
		slog.Int("steps_past", s.StepsPast),
		slog.Uint64("key", s.Key),
	)
}
