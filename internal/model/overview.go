package model

import (
	"time"
)

// PeaksFunc renders min/max pairs for [start,end] seconds at width columns.
type PeaksFunc func(start, end float64, width int) ([]float64, error)

// Overview is the zoomable waveform strip under the dot matrix. Times are in
// seconds.
type Overview struct {
	File     string
	Start    float64
	End      float64
	Duration float64
	Loading  bool

	peaks PeaksFunc
	// cached render
	data  []float64
	key   [2]float64
	width int
}

// ResetOverview shows the whole of path. peaks may be nil while loading.
func (m *Model) ResetOverview(path string, d time.Duration, peaks PeaksFunc) {
	m.Overview = Overview{
		File:     path,
		End:      d.Seconds(),
		Duration: d.Seconds(),
		Loading:  peaks == nil && path != "",
		peaks:    peaks,
	}
}

func (m *Model) ClearOverview() {
	m.Overview = Overview{}
}

// Ready reports whether peaks can be drawn.
func (o *Overview) Ready() bool {
	return o.peaks != nil && o.Duration > 0
}

// Peaks returns min/max pairs for the current window, regenerating only when
// the window or width changed.
func (o *Overview) Peaks(width int) ([]float64, error) {
	if !o.Ready() || width < 1 {
		return nil, nil
	}
	key := [2]float64{o.Start, o.End}
	if o.data != nil && o.key == key && o.width == width {
		return o.data, nil
	}
	data, err := o.peaks(o.Start, o.End, width)
	if err != nil {
		return nil, err
	}
	o.data, o.key, o.width = data, key, width
	return data, nil
}

// ZoomOverview shrinks the window by 20% or grows it by 25%, nudging its
// centre 30% of the way toward the playhead each time.
func (m *Model) ZoomOverview(zoomIn bool) {
	o := &m.Overview
	if o.Duration <= 0 {
		return
	}
	span := o.End - o.Start
	center := (o.Start + o.End) / 2
	center += (m.Session.Position().Seconds() - center) * 0.3

	if zoomIn {
		span *= 0.8
	} else {
		span *= 1.25
	}
	span = min(span, o.Duration)
	o.Start = center - span/2
	o.End = center + span/2
	o.clamp(span)
}

// FollowPlayhead jogs the window so pos stays visible, moving by half a
// window at a time.
func (m *Model) FollowPlayhead(pos float64) {
	o := &m.Overview
	if o.Duration <= 0 {
		return
	}
	span := o.End - o.Start
	if span >= o.Duration || (pos >= o.Start && pos <= o.End) {
		return
	}
	o.Start = pos - span/2
	o.End = o.Start + span
	o.clamp(span)
}

func (o *Overview) clamp(span float64) {
	if o.Start < 0 {
		o.Start = 0
		o.End = span
	}
	if o.End > o.Duration {
		o.End = o.Duration
		o.Start = max(o.End-span, 0)
	}
}

// PlayheadColumn maps pos to a column of a width-wide strip, or -1 when it
// is outside the window.
func (o *Overview) PlayheadColumn(pos float64, width int) int {
	span := o.End - o.Start
	if span <= 0 || width < 1 || pos < o.Start || pos > o.End {
		return -1
	}
	return min(int(float64(width-1)*(pos-o.Start)/span+0.5), width-1)
}
