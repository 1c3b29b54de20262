package calendar

import (
	"fmt"
	"math"
	"sort"

	"confdash/internal/model"
)

// Options tunes marker placement geometry. Zero values take defaults.
type Options struct {
	// BaseOffset is the vertical distance from the wave anchor to layer 0.
	BaseOffset float64
	// LayerStep is the additional vertical distance per layer.
	LayerStep float64
	// JitterStep scales the 3-way cyclic horizontal jitter.
	JitterStep float64
	// Amplitude is the wave's vertical half-height.
	Amplitude float64
}

func (o Options) withDefaults() Options {
	if o.BaseOffset == 0 {
		o.BaseOffset = 40
	}
	if o.LayerStep == 0 {
		o.LayerStep = 28
	}
	if o.JitterStep == 0 {
		o.JitterStep = 14
	}
	if o.Amplitude == 0 {
		o.Amplitude = 60
	}
	return o
}

// Point is a 2D coordinate in the calendar's drawing space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Marker is one conference's placed slot plus its connector curve.
type Marker struct {
	Conference model.CalendarConference `json:"conference"`
	Pos        Point                    `json:"pos"`
	Side       string                   `json:"side"` // "top" or "bottom"
	Layer      int                      `json:"layer"`
	// Path is the cubic Bezier connector from the month anchor to the marker.
	Path string `json:"path"`
}

// MonthLayout groups the placed markers of one month bucket.
type MonthLayout struct {
	Month   int      `json:"month"`
	Anchor  Point    `json:"anchor"`
	Markers []Marker `json:"markers"`
}

// Wave is the generated path conferences are positioned along, with one
// anchor point per month.
type Wave struct {
	Path    string  `json:"path"`
	Anchors []Point `json:"anchors"`
}

// Layout buckets entries by month and assigns each a non-overlapping slot
// along a generated wave path.
//
// Within a month, candidates are sorted by deadline ascending (stable, so
// equal deadlines keep their input order), alternate top/bottom by index
// parity, and climb one vertical layer every two entries on a side. A 3-way
// cyclic horizontal jitter spreads columns; it is a heuristic, and very
// dense months may still overlap visually.
func Layout(entries []model.CalendarConference, width, height float64, opts Options) (Wave, []MonthLayout) {
	opts = opts.withDefaults()
	wave := wavePath(width, height, opts.Amplitude)

	buckets := make(map[int][]model.CalendarConference)
	for _, e := range entries {
		if e.Month < 1 || e.Month > 12 {
			continue
		}
		buckets[e.Month] = append(buckets[e.Month], e)
	}

	months := make([]MonthLayout, 0, len(buckets))
	for month := 1; month <= 12; month++ {
		confs, ok := buckets[month]
		if !ok {
			continue
		}
		anchor := wave.Anchors[month-1]
		months = append(months, MonthLayout{
			Month:   month,
			Anchor:  anchor,
			Markers: placeMonth(anchor, confs, opts),
		})
	}
	return wave, months
}

// placeMonth assigns slots for one month bucket.
func placeMonth(anchor Point, confs []model.CalendarConference, opts Options) []Marker {
	sorted := make([]model.CalendarConference, len(confs))
	copy(sorted, confs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Deadline.Before(sorted[j].Deadline)
	})

	markers := make([]Marker, 0, len(sorted))
	for i, c := range sorted {
		top := i%2 == 0
		layer := i / 2
		dy := opts.BaseOffset + float64(layer)*opts.LayerStep
		pos := Point{
			X: anchor.X + float64(i%3-1)*opts.JitterStep,
			Y: anchor.Y + dy,
		}
		side := "bottom"
		if top {
			side = "top"
			pos.Y = anchor.Y - dy
		}
		markers = append(markers, Marker{
			Conference: c,
			Pos:        pos,
			Side:       side,
			Layer:      layer,
			Path:       connectorPath(anchor, pos),
		})
	}
	return markers
}

// nearZeroDX is the horizontal displacement below which a connector is
// treated as near-vertical and curved off the vertical delta instead.
const nearZeroDX = 1.0

// connectorPath emits the cubic Bezier curve from the month anchor to a
// marker. The control-point formula switches on whether the horizontal
// displacement is near zero, which keeps curves readable both when markers
// sit directly above the anchor and when they are jittered sideways.
func connectorPath(anchor, marker Point) string {
	dx := marker.X - anchor.X
	dy := marker.Y - anchor.Y

	var c1, c2 Point
	if math.Abs(dx) < nearZeroDX {
		// Near-vertical: bow the curve using the vertical delta.
		c1 = Point{X: anchor.X + dy*0.25, Y: anchor.Y + dy*0.5}
		c2 = Point{X: marker.X - dy*0.25, Y: marker.Y - dy*0.5}
	} else {
		c1 = Point{X: anchor.X + dx*0.5, Y: anchor.Y + dy*0.2}
		c2 = Point{X: anchor.X + dx*0.5, Y: marker.Y - dy*0.2}
	}
	return fmt.Sprintf("M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f",
		anchor.X, anchor.Y, c1.X, c1.Y, c2.X, c2.Y, marker.X, marker.Y)
}

// wavePath generates a single-period sine path across the drawing width
// with one anchor per month at the curve's local position.
func wavePath(width, height, amplitude float64) Wave {
	mid := height / 2
	anchors := make([]Point, 12)
	for i := range anchors {
		x := width * (float64(i) + 0.5) / 12
		anchors[i] = Point{
			X: x,
			Y: mid + amplitude*math.Sin(2*math.Pi*x/width),
		}
	}

	// Smooth cubic segments between consecutive anchors.
	path := fmt.Sprintf("M %.1f %.1f", anchors[0].X, anchors[0].Y)
	for i := 1; i < len(anchors); i++ {
		prev, cur := anchors[i-1], anchors[i]
		midX := (prev.X + cur.X) / 2
		path += fmt.Sprintf(" C %.1f %.1f, %.1f %.1f, %.1f %.1f",
			midX, prev.Y, midX, cur.Y, cur.X, cur.Y)
	}
	return Wave{Path: path, Anchors: anchors}
}
