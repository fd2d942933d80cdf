package models

import "time"

// Category identifies one of the four stimulus inventories. The set is fixed
// by the experimental design.
type Category string

const (
	CategoryDysphoric Category = "dysphoric"
	CategoryThreat    Category = "threat"
	CategoryPositive  Category = "positive"
	CategoryFiller    Category = "filler"
)

// Categories lists every category in canonical order.
var Categories = []Category{CategoryDysphoric, CategoryThreat, CategoryPositive, CategoryFiller}

// EmotionalCategories are the three non-filler categories shown together in an
// image trial.
var EmotionalCategories = []Category{CategoryDysphoric, CategoryThreat, CategoryPositive}

// Quadrant labels one quarter of the viewport.
type Quadrant string

const (
	QuadrantTopLeft     Quadrant = "top_left"
	QuadrantTopRight    Quadrant = "top_right"
	QuadrantBottomLeft  Quadrant = "bottom_left"
	QuadrantBottomRight Quadrant = "bottom_right"
)

// Quadrants lists every quadrant in canonical order (row-major).
var Quadrants = []Quadrant{QuadrantTopLeft, QuadrantTopRight, QuadrantBottomLeft, QuadrantBottomRight}

// QuadrantAt maps a point to its quadrant given the viewport center.
// Samples exactly on a center line belong to the left/top side.
func QuadrantAt(x, y, centerX, centerY float64) Quadrant {
	left := x <= centerX
	top := y <= centerY
	switch {
	case left && top:
		return QuadrantTopLeft
	case !left && top:
		return QuadrantTopRight
	case left && !top:
		return QuadrantBottomLeft
	default:
		return QuadrantBottomRight
	}
}

// TrialType distinguishes the two trial compositions.
type TrialType string

const (
	TrialImage  TrialType = "image"
	TrialFiller TrialType = "filler"
)

// Placement assigns one image to one screen quadrant for the duration of a
// trial.
type Placement struct {
	Category Category `json:"category"`
	ImageID  string   `json:"imageId"`
	Quadrant Quadrant `json:"quadrant"`
}

// TrialSpec is the plan for a single trial: an image trial carries one
// placement per category, a filler trial four filler placements. Every
// quadrant is used exactly once.
type TrialSpec struct {
	Type       TrialType   `json:"type"`
	Placements []Placement `json:"placements"`
}

// PlacementIn returns the placement occupying the given quadrant, or nil.
func (s *TrialSpec) PlacementIn(q Quadrant) *Placement {
	for i := range s.Placements {
		if s.Placements[i].Quadrant == q {
			return &s.Placements[i]
		}
	}
	return nil
}

// PositionSample is a single cursor observation streamed by the position
// sampler while a trial is on screen. Timestamp is milliseconds since the
// sampling window opened.
type PositionSample struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp float64 `json:"timestamp"`
}

// Rect is an axis-aligned bounding rectangle in viewport pixels, as reported
// by the display surface for a quadrant's image element.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the point lies inside the rectangle. The left and
// top edges are inclusive so adjacent rectangles never claim the same point.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// TrialContext carries the identity and environment of one trial into the
// recorder. It is assembled by the scheduler immediately before recording.
type TrialContext struct {
	Trial      int       // global index, 1-based
	Round      int       // 1-based
	RoundTrial int       // 1-based within the round
	StartedAt  time.Time // wall clock at display onset
	EndedAt    time.Time // wall clock when sampling stopped
	ViewportW  int
	ViewportH  int
}
