package schemas

import "image"

// Point is a location in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in pixel space. Right and Bottom are exclusive.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Contains reports whether p lies within the closed rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// ResolvedAction is the grounded click that awaits a human decision.
// It exists only between a successful resolution and the confirmation decision.
type ResolvedAction struct {
	CellIndex   int    `json:"cell_index"`
	Coordinates Point  `json:"coordinates"`
	Goal        string `json:"goal"`
}

// Decision is the terminal answer of the confirmation gate.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionDenied   Decision = "DENIED"
)

// Confirmation dialog options. Only OptionApprove authorizes an action.
const (
	OptionApprove = "Approve"
	OptionDeny    = "Deny"
)

// Screenshot is a captured frame of the screen.
// ScreenWidth and ScreenHeight hold the logical size of the screen the pointer
// operates in. Zero values mean the screen matches the image dimensions.
type Screenshot struct {
	Image        image.Image
	ScreenWidth  int
	ScreenHeight int
}

// VisionRequest is a single prompt with exactly one attached image.
type VisionRequest struct {
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
	Image    []byte `json:"-"`
	MIMEType string `json:"mime_type"`
}
