package mapview

import "github.com/richxcame/map-directions/pkg/geo"

// Role identifies what a marker stands for.
type Role string

const (
	RoleOrigin      Role = "origin"
	RoleDestination Role = "destination"
	RoleWaypoint    Role = "waypoint"
	RoleExtra       Role = "extra"
)

// Marker defaults.
const (
	DefaultPinColor    = "red"
	DefaultImageWidth  = 30
	DefaultImageHeight = 30
	DefaultAnchorX     = 0.5
	DefaultAnchorY     = 0.25
)

// CustomMarker overrides the default look of one marker.
type CustomMarker struct {
	PinColor      string   `json:"pin_color,omitempty"`
	Image         string   `json:"image,omitempty"`
	Width         int      `json:"width,omitempty"`
	Height        int      `json:"height,omitempty"`
	AnchorX       *float64 `json:"anchor_x,omitempty"`
	AnchorY       *float64 `json:"anchor_y,omitempty"`
	CenterOffsetX *float64 `json:"center_offset_x,omitempty"`
	CenterOffsetY *float64 `json:"center_offset_y,omitempty"`
	Title         string   `json:"title,omitempty"`
}

// Offset is a 2D offset, used for anchors and center offsets.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is an image size in points.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Marker is the fully resolved description of one map marker.
type Marker struct {
	Key          string     `json:"key"`
	Role         Role       `json:"role"`
	Coordinate   geo.LatLng `json:"coordinate"`
	PinColor     string     `json:"pin_color"`
	Title        string     `json:"title"`
	Rotation     float64    `json:"rotation"`
	Image        string     `json:"image,omitempty"`
	ImageSize    *Size      `json:"image_size,omitempty"`
	Anchor       *Offset    `json:"anchor,omitempty"`
	CenterOffset *Offset    `json:"center_offset,omitempty"`
}

// NewMarker resolves p into a marker, filling every unset property with its
// default. Anchor, center offset and image size only apply to image markers.
func NewMarker(role Role, key string, p Point) Marker {
	m := Marker{
		Key:        key,
		Role:       role,
		Coordinate: p.LatLng,
		PinColor:   DefaultPinColor,
		Title:      string(role),
		Rotation:   p.Heading,
	}

	c := p.CustomMarker
	if c == nil {
		return m
	}
	if c.PinColor != "" {
		m.PinColor = c.PinColor
	}
	if c.Title != "" {
		m.Title = c.Title
	}
	if c.Image == "" {
		return m
	}

	m.Image = c.Image
	m.ImageSize = &Size{Width: orInt(c.Width, DefaultImageWidth), Height: orInt(c.Height, DefaultImageHeight)}
	m.Anchor = &Offset{X: orFloat(c.AnchorX, DefaultAnchorX), Y: orFloat(c.AnchorY, DefaultAnchorY)}
	m.CenterOffset = &Offset{X: orFloat(c.CenterOffsetX, 0), Y: orFloat(c.CenterOffsetY, 0)}
	return m
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orFloat(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}
