package layout

import (
	"math"
	"time"
)

// Vector is a 2D position or velocity in world units.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vector) Add(o Vector) Vector    { return Vector{v.X + o.X, v.Y + o.Y} }
func (v Vector) Sub(o Vector) Vector    { return Vector{v.X - o.X, v.Y - o.Y} }
func (v Vector) Scale(f float64) Vector { return Vector{v.X * f, v.Y * f} }
func (v Vector) Len() float64           { return math.Hypot(v.X, v.Y) }
func (v Vector) Angle() float64         { return math.Atan2(v.Y, v.X) }
func (v Vector) Dist(o Vector) float64  { return v.Sub(o).Len() }

// FrameDuration is the reference frame time all per-tick constants are tuned for.
const FrameDuration = time.Second / 60

// Config holds the force constants of the simulation.
type Config struct {
	ActiveDepth     int     `yaml:"active_depth"`
	LinkDistance    float64 `yaml:"link_distance"`
	LinkStrength    float64 `yaml:"link_strength"`
	Charge          float64 `yaml:"charge"`
	CollideRadius   float64 `yaml:"collide_radius"`
	CollideStrength float64 `yaml:"collide_strength"`
	CenterStrength  float64 `yaml:"center_strength"`
	VelocityDecay   float64 `yaml:"velocity_decay"`
	AlphaDecay      float64 `yaml:"alpha_decay"`
	AlphaMin        float64 `yaml:"alpha_min"`
	ReheatAlpha     float64 `yaml:"reheat_alpha"`
	DragStrength    float64 `yaml:"drag_strength"`
	DragFalloff     float64 `yaml:"drag_falloff"`
	MaxFrameScale   float64 `yaml:"max_frame_scale"`
}

// DefaultConfig returns the tuned defaults: loose springs, moderate
// repulsion and a decay that settles in a few seconds.
func DefaultConfig() Config {
	return Config{
		ActiveDepth:     7,
		LinkDistance:    90,
		LinkStrength:    0.08,
		Charge:          -220,
		CollideRadius:   18,
		CollideStrength: 0.7,
		CenterStrength:  0.05,
		VelocityDecay:   0.4,
		AlphaDecay:      0.0228,
		AlphaMin:        0.001,
		ReheatAlpha:     0.3,
		DragStrength:    0.25,
		DragFalloff:     120,
		MaxFrameScale:   3,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.ActiveDepth <= 0 {
		c.ActiveDepth = d.ActiveDepth
	}
	if c.LinkDistance <= 0 {
		c.LinkDistance = d.LinkDistance
	}
	if c.LinkStrength <= 0 {
		c.LinkStrength = d.LinkStrength
	}
	if c.Charge == 0 {
		c.Charge = d.Charge
	}
	if c.CollideRadius <= 0 {
		c.CollideRadius = d.CollideRadius
	}
	if c.CollideStrength <= 0 {
		c.CollideStrength = d.CollideStrength
	}
	if c.CenterStrength <= 0 {
		c.CenterStrength = d.CenterStrength
	}
	if c.VelocityDecay <= 0 {
		c.VelocityDecay = d.VelocityDecay
	}
	if c.AlphaDecay <= 0 {
		c.AlphaDecay = d.AlphaDecay
	}
	if c.AlphaMin <= 0 {
		c.AlphaMin = d.AlphaMin
	}
	if c.ReheatAlpha <= 0 {
		c.ReheatAlpha = d.ReheatAlpha
	}
	if c.DragStrength <= 0 {
		c.DragStrength = d.DragStrength
	}
	if c.DragFalloff <= 0 {
		c.DragFalloff = d.DragFalloff
	}
	if c.MaxFrameScale <= 0 {
		c.MaxFrameScale = d.MaxFrameScale
	}
	return c
}

// frameScale converts elapsed time into a multiple of FrameDuration.
func (c Config) frameScale(dt time.Duration) float64 {
	if dt <= 0 {
		return 0
	}
	return math.Min(float64(dt)/float64(FrameDuration), c.MaxFrameScale)
}

// pow1m returns (1-x)^n, the fraction kept after n frames of decay x.
func pow1m(x, n float64) float64 {
	return math.Pow(1-x, n)
}
