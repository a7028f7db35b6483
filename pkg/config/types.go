package config

// Config represents the vertex source configuration
type Config struct {
	LogLevel  string     `yaml:"log_level"`
	Seed      uint64     `yaml:"seed"`
	Source    Source     `yaml:"source"`
	Particle  Particle   `yaml:"particle"`
	Weight    *Weight    `yaml:"weight,omitempty"`
	Placement *Placement `yaml:"placement,omitempty"`
	Clock     *Clock     `yaml:"clock,omitempty"`
	Run       *Run       `yaml:"run,omitempty"`
	Server    *Server    `yaml:"server,omitempty"`
}

// Source identifies the emission distribution data
type Source struct {
	Path string `yaml:"path"`
}

// Particle selects the emitted species. MassMeV overrides the built-in
// rest-mass table when set.
type Particle struct {
	Name    string   `yaml:"name"`
	MassMeV *float64 `yaml:"mass_mev,omitempty"`
}

// Weight selects the generation weight policy
type Weight struct {
	Policy string   `yaml:"policy"`          // fixed or yield
	Value  *float64 `yaml:"value,omitempty"` // fixed policy only, default 1.0
}

// Placement is the rigid transform of the volume the source is attached to
type Placement struct {
	Translation []float64 `yaml:"translation"` // mm
	Rotation    *Rotation `yaml:"rotation,omitempty"`
}

// Rotation is an axis-angle rotation
type Rotation struct {
	Axis     []float64 `yaml:"axis"`
	AngleDeg float64   `yaml:"angle_deg"`
}

// Clock configures emission times
type Clock struct {
	Type       string  `yaml:"type"` // constant, uniform, periodic or poisson
	StartNs    float64 `yaml:"start_ns"`
	ActivityBq float64 `yaml:"activity_bq"` // poisson only
	IntervalNs float64 `yaml:"interval_ns"` // periodic only
	WindowNs   float64 `yaml:"window_ns"`   // uniform only
}

// Run configures a batch generation run
type Run struct {
	Events int `yaml:"events"`
}

// Server configures the vertexd listeners
type Server struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`
	// RateLimitRPS caps generate requests per client per second; 0 disables
	RateLimitRPS int `yaml:"rate_limit_rps"`
}
