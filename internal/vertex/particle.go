package vertex

import (
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/vertex-source/pkg/utils"
)

// Particle identifies the emitted species. Mass is the rest mass in MeV.
type Particle struct {
	Name string
	Mass float64
}

// Rest masses in MeV (CODATA 2018).
var particles = map[string]Particle{
	"gamma":   {Name: "gamma", Mass: 0},
	"e-":      {Name: "e-", Mass: 0.51099895},
	"e+":      {Name: "e+", Mass: 0.51099895},
	"proton":  {Name: "proton", Mass: 938.27208816},
	"neutron": {Name: "neutron", Mass: 939.56542052},
	"alpha":   {Name: "alpha", Mass: 3727.3794066},
}

var particleAliases = map[string]string{
	"photon":   "gamma",
	"electron": "e-",
	"positron": "e+",
	"p":        "proton",
	"n":        "neutron",
}

// LookupParticle resolves a particle name (case-insensitive, common aliases
// accepted) to its rest mass.
func LookupParticle(name string) (Particle, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := particleAliases[key]; ok {
		key = alias
	}
	p, ok := particles[key]
	if !ok {
		return Particle{}, fmt.Errorf("%w: %q", ErrUnknownParticle, name)
	}
	return p, nil
}

// NewParticle returns the named particle, overriding the table mass when
// mass is non-nil. An unknown name is accepted only with an explicit mass.
func NewParticle(name string, mass *float64) (Particle, error) {
	if mass == nil {
		return LookupParticle(name)
	}
	if !utils.IsFinite(*mass) || *mass < 0 {
		return Particle{}, fmt.Errorf("%w: mass %g MeV for %q", ErrInvalidParticle, *mass, name)
	}
	p, err := LookupParticle(name)
	if err != nil {
		p = Particle{Name: name}
	}
	p.Mass = *mass
	return p, nil
}
