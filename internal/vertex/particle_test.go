package vertex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupParticle(t *testing.T) {
	tests := []struct {
		name string
		want Particle
	}{
		{"gamma", Particle{Name: "gamma", Mass: 0}},
		{"Photon", Particle{Name: "gamma", Mass: 0}},
		{"e-", Particle{Name: "e-", Mass: 0.51099895}},
		{"positron", Particle{Name: "e+", Mass: 0.51099895}},
		{" proton ", Particle{Name: "proton", Mass: 938.27208816}},
		{"n", Particle{Name: "neutron", Mass: 939.56542052}},
		{"alpha", Particle{Name: "alpha", Mass: 3727.3794066}},
	}
	for _, tt := range tests {
		got, err := LookupParticle(tt.name)
		require.NoError(t, err, tt.name)
		require.Equal(t, tt.want, got)
	}

	_, err := LookupParticle("graviton")
	require.ErrorIs(t, err, ErrUnknownParticle)
}

func TestNewParticle(t *testing.T) {
	p, err := NewParticle("proton", nil)
	require.NoError(t, err)
	require.Equal(t, 938.27208816, p.Mass)

	mass := 938.0
	p, err = NewParticle("proton", &mass)
	require.NoError(t, err)
	require.Equal(t, Particle{Name: "proton", Mass: 938}, p)

	mass = 105.6583755
	p, err = NewParticle("mu-", &mass)
	require.NoError(t, err)
	require.Equal(t, Particle{Name: "mu-", Mass: 105.6583755}, p)

	_, err = NewParticle("mu-", nil)
	require.ErrorIs(t, err, ErrUnknownParticle)

	mass = -1
	_, err = NewParticle("gamma", &mass)
	require.ErrorIs(t, err, ErrInvalidParticle)
}
