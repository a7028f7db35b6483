package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateRunID(t *testing.T) {
	id := GenerateRunID()
	require.True(t, strings.HasPrefix(id, "run-"), "got %s", id)
	require.NotEqual(t, id, GenerateRunID())
}
