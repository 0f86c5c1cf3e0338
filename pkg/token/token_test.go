package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DriverOnboard/pkg/errors"
)

func TestGenerateAndValidate(t *testing.T) {
	g := New("secret", time.Hour)

	tok, expiresIn, err := g.Generate("42", "+919876543210")
	require.NoError(t, err)
	assert.Equal(t, 3600, expiresIn)

	did, err := g.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", did)
}

func TestValidateRejectsOtherSecret(t *testing.T) {
	tok, _, err := New("secret", time.Hour).Generate("42", "")
	require.NoError(t, err)

	_, err = New("other", time.Hour).Validate(tok)
	assert.ErrorIs(t, err, errors.Unauthorized)
}

func TestValidateRejectsExpired(t *testing.T) {
	g := New("secret", time.Minute)
	g.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, _, err := g.Generate("42", "")
	require.NoError(t, err)

	g.now = time.Now
	_, err = g.Validate(tok)
	assert.ErrorIs(t, err, errors.Unauthorized)
}

func TestNilGenerator(t *testing.T) {
	var g *Generator
	_, _, err := g.Generate("42", "")
	assert.ErrorIs(t, err, ErrNotInitialized)
}
