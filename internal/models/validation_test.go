package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBaseline() *Baseline {
	return &Baseline{
		Version:     BaselineVersion,
		Created:     1000,
		LastUpdated: 2000,
		Followers: map[string]int64{
			identity(1): 500,
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, validBaseline().Validate())
}

func TestValidate_Nil(t *testing.T) {
	var b *Baseline
	assert.ErrorIs(t, b.Validate(), ErrInvalidBaseline)
}

func TestValidate_ReservedKeys(t *testing.T) {
	for _, key := range []string{"__proto__", "constructor", "prototype"} {
		b := validBaseline()
		b.Followers[key] = 100
		assert.ErrorIs(t, b.Validate(), ErrInvalidBaseline, "key %s must be rejected", key)
	}
}

func TestValidate_MalformedFollowerKey(t *testing.T) {
	b := validBaseline()
	b.Followers["not-hex"] = 100
	assert.ErrorIs(t, b.Validate(), ErrInvalidBaseline)
}

func TestValidate_NegativeTimestamps(t *testing.T) {
	b := validBaseline()
	b.Created = -1
	assert.ErrorIs(t, b.Validate(), ErrInvalidBaseline)

	b = validBaseline()
	b.Followers[identity(1)] = -5
	assert.ErrorIs(t, b.Validate(), ErrInvalidBaseline)
}

func TestValidate_LastUpdatedBeforeCreated(t *testing.T) {
	b := validBaseline()
	b.LastUpdated = b.Created - 1
	assert.ErrorIs(t, b.Validate(), ErrInvalidBaseline)
}

func TestValidate_UnsupportedVersion(t *testing.T) {
	b := validBaseline()
	b.Version = 2
	assert.ErrorIs(t, b.Validate(), ErrInvalidBaseline)
}

func TestValidate_MissingFollowers(t *testing.T) {
	b := validBaseline()
	b.Followers = nil
	assert.ErrorIs(t, b.Validate(), ErrInvalidBaseline)
}

func TestValidIdentity(t *testing.T) {
	assert.True(t, ValidIdentity(identity(7)))
	assert.True(t, ValidIdentity(strings.Repeat("ab", 32)))
	assert.False(t, ValidIdentity(""))
	assert.False(t, ValidIdentity(strings.Repeat("a", 63)))
	assert.False(t, ValidIdentity(strings.Repeat("a", 65)))
	assert.False(t, ValidIdentity(strings.Repeat("A", 64)))
	assert.False(t, ValidIdentity(strings.Repeat("g", 64)))
}
