package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "zkkyc/pkg/domain-errors"
)

func TestParseSubjectID(t *testing.T) {
	t.Run("valid UUID parses", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParseSubjectID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, raw.String(), id.String())
	})

	t.Run("empty string rejected with invalid_input", func(t *testing.T) {
		_, err := ParseSubjectID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("malformed UUID rejected", func(t *testing.T) {
		_, err := ParseSubjectID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("nil UUID parses but IsNil reports true", func(t *testing.T) {
		id, err := ParseSubjectID(uuid.Nil.String())
		require.NoError(t, err)
		assert.True(t, id.IsNil())
	})
}

func TestParseIssuerID(t *testing.T) {
	t.Run("accepts address-style identity", func(t *testing.T) {
		id, err := ParseIssuerID("did:key:z6MkpTHR8VNs")
		require.NoError(t, err)
		assert.Equal(t, "did:key:z6MkpTHR8VNs", id.String())
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseIssuerID("")
		require.Error(t, err)
	})
}

func TestNewCredentialID(t *testing.T) {
	a := NewCredentialID()
	b := NewCredentialID()
	assert.False(t, a.IsNil())
	assert.NotEqual(t, a, b)
}
