package zk

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAttributes() AttributeSet {
	return AttributeSet{
		FullName:         "Ada Lovelace",
		BirthDate:        time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
		Jurisdiction:     "DE",
		DocumentID:       "L01X00T47",
		DocumentIssuedAt: time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestComputeCommitment(t *testing.T) {
	blinding, err := NewBlinding()
	require.NoError(t, err)

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		c1, err := ComputeCommitment(testAttributes(), blinding)
		require.NoError(t, err)
		c2, err := ComputeCommitment(testAttributes(), blinding)
		require.NoError(t, err)
		assert.Equal(t, c1, c2)
	})

	t.Run("binding: different attributes diverge", func(t *testing.T) {
		c1, err := ComputeCommitment(testAttributes(), blinding)
		require.NoError(t, err)

		other := testAttributes()
		other.BirthDate = other.BirthDate.AddDate(0, 0, 1)
		c2, err := ComputeCommitment(other, blinding)
		require.NoError(t, err)
		assert.NotEqual(t, c1, c2)
	})

	t.Run("hiding: different blinding diverges on same attributes", func(t *testing.T) {
		b2, err := NewBlinding()
		require.NoError(t, err)
		c1, err := ComputeCommitment(testAttributes(), blinding)
		require.NoError(t, err)
		c2, err := ComputeCommitment(testAttributes(), b2)
		require.NoError(t, err)
		assert.NotEqual(t, c1, c2)
	})

	t.Run("commitment does not embed raw attribute values", func(t *testing.T) {
		attrs := testAttributes()
		c, err := ComputeCommitment(attrs, blinding)
		require.NoError(t, err)
		lower := strings.ToLower(string(c))
		assert.NotContains(t, lower, strings.ToLower(attrs.DocumentID))
		assert.NotContains(t, lower, strings.ToLower(attrs.FullName))
	})

	t.Run("rejects malformed blinding", func(t *testing.T) {
		_, err := ComputeCommitment(testAttributes(), "zz-not-hex")
		require.Error(t, err)
	})
}

func TestDeriveNullifier(t *testing.T) {
	blinding, err := NewBlinding()
	require.NoError(t, err)
	reqHash := EncodeElement(HashToField([]byte("minAge=18")))

	t.Run("deterministic", func(t *testing.T) {
		n1, err := DeriveNullifier(blinding, reqHash)
		require.NoError(t, err)
		n2, err := DeriveNullifier(blinding, reqHash)
		require.NoError(t, err)
		assert.Equal(t, n1, n2)
	})

	t.Run("different requirement set diverges", func(t *testing.T) {
		n1, err := DeriveNullifier(blinding, reqHash)
		require.NoError(t, err)
		n2, err := DeriveNullifier(blinding, EncodeElement(HashToField([]byte("minAge=21"))))
		require.NoError(t, err)
		assert.NotEqual(t, n1, n2)
	})

	t.Run("different blinding diverges", func(t *testing.T) {
		b2, err := NewBlinding()
		require.NoError(t, err)
		n1, err := DeriveNullifier(blinding, reqHash)
		require.NoError(t, err)
		n2, err := DeriveNullifier(b2, reqHash)
		require.NoError(t, err)
		assert.NotEqual(t, n1, n2)
	})

	t.Run("nullifier differs from commitment namespace", func(t *testing.T) {
		// Same blinding, but the domain tag keeps derivations apart.
		n, err := DeriveNullifier(blinding, reqHash)
		require.NoError(t, err)
		c, err := ComputeCommitment(testAttributes(), blinding)
		require.NoError(t, err)
		assert.NotEqual(t, FieldElement(n), FieldElement(c))
	})
}

func TestDayNumber(t *testing.T) {
	t.Run("pre-1970 dates stay positive", func(t *testing.T) {
		d := DayNumber(time.Date(1931, 3, 1, 0, 0, 0, 0, time.UTC))
		assert.Positive(t, d)
	})

	t.Run("monotonic", func(t *testing.T) {
		earlier := DayNumber(time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC))
		later := DayNumber(time.Date(1990, 6, 16, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, earlier+1, later)
	})
}

func TestEncodeDecodeElement(t *testing.T) {
	fe := HashToField([]byte("round-trip"))
	encoded := EncodeElement(fe)
	decoded, err := DecodeElement(encoded)
	require.NoError(t, err)
	assert.True(t, fe.Equal(&decoded))

	_, err = DecodeElement("not-hex")
	assert.Error(t, err)
	_, err = DecodeElement("abcd") // too short
	assert.Error(t, err)
}
