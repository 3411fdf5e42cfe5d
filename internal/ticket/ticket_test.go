package ticket

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	issuer := NewIssuer("unit-test-key", "gatherly-test")

	token, err := issuer.Encode("reg-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	regID, err := issuer.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "reg-123", regID)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	issuer := NewIssuer("unit-test-key", "gatherly-test")

	for _, code := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Decode(code)
		assert.ErrorIs(t, err, ErrMalformed, "code %q", code)
	}
}

func TestDecodeRejectsTampering(t *testing.T) {
	issuer := NewIssuer("unit-test-key", "gatherly-test")

	token, err := issuer.Encode("reg-123")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + ".AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	_, err = issuer.Decode(tampered)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeRejectsForeignKey(t *testing.T) {
	token, err := NewIssuer("key-one", "gatherly-test").Encode("reg-123")
	require.NoError(t, err)

	_, err = NewIssuer("key-two", "gatherly-test").Decode(token)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestQRPNG(t *testing.T) {
	issuer := NewIssuer("unit-test-key", "gatherly-test")
	token, err := issuer.Encode("reg-123")
	require.NoError(t, err)

	png, err := issuer.QRPNG(token, 256)
	require.NoError(t, err)
	require.Greater(t, len(png), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
