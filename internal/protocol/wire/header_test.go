package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	types := []MessageType{
		MsgConnectRequest, MsgListResponse, MsgUploadData,
		MsgDownloadComplete, MsgErrorResponse, MsgDisconnect, MessageType(0x42),
	}
	lengths := []uint32{0, 1, 255, 4096, 1 << 20, 0xFFFFFFFF}

	for _, typ := range types {
		for _, length := range lengths {
			h := NewHeader(typ, length)
			b := EncodeHeader(h)

			got, err := DecodeHeader(b[:])
			require.NoError(t, err)
			assert.Equal(t, h, got)
		}
	}
}

func TestEncodeHeaderLayout(t *testing.T) {
	b := EncodeHeader(NewHeader(MsgUploadRequest, 0x01020304))

	assert.Equal(t, [HeaderSize]byte{0x46, 0x53, 0x01, 0x05, 0x01, 0x02, 0x03, 0x04}, b)
}

func TestDecodeHeader(t *testing.T) {
	t.Run("ShortBuffer", func(t *testing.T) {
		for n := range HeaderSize {
			_, err := DecodeHeader(make([]byte, n))
			assert.ErrorIs(t, err, ErrMalformedHeader, "length %d", n)
		}
	})

	t.Run("BadMagic", func(t *testing.T) {
		b := EncodeHeader(NewHeader(MsgListRequest, 0))
		b[0] = 0x00

		_, err := DecodeHeader(b[:])
		assert.ErrorIs(t, err, ErrMalformedHeader)
	})

	t.Run("VersionIsStoredNotChecked", func(t *testing.T) {
		h := NewHeader(MsgListRequest, 0)
		h.Version = 9
		b := EncodeHeader(h)

		got, err := DecodeHeader(b[:])
		require.NoError(t, err)
		assert.Equal(t, uint8(9), got.Version)
	})

	t.Run("IgnoresTrailingBytes", func(t *testing.T) {
		b := EncodeHeader(NewHeader(MsgDeleteRequest, 7))
		buf := append(b[:], 0xAA, 0xBB)

		got, err := DecodeHeader(buf)
		require.NoError(t, err)
		assert.Equal(t, uint32(7), got.Length)
	})
}

func TestMessageTypeString(t *testing.T) {
	assert.Equal(t, "CONNECT_REQUEST", MsgConnectRequest.String())
	assert.Equal(t, "ERROR_RESPONSE", MsgErrorResponse.String())
	assert.Equal(t, "UNKNOWN(0x42)", MessageType(0x42).String())
	assert.True(t, MsgDisconnect.Known())
	assert.False(t, MessageType(0x00).Known())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "OK", StatusOK.String())
	assert.Equal(t, "FILE_EXISTS", StatusFileExists.String())
	assert.Equal(t, "STATUS(9)", Status(9).String())
}
