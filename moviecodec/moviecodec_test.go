package moviecodec_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branpk/wafel-sub001/moviecodec"
)

// TestRoundTrip is scenario S5: write a movie with author "abc", CRC
// 0x0e3daa4e, 3 inputs, read it back, and check metadata/inputs match
// plus the exact file size.
func TestRoundTrip(t *testing.T) {
	m := &moviecodec.Movie{
		RerecordCount: 42,
		ROMName:       "SUPER MARIO 64",
		CRC:           0x0e3daa4e,
		CountryCode:   0x45,
		Author:        "abc",
		Description:   "a test movie",
		Inputs: []moviecodec.Input{
			{Buttons: 0x0001, StickX: 10, StickY: -5},
			{Buttons: 0, StickX: 0, StickY: 0},
			{Buttons: 0x0002, StickX: -128, StickY: 127},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, moviecodec.Write(&buf, m))
	assert.Equal(t, moviecodec.HeaderSize+12, buf.Len())

	got, err := moviecodec.Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, m.RerecordCount, got.RerecordCount)
	assert.Equal(t, m.ROMName, got.ROMName)
	assert.Equal(t, m.CRC, got.CRC)
	assert.Equal(t, m.CountryCode, got.CountryCode)
	assert.Equal(t, m.Author, got.Author)
	assert.Equal(t, m.Description, got.Description)
	require.Equal(t, m.Inputs, got.Inputs)
}

func TestReadRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, moviecodec.Write(&buf, &moviecodec.Movie{}))
	corrupted := buf.Bytes()
	corrupted[0] ^= 0xFF

	_, err := moviecodec.Read(bytes.NewReader(corrupted))
	require.Error(t, err)
	var badMagic *moviecodec.BadMagicError
	require.ErrorAs(t, err, &badMagic)
}

func TestReadRejectsShortFile(t *testing.T) {
	_, err := moviecodec.Read(bytes.NewReader(make([]byte, 10)))
	require.Error(t, err)
	var short *moviecodec.ShortFileError
	require.ErrorAs(t, err, &short)
}

func TestWriteRejectsOversizeField(t *testing.T) {
	m := &moviecodec.Movie{Author: string(make([]byte, 300))}
	err := moviecodec.Write(&bytes.Buffer{}, m)
	require.Error(t, err)
	var tooLong *moviecodec.FieldTooLongError
	require.ErrorAs(t, err, &tooLong)
}

func TestWriteRejectsNonUTF8Description(t *testing.T) {
	m := &moviecodec.Movie{Description: string([]byte{0xFF, 0xFE})}
	err := moviecodec.Write(&bytes.Buffer{}, m)
	require.Error(t, err)
	var bad *moviecodec.NonUTF8FieldError
	require.ErrorAs(t, err, &bad)
}
