// Package moviecodec encodes and decodes movie files: a pure function
// over a fixed binary layout, with no dependency on the Timeline or any
// other package in this repo. A fixed binary header built with
// encoding/binary, verified by magic on read (the version field is
// written but not checked) — the same
// discipline applied here to a format whose byte offsets are dictated by
// an external player rather than chosen by this repo.
package moviecodec

import (
	"encoding/binary"
	"io"
	"unicode/utf8"
)

// HeaderSize is the fixed size of a movie file's header, before the
// per-frame input samples begin.
const HeaderSize = 0x400

// Fixed field values and offsets. Every field not covered by a Movie
// struct field below must round-trip byte for byte.
const (
	offMagic           = 0x000
	offVersion         = 0x004
	offMovieUID        = 0x008
	offVICount         = 0x00C
	offRerecordCount   = 0x010
	offVIsPerSecond    = 0x014
	offControllerCount = 0x015
	offReserved1       = 0x016 // 2 bytes
	offSampleCount     = 0x018
	offStartType       = 0x01C
	offReserved2       = 0x01E // 2 bytes
	offControllerFlags = 0x020
	offReserved3       = 0x024 // 160 bytes
	offROMName         = 0x0C4
	romNameSize        = 32
	offCRC             = 0x0E4
	offCountryCode     = 0x0E8
	offReserved4       = 0x0EA // 56 bytes
	offPlugins         = 0x122
	pluginNameSize     = 64
	offAuthor          = 0x222
	authorSize         = 222
	offDescription     = 0x300
	descriptionSize    = 256

	visPerSecond    = 0x3C
	controllerCount = 0x01
	startTypePowerOn = 0x0002
	controllerFlags = 0x00000001
	version         = 3
)

var magic = [4]byte{0x4D, 0x36, 0x34, 0x1A}

// Input is one frame's controller sample: a 16-bit button mask plus two
// signed analog stick axes, 4 bytes per sample.
type Input struct {
	Buttons uint16
	StickX  int8
	StickY  int8
}

// Movie is the variable content of a movie file — every other header
// field is fixed, reproduced verbatim by Write and ignored (beyond magic
// and length checks) by Read.
type Movie struct {
	RerecordCount uint32
	ROMName       string
	CRC           uint32
	CountryCode   byte
	VideoPlugin   string
	SoundPlugin   string
	InputPlugin   string
	RSPPlugin     string
	Author        string
	Description   string
	Inputs        []Input
}

// Write encodes m as a movie file and writes it to w.
func Write(w io.Writer, m *Movie) error {
	var hdr [HeaderSize]byte

	copy(hdr[offMagic:], magic[:])
	binary.LittleEndian.PutUint32(hdr[offVersion:], version)
	binary.LittleEndian.PutUint32(hdr[offMovieUID:], 0)
	binary.LittleEndian.PutUint32(hdr[offVICount:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(hdr[offRerecordCount:], m.RerecordCount)
	hdr[offVIsPerSecond] = visPerSecond
	hdr[offControllerCount] = controllerCount
	binary.LittleEndian.PutUint32(hdr[offSampleCount:], uint32(len(m.Inputs)))
	binary.LittleEndian.PutUint16(hdr[offStartType:], startTypePowerOn)
	binary.LittleEndian.PutUint32(hdr[offControllerFlags:], controllerFlags)

	if err := putFixedString(hdr[offROMName:offROMName+romNameSize], "rom name", m.ROMName); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(hdr[offCRC:], m.CRC)
	hdr[offCountryCode] = m.CountryCode

	plugins := [4]string{m.VideoPlugin, m.SoundPlugin, m.InputPlugin, m.RSPPlugin}
	for i, p := range plugins {
		start := offPlugins + i*pluginNameSize
		if err := putFixedString(hdr[start:start+pluginNameSize], "plugin name", p); err != nil {
			return err
		}
	}
	if err := putFixedUTF8(hdr[offAuthor:offAuthor+authorSize], "author", m.Author); err != nil {
		return err
	}
	if err := putFixedUTF8(hdr[offDescription:offDescription+descriptionSize], "description", m.Description); err != nil {
		return err
	}

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	samples := make([]byte, 4*len(m.Inputs))
	for i, in := range m.Inputs {
		b := samples[4*i : 4*i+4]
		binary.BigEndian.PutUint16(b[0:2], in.Buttons)
		b[2] = byte(in.StickX)
		b[3] = byte(in.StickY)
	}
	_, err := w.Write(samples)
	return err
}

// Read decodes a movie file from r.
func Read(r io.Reader) (*Movie, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, &ShortFileError{Wanted: HeaderSize}
		}
		return nil, err
	}
	if [4]byte(hdr[offMagic:offMagic+4]) != magic {
		return nil, &BadMagicError{Got: append([]byte(nil), hdr[offMagic:offMagic+4]...)}
	}

	m := &Movie{
		RerecordCount: binary.LittleEndian.Uint32(hdr[offRerecordCount:]),
		ROMName:       trimFixedString(hdr[offROMName : offROMName+romNameSize]),
		CRC:           binary.LittleEndian.Uint32(hdr[offCRC:]),
		CountryCode:   hdr[offCountryCode],
		Author:        trimFixedString(hdr[offAuthor : offAuthor+authorSize]),
		Description:   trimFixedString(hdr[offDescription : offDescription+descriptionSize]),
	}
	if !utf8.Valid(hdr[offAuthor : offAuthor+authorSize]) {
		return nil, &NonUTF8FieldError{Field: "author"}
	}
	if !utf8.Valid(hdr[offDescription : offDescription+descriptionSize]) {
		return nil, &NonUTF8FieldError{Field: "description"}
	}

	pluginFields := []*string{&m.VideoPlugin, &m.SoundPlugin, &m.InputPlugin, &m.RSPPlugin}
	for i, dst := range pluginFields {
		start := offPlugins + i*pluginNameSize
		*dst = trimFixedString(hdr[start : start+pluginNameSize])
	}

	sampleCount := binary.LittleEndian.Uint32(hdr[offSampleCount:])
	samples := make([]byte, 4*sampleCount)
	if _, err := io.ReadFull(r, samples); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, &ShortFileError{Wanted: HeaderSize + 4*int(sampleCount)}
		}
		return nil, err
	}
	m.Inputs = make([]Input, sampleCount)
	for i := range m.Inputs {
		b := samples[4*i : 4*i+4]
		m.Inputs[i] = Input{
			Buttons: binary.BigEndian.Uint16(b[0:2]),
			StickX:  int8(b[2]),
			StickY:  int8(b[3]),
		}
	}
	return m, nil
}

// putFixedString copies s into dst, zero-padding the remainder. Returns
// FieldTooLongError if s doesn't fit.
func putFixedString(dst []byte, field, s string) error {
	if len(s) > len(dst) {
		return &FieldTooLongError{Field: field, Max: len(dst), Got: len(s)}
	}
	clear(dst)
	copy(dst, s)
	return nil
}

// putFixedUTF8 is putFixedString plus a validity check, for the two
// fields required to hold valid UTF-8.
func putFixedUTF8(dst []byte, field, s string) error {
	if !utf8.ValidString(s) {
		return &NonUTF8FieldError{Field: field}
	}
	return putFixedString(dst, field, s)
}

// trimFixedString strips the trailing zero padding from a fixed-width
// field, stopping at the first NUL.
func trimFixedString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
