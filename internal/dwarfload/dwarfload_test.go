package dwarfload

import (
	"debug/dwarf"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULEB128(t *testing.T) {
	n, consumed := uleb128([]byte{0x04})
	assert.Equal(t, int64(4), n)
	assert.Equal(t, 1, consumed)

	// 624485 encoded per the DWARF spec's canonical ULEB128 example.
	n, consumed = uleb128([]byte{0xE5, 0x8E, 0x26})
	assert.Equal(t, int64(624485), n)
	assert.Equal(t, 3, consumed)
}

func TestMemberOffsetConstantForm(t *testing.T) {
	e := &dwarf.Entry{Field: []dwarf.Field{
		{Attr: dwarf.AttrDataMemberLoc, Val: int64(12)},
	}}
	require.Equal(t, int64(12), memberOffset(e))
}

func TestMemberOffsetBlockForm(t *testing.T) {
	// DW_OP_plus_uconst 0x08: a block-form data_member_loc some compilers
	// emit instead of a plain constant.
	e := &dwarf.Entry{Field: []dwarf.Field{
		{Attr: dwarf.AttrDataMemberLoc, Val: []byte{0x23, 0x08}},
	}}
	require.Equal(t, int64(8), memberOffset(e))
}

func TestAttrInt64(t *testing.T) {
	e := &dwarf.Entry{Field: []dwarf.Field{
		{Attr: dwarf.AttrByteSize, Val: int64(4)},
		{Attr: dwarf.AttrEncoding, Val: uint64(5)},
	}}
	v, ok := attrInt64(e, dwarf.AttrByteSize)
	require.True(t, ok)
	assert.Equal(t, int64(4), v)

	v, ok = attrInt64(e, dwarf.AttrEncoding)
	require.True(t, ok)
	assert.Equal(t, int64(5), v)

	_, ok = attrInt64(e, dwarf.AttrName)
	assert.False(t, ok)
}

func TestAttrString(t *testing.T) {
	e := &dwarf.Entry{Field: []dwarf.Field{
		{Attr: dwarf.AttrName, Val: "gMario"},
	}}
	assert.Equal(t, "gMario", attrString(e, dwarf.AttrName))
	assert.Equal(t, "", attrString(e, dwarf.AttrType))
}

func TestLoadFromELFRejectsNonELF(t *testing.T) {
	_, err := LoadFromELF("/dev/null", Options{})
	require.Error(t, err)
}
