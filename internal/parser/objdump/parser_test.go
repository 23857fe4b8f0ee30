package objdump

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fardiff/internal/parser"
	"github.com/fardiff/internal/testutil"
)

func TestParser_ParseFixture(t *testing.T) {
	result, err := NewParser(nil).Parse(context.Background(), testutil.LoadFixtureReader(t, "objdump.out"))
	require.NoError(t, err)

	require.Len(t, result.Sections, 5)
	assert.Equal(t, 5, result.Stats.Records)
	assert.Equal(t, 1, result.Stats.Skipped, ".comment has an unparseable size")
	assert.Equal(t, int64(368392), result.TotalSize())

	text := result.Sections[1]
	assert.Equal(t, 1, text.Index)
	assert.Equal(t, ".text", text.Name)
	assert.Equal(t, int64(0x4f2d0), text.Size)
	assert.Equal(t, uint64(0x12a40), text.VMA)
	assert.Equal(t, uint64(0x12a40), text.FileOffset)
	assert.Equal(t, "2**6", text.Alignment)
	assert.Equal(t, []string{"CONTENTS", "ALLOC", "LOAD", "READONLY", "CODE"}, text.Flags)

	bss := result.Sections[4]
	assert.Equal(t, ".bss", bss.Name)
	assert.Equal(t, []string{"ALLOC"}, bss.Flags)
	assert.False(t, bss.OccupiesFile())
}

func TestParser_ExcludeBSS(t *testing.T) {
	p := NewParser(&parser.Options{ExcludeBSS: true})
	result, err := p.Parse(context.Background(), testutil.LoadFixtureReader(t, "objdump.out"))
	require.NoError(t, err)

	assert.Len(t, result.Sections, 4)
	assert.Equal(t, 4, result.Stats.Records)
	assert.Equal(t, 1, result.Stats.Excluded)
}

func TestParser_HeaderLinesAreNotSkipped(t *testing.T) {
	input := "\nfoo.so:     file format elf32-littlearm\n\nSections:\nIdx Name Size VMA LMA File off Algn\n"
	result, err := NewParser(nil).Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, result.Sections)
	assert.Equal(t, 0, result.Stats.Skipped)
}

func TestParser_FlagsAfterSkippedRowIgnored(t *testing.T) {
	input := "  0 .broken 12\n                  CONTENTS, ALLOC\n  1 .ok 00000010 00000000 00000000 00000100 2**2\n"
	result, err := NewParser(nil).Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Sections, 1)
	assert.Equal(t, ".ok", result.Sections[0].Name)
	assert.Empty(t, result.Sections[0].Flags)
	assert.Equal(t, 1, result.Stats.Skipped)
}

func TestParser_StrictMode(t *testing.T) {
	_, err := NewParser(&parser.Options{StrictMode: true}).Parse(context.Background(), strings.NewReader("  0 .broken 12\n"))
	assert.Error(t, err)
}
