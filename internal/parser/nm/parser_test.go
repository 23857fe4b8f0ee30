package nm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fardiff/internal/parser"
	"github.com/fardiff/internal/testutil"
	apperrors "github.com/fardiff/pkg/errors"
	"github.com/fardiff/pkg/model"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantName  string
		wantSize  int64
		wantKnown bool
		wantType  model.SymbolType
		wantAddr  bool
		wantFile  string
		wantLine  int
	}{
		{
			name:      "sized with location",
			line:      "0000000000012a40 0000000000000124 T filament::Engine::create()\t/src/Engine.cpp:88",
			wantName:  "filament::Engine::create()",
			wantSize:  0x124,
			wantKnown: true,
			wantType:  model.SymbolTypeText,
			wantAddr:  true,
			wantFile:  "/src/Engine.cpp",
			wantLine:  88,
		},
		{
			name:     "name with spaces",
			line:     "0000000000020000 0000000000000018 V vtable for filament::Engine",
			wantName: "vtable for filament::Engine", wantSize: 0x18, wantKnown: true,
			wantType: model.SymbolTypeWeakObject, wantAddr: true,
		},
		{
			name:     "no size",
			line:     "0000000000012c00 t local_helper",
			wantName: "local_helper", wantType: model.SymbolTypeTextLocal, wantAddr: true,
		},
		{
			name:     "unparseable size retained",
			line:     "0000000000014000 zzzz T weird",
			wantName: "weird", wantType: model.SymbolTypeText, wantAddr: true,
		},
		{
			name:     "undefined",
			line:     "                 U memcpy",
			wantName: "memcpy", wantType: model.SymbolTypeUndefined,
		},
		{
			name:     "location without line number",
			line:     "00000010 00000004 D table\t??",
			wantName: "table", wantSize: 4, wantKnown: true, wantType: model.SymbolTypeData,
			wantAddr: true, wantFile: "??",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, rec.Name)
			assert.Equal(t, tt.wantSize, rec.Size)
			assert.Equal(t, tt.wantKnown, rec.SizeKnown)
			assert.Equal(t, tt.wantType, rec.Type)
			assert.Equal(t, tt.wantAddr, rec.HasAddress)
			if tt.wantFile == "" {
				assert.Nil(t, rec.Location)
			} else {
				require.NotNil(t, rec.Location)
				assert.Equal(t, tt.wantFile, rec.Location.File)
				assert.Equal(t, tt.wantLine, rec.Location.Line)
			}
		})
	}
}

func TestParseLine_Malformed(t *testing.T) {
	for _, line := range []string{
		"garbage here",
		"0000000000012c00",
		"0000000000012c00 t",
		"0000000000012c00 00000010 ab name",
		"                 U   ",
	} {
		_, err := ParseLine(line)
		assert.Error(t, err, line)
	}
}

func TestParser_ParseFixture(t *testing.T) {
	result, err := NewParser(nil).Parse(context.Background(), testutil.LoadFixtureReader(t, "nm.out"))
	require.NoError(t, err)

	assert.Equal(t, 12, result.Stats.Lines)
	assert.Equal(t, 9, result.Stats.Records)
	assert.Equal(t, 1, result.Stats.Skipped)
	assert.Equal(t, 2, result.Stats.External)
	assert.Equal(t, 0, result.Stats.Excluded)
	require.Len(t, result.Symbols, 9)
	assert.Equal(t, int64(2608), result.TotalSize())

	// Dump order is preserved.
	assert.Equal(t, "filament::Engine::create(filament::backend::Backend)", result.Symbols[0].Name)
	assert.Equal(t, "utils::Panic::what() const", result.Symbols[8].Name)
}

func TestParser_ExcludeBSS(t *testing.T) {
	p := NewParser(&parser.Options{ExcludeBSS: true})
	result, err := p.Parse(context.Background(), testutil.LoadFixtureReader(t, "nm.out"))
	require.NoError(t, err)

	assert.Equal(t, 7, result.Stats.Records)
	assert.Equal(t, 2, result.Stats.Excluded)
	for _, s := range result.Symbols {
		assert.False(t, s.Type.IsBSS(), s.Name)
	}
}

func TestParser_StrictMode(t *testing.T) {
	p := NewParser(&parser.Options{StrictMode: true})
	_, err := p.Parse(context.Background(), strings.NewReader("00000010 00000004 T ok\nnot a symbol line\n"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeParseError, apperrors.GetErrorCode(err))

	var lineErr *parser.LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 2, lineErr.Line)
}

func TestParser_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(nil).Parse(ctx, strings.NewReader("00000010 00000004 T ok\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParser_ZeroSizeKept(t *testing.T) {
	input := "00000010 00000000 T empty_fn\n00000020 t no_size\n"
	result, err := NewParser(nil).Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Symbols, 2)
	assert.True(t, result.Symbols[0].SizeKnown)
	assert.False(t, result.Symbols[1].SizeKnown)
}
