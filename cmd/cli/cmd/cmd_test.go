package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fardiff/internal/locator"
	"github.com/fardiff/pkg/config"
	"github.com/fardiff/pkg/model"
)

func newFlagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addAnalyzeFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	t.Cleanup(func() {
		outputFile, selection, grouping, sortMode, title = "", "", "", "", ""
		excludeBSS, publish, serveAfter = false, false, false
	})
	return cmd
}

func TestApplyAnalyzeFlags_Overrides(t *testing.T) {
	cmd := newFlagCommand(t,
		"-o", "out/lib.html",
		"--grouping", "source",
		"--sort", "size",
		"--exclude-bss",
		"--title", "renderer",
	)
	c := config.Default()

	require.NoError(t, applyAnalyzeFlags(cmd, c))
	assert.Equal(t, "out/lib.html", c.Report.Output)
	assert.Equal(t, "source", c.Treemap.Grouping)
	assert.Equal(t, "size", c.Treemap.Sort)
	assert.True(t, c.Treemap.ExcludeBSS)
	assert.Equal(t, "renderer", c.Report.Title)
	assert.False(t, c.Storage.Enabled)
}

func TestApplyAnalyzeFlags_UnsetFlagsKeepConfig(t *testing.T) {
	cmd := newFlagCommand(t)
	c := config.Default()
	c.Report.Output = "from-config.html"
	c.Treemap.Sort = "name"

	require.NoError(t, applyAnalyzeFlags(cmd, c))
	assert.Equal(t, "from-config.html", c.Report.Output)
	assert.Equal(t, "name", c.Treemap.Sort)
}

func TestApplyAnalyzeFlags_PublishEnablesStorage(t *testing.T) {
	cmd := newFlagCommand(t, "--publish")
	c := config.Default()

	require.NoError(t, applyAnalyzeFlags(cmd, c))
	assert.True(t, c.Storage.Enabled)
}

func TestApplyAnalyzeFlags_InvalidValue(t *testing.T) {
	cmd := newFlagCommand(t, "--sort", "random")

	err := applyAnalyzeFlags(cmd, config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sort")
}

func TestChooserFor(t *testing.T) {
	assert.IsType(t, &locator.TerminalChooser{}, chooserFor(""))
	assert.NotNil(t, chooserFor("1"))
	assert.NotNil(t, chooserFor("libfilament-jni"))
}

func TestPrintRuns(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []*model.Run{
		{
			RunID:        "run-2",
			Binary:       "libfilament-jni.so",
			SymbolBytes:  2048,
			SectionBytes: 4096,
			ReportPath:   "index.html",
			PublishedURL: "https://example.com/fardiff/run-2/index.html",
			CreatedAt:    created,
		},
		{
			RunID:       "run-1",
			Binary:      "libgltfio-jni.so",
			SymbolBytes: 100,
			ReportPath:  "out/gltfio.html",
			CreatedAt:   created.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, printRuns(&buf, runs))

	out := buf.String()
	assert.Contains(t, out, "RUN ID")
	assert.Contains(t, out, "run-2")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "https://example.com/fardiff/run-2/index.html")
	assert.Contains(t, out, "out/gltfio.html")
	assert.Contains(t, out, "100 B")
}

func TestPrintRuns_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printRuns(&buf, nil))
	assert.Equal(t, "No runs recorded.\n", buf.String())
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version", "--config", t.TempDir() + "/none.yaml"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "version dev")
	assert.Contains(t, buf.String(), "Go Version")
}
