package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fardiff/internal/inspect"
	"github.com/fardiff/internal/locator"
	"github.com/fardiff/internal/mock"
	"github.com/fardiff/internal/report"
	"github.com/fardiff/internal/testutil"
	"github.com/fardiff/pkg/compression"
	"github.com/fardiff/pkg/config"
	apperrors "github.com/fardiff/pkg/errors"
	"github.com/fardiff/pkg/model"
	"github.com/fardiff/pkg/utils"
)

type fixture struct {
	dir      string
	settings *Settings
	runner   *mock.MockRunner
	lib      string
	output   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	settings, err := SettingsFromConfig(config.Default())
	require.NoError(t, err)
	settings.Workspace = Workspace{ScratchDir: filepath.Join(dir, "scratch"), KeepScratch: true}
	settings.Inspect.Concurrent = false

	return &fixture{
		dir:      dir,
		settings: settings,
		runner:   &mock.MockRunner{},
		lib:      testutil.WriteFile(t, dir, "libfilament-jni.so", "\x7fELF fake payload"),
		output:   filepath.Join(dir, "out", "report.html"),
	}
}

func (f *fixture) expectDumps(t *testing.T) {
	f.runner.ExpectTool("nm", mock.Output(string(testutil.LoadFixture(t, "nm.out"))), nil)
	f.runner.ExpectTool("objdump", mock.Output(string(testutil.LoadFixture(t, "objdump.out"))), nil)
}

func (f *fixture) analyzer(t *testing.T, opts ...Option) *Analyzer {
	t.Helper()
	base := []Option{
		WithRunner(f.runner),
		WithRunIDFunc(func() string { return "run-1" }),
		WithClock(utils.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))),
	}
	a, err := NewAnalyzer(f.settings, append(base, opts...)...)
	require.NoError(t, err)
	return a
}

func TestAnalyzer_Run_Library(t *testing.T) {
	f := newFixture(t)
	f.expectDumps(t)

	res, err := f.analyzer(t).Run(context.Background(), &Request{Path: f.lib, Output: f.output})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, f.lib, res.Binary)
	assert.Equal(t, "fardiff: libfilament-jni.so", res.Report.Title)
	assert.Equal(t, int64(2608), res.Report.Symbols.TotalSize())
	assert.Equal(t, int64(368392), res.Report.Sections.TotalSize())
	assert.Equal(t, SymbolsRoot, res.Report.Symbols.Root.Name)
	assert.Equal(t, SectionsRoot, res.Report.Sections.Root.Name)
	assert.Equal(t, 1, res.Report.SymbolStats.Skipped)
	assert.Equal(t, 2, res.Report.SymbolStats.External)
	assert.Nil(t, res.Publish)

	html, err := os.ReadFile(f.output)
	require.NoError(t, err)
	assert.Contains(t, string(html), "fardiff: libfilament-jni.so")
	assert.Contains(t, string(html), `"name":"symbols"`)
	assert.Contains(t, string(html), `"name":".text"`)

	for _, name := range []string{
		inspect.SymbolsDumpFile, inspect.SectionsDumpFile,
		SymbolsTreeFile, SectionsTreeFile, FoldedFile,
	} {
		assert.FileExists(t, f.settings.Workspace.Path(name))
	}

	var names []string
	for _, p := range res.Phases {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{PhaseLocate, PhaseInspect, PhaseParse, PhaseBuild, PhaseAssemble}, names)
	f.runner.AssertExpectations(t)
}

func TestAnalyzer_Run_Deterministic(t *testing.T) {
	f := newFixture(t)
	f.expectDumps(t)
	a := f.analyzer(t)

	readTrees := func() (symbols, sections []byte) {
		_, err := a.Run(context.Background(), &Request{Path: f.lib, Output: f.output})
		require.NoError(t, err)
		symbols, err = os.ReadFile(f.settings.Workspace.Path(SymbolsTreeFile))
		require.NoError(t, err)
		sections, err = os.ReadFile(f.settings.Workspace.Path(SectionsTreeFile))
		require.NoError(t, err)
		return symbols, sections
	}

	symbols1, sections1 := readTrees()
	symbols2, sections2 := readTrees()

	assert.NotEmpty(t, symbols1)
	assert.True(t, bytes.Equal(symbols1, symbols2), "symbols tree differs between runs")
	assert.True(t, bytes.Equal(sections1, sections2), "sections tree differs between runs")
}

func TestAnalyzer_Run_TitleOverrideAndDefaultOutput(t *testing.T) {
	f := newFixture(t)
	f.expectDumps(t)

	t.Chdir(f.dir)

	res, err := f.analyzer(t).Run(context.Background(), &Request{Path: f.lib, Title: "nightly <arm64>"})
	require.NoError(t, err)
	assert.Equal(t, "index.html", res.Output)

	html, err := os.ReadFile(filepath.Join(f.dir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "nightly &lt;arm64&gt;")
}

func TestAnalyzer_Run_ArchiveRemovesExtraction(t *testing.T) {
	f := newFixture(t)
	f.settings.Workspace.KeepScratch = false
	f.expectDumps(t)

	apk := testutil.WriteZip(t, f.dir, "app.apk",
		testutil.ZipEntry{Name: "lib/arm64-v8a/libgltfio-jni.so", Content: "a"},
		testutil.ZipEntry{Name: "lib/arm64-v8a/libfilament-jni.so", Content: "bb"},
	)

	other := filepath.Join(f.settings.Workspace.ExtractDir(), "other.aar")
	testutil.WriteFile(t, other, "jni/libother.so", "c")

	a := f.analyzer(t, WithChooser(locator.FixedChooser{Index: 1}))
	res, err := a.Run(context.Background(), &Request{Path: apk, Output: f.output})
	require.NoError(t, err)

	assert.Equal(t, "fardiff: libfilament-jni.so", res.Report.Title)
	assert.True(t, strings.HasPrefix(res.Binary, f.settings.Workspace.ExtractDir()))
	assert.NoDirExists(t, filepath.Join(f.settings.Workspace.ExtractDir(), "app.apk"))
	assert.FileExists(t, filepath.Join(other, "jni", "libother.so"), "other archives' extractions are left alone")
	assert.FileExists(t, f.settings.Workspace.Path(SymbolsTreeFile))
}

func TestAnalyzer_Run_ArchiveWithoutChooser(t *testing.T) {
	f := newFixture(t)

	apk := testutil.WriteZip(t, f.dir, "app.apk",
		testutil.ZipEntry{Name: "lib/a.so", Content: "a"},
		testutil.ZipEntry{Name: "lib/b.so", Content: "b"},
	)

	_, err := f.analyzer(t).Run(context.Background(), &Request{Path: apk, Output: f.output})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidSelection(err))
	f.runner.AssertNotCalled(t, "Run", tmock.Anything, tmock.Anything)
}

func TestAnalyzer_Run_MissingPath(t *testing.T) {
	f := newFixture(t)

	_, err := f.analyzer(t).Run(context.Background(), &Request{Path: filepath.Join(f.dir, "absent"), Output: f.output})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoFileExists(t, f.output)
}

func TestAnalyzer_Run_ToolFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.ExpectTool("nm", &inspect.ProcessResult{ExitCode: 1, Stderr: []byte("nm: file format not recognized")}, nil)
	f.runner.ExpectTool("objdump", mock.Output("unused"), nil).Maybe()

	_, err := f.analyzer(t).Run(context.Background(), &Request{Path: f.lib, Output: f.output})
	require.Error(t, err)
	assert.True(t, apperrors.IsInspectionTool(err))
	assert.Contains(t, err.Error(), "file format not recognized")
	assert.NoFileExists(t, f.output)
}

func TestAnalyzer_Run_EmptySymbols(t *testing.T) {
	f := newFixture(t)
	f.runner.ExpectTool("nm", mock.Output("                 U memcpy\n"), nil)
	f.runner.ExpectTool("objdump", mock.Output(string(testutil.LoadFixture(t, "objdump.out"))), nil)

	_, err := f.analyzer(t).Run(context.Background(), &Request{Path: f.lib, Output: f.output})
	require.Error(t, err)
	assert.True(t, apperrors.IsEmptyTree(err))
	assert.NoFileExists(t, f.output)
}

func TestAnalyzer_Run_Publish(t *testing.T) {
	f := newFixture(t)
	f.settings.PublishPrefix = "fardiff"
	f.expectDumps(t)

	store := &mock.MockStorage{}
	store.ExpectUploadFile("fardiff/run-1/report.html", f.output, nil)

	var bundle []byte
	store.ExpectUpload("fardiff/run-1/"+BundleFile, "application/zstd", nil).Run(func(args tmock.Arguments) {
		data, err := io.ReadAll(args.Get(2).(io.Reader))
		require.NoError(t, err)
		bundle = data
	})
	store.ExpectGetURL("https://cdn.example")

	res, err := f.analyzer(t, WithStorage(store)).Run(context.Background(), &Request{
		Path: f.lib, Output: f.output, Publish: true,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Publish)
	assert.Equal(t, "https://cdn.example/fardiff/run-1/report.html", res.Publish.ReportURL)
	assert.Equal(t, "fardiff/run-1/"+BundleFile, res.Publish.BundleKey)

	raw, err := compression.AutoDecompress(bundle)
	require.NoError(t, err)
	var decoded Bundle
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, int64(2608), decoded.Symbols.Size)
	assert.Equal(t, int64(368392), decoded.TotalSize)
	assert.Equal(t, int64(len(raw)), res.Publish.Bundle.JSONSize)

	assert.Equal(t, PhasePublish, res.Phases[len(res.Phases)-1].Name)
	store.AssertExpectations(t)
}

func TestAnalyzer_Run_PublishFailure(t *testing.T) {
	f := newFixture(t)
	f.expectDumps(t)

	store := &mock.MockStorage{}
	store.ExpectAnyUploadFile(apperrors.New(apperrors.CodeStorageError, "denied"))

	_, err := f.analyzer(t, WithStorage(store)).Run(context.Background(), &Request{
		Path: f.lib, Output: f.output, Publish: true,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsStorageError(err))
}

func TestAnalyzer_Run_PublishWithoutStorage(t *testing.T) {
	f := newFixture(t)
	f.expectDumps(t)

	res, err := f.analyzer(t).Run(context.Background(), &Request{Path: f.lib, Output: f.output, Publish: true})
	require.NoError(t, err)
	assert.Nil(t, res.Publish)
}

func TestAnalyzer_Run_RecordsHistory(t *testing.T) {
	f := newFixture(t)
	f.expectDumps(t)

	repo := &mock.MockRunRepository{}
	var saved []*model.Run
	repo.ExpectSave(&saved, nil)

	_, err := f.analyzer(t, WithHistory(repo)).Run(context.Background(), &Request{Path: f.lib, Output: f.output})
	require.NoError(t, err)
	require.Len(t, saved, 1)

	sum := sha256.Sum256([]byte("\x7fELF fake payload"))
	run := saved[0]
	assert.Equal(t, "run-1", run.RunID)
	assert.Equal(t, "libfilament-jni.so", run.Binary)
	assert.Equal(t, f.lib, run.SourcePath)
	assert.Equal(t, hex.EncodeToString(sum[:]), run.Digest)
	assert.Equal(t, int64(2608), run.SymbolBytes)
	assert.Equal(t, int64(368392), run.SectionBytes)
	assert.Equal(t, 2, run.Skipped)
	assert.Equal(t, f.output, run.ReportPath)
	assert.Contains(t, run.Phases, PhaseInspect)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), run.CreatedAt)
}

func TestAnalyzer_Run_HistoryFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.expectDumps(t)

	repo := &mock.MockRunRepository{}
	repo.ExpectSave(nil, errors.New("database is locked"))

	res, err := f.analyzer(t, WithHistory(repo)).Run(context.Background(), &Request{Path: f.lib, Output: f.output})
	require.NoError(t, err)
	assert.FileExists(t, res.Output)
	repo.AssertExpectations(t)
}

func TestNewAnalyzer_BadAssets(t *testing.T) {
	f := newFixture(t)
	f.settings.Workspace.AssetsDir = f.dir
	testutil.WriteFile(t, f.dir, "template.html", "<html>$TITLE$</html>")

	_, err := NewAnalyzer(f.settings)
	require.Error(t, err)
	assert.True(t, apperrors.IsTemplate(err))
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Treemap.Grouping = "source"
	cfg.Treemap.Sort = "size"
	cfg.Treemap.ExcludeBSS = true
	cfg.Tools.NM = "llvm-nm"

	s, err := SettingsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "source", string(s.Builder.Grouping))
	assert.Equal(t, "size", string(s.Builder.Sort))
	assert.True(t, s.Parser.ExcludeBSS)
	assert.Equal(t, "llvm-nm", s.Inspect.NM)
	assert.Equal(t, cfg.Storage.Prefix, s.PublishPrefix)
}

func TestFileDigest(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "x", "abc")
	got, err := fileDigest(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)

	_, err = fileDigest(path + ".missing")
	assert.Error(t, err)
}

func TestNewBundle_NilTrees(t *testing.T) {
	b := newBundle("r", &report.Report{Title: "t"})
	assert.Nil(t, b.Symbols)
	assert.Nil(t, b.Sections)
	assert.True(t, bytes.Contains(mustJSON(t, b), []byte(`"symbols":null`)))
}

func mustJSON(t *testing.T, v any) []byte {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
