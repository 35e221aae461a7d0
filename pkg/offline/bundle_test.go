package offline_test

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runtime-copilot/cluster-harness/pkg/offline"
)

const testChartManifest = "apiVersion: v2\nname: runtime-copilot\nversion: 0.0.5\n"

type tarEntry struct {
	name    string
	content string
}

func writeBundleArchive(t *testing.T, path string, compress bool, entries []tarEntry) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)

	defer func() { require.NoError(t, file.Close()) }()

	var sink io.WriteCloser = file

	if compress {
		gzipWriter := gzip.NewWriter(file)
		defer func() { require.NoError(t, gzipWriter.Close()) }()

		sink = gzipWriter
	}

	tarWriter := tar.NewWriter(sink)
	defer func() { require.NoError(t, tarWriter.Close()) }()

	for _, entry := range entries {
		header := &tar.Header{
			Name:     entry.name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(entry.content)),
		}
		require.NoError(t, tarWriter.WriteHeader(header))

		_, err := tarWriter.Write([]byte(entry.content))
		require.NoError(t, err)
	}
}

func chartEntries() []tarEntry {
	return []tarEntry{
		{name: "Chart.yaml", content: testChartManifest},
		{name: "values.yaml", content: "replicaCount: 1\n"},
		{name: "templates/deployment.yaml", content: "# placeholder\n"},
	}
}

func TestUnpackBundleExtractsGzipArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "runtime-copilot_0.0.5.bundle.tar")
	writeBundleArchive(t, archivePath, true, chartEntries())

	destDir := filepath.Join(dir, "runtime-copilot_0.0.5.bundle")
	require.NoError(t, offline.UnpackBundle(archivePath, destDir))

	manifest, err := os.ReadFile(filepath.Join(destDir, "Chart.yaml"))
	require.NoError(t, err)
	assert.Equal(t, testChartManifest, string(manifest))

	assert.FileExists(t, filepath.Join(destDir, "templates", "deployment.yaml"))
}

func TestUnpackBundleExtractsPlainTar(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "runtime-copilot_0.0.5.bundle.tar")
	writeBundleArchive(t, archivePath, false, chartEntries())

	destDir := filepath.Join(dir, "unpacked")
	require.NoError(t, offline.UnpackBundle(archivePath, destDir))
	assert.FileExists(t, filepath.Join(destDir, "values.yaml"))
}

func TestUnpackBundleRejectsPathTraversal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.tar")
	writeBundleArchive(t, archivePath, false, []tarEntry{
		{name: "../escape.txt", content: "nope"},
	})

	err := offline.UnpackBundle(archivePath, filepath.Join(dir, "unpacked"))
	require.ErrorIs(t, err, offline.ErrBundleEntryEscapesDestination)
	assert.NoFileExists(t, filepath.Join(dir, "escape.txt"))
}

func TestUnpackBundleMissingArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	err := offline.UnpackBundle(filepath.Join(dir, "absent.tar"), filepath.Join(dir, "out"))
	require.Error(t, err)
}

func TestLoadChartParsesUnpackedDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Chart.yaml"), []byte(testChartManifest), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "values.yaml"), []byte("replicaCount: 1\n"), 0o600))

	chart, err := offline.LoadChart(dir)
	require.NoError(t, err)
	assert.Equal(t, "runtime-copilot", chart.Name())
	assert.Equal(t, "0.0.5", chart.Metadata.Version)
}
