package offline

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	helmloader "helm.sh/helm/v4/pkg/chart/loader"
	chartv2 "helm.sh/helm/v4/pkg/chart/v2"
)

var (
	// ErrBundleEntryEscapesDestination indicates an archive entry whose path
	// would be written outside the extraction directory.
	ErrBundleEntryEscapesDestination = errors.New("bundle entry escapes destination directory")

	// ErrUnexpectedChartType indicates the loaded chart is not a v2 chart.
	ErrUnexpectedChartType = errors.New("unexpected chart type")
)

// unpackBundle extracts a chart bundle archive into destDir. The archive may
// be gzip-compressed or a plain tar stream.
func unpackBundle(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open bundle archive: %w", err)
	}
	defer file.Close()

	err = os.MkdirAll(destDir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create bundle directory: %w", err)
	}

	reader, err := archiveReader(file)
	if err != nil {
		return err
	}

	tarReader := tar.NewReader(reader)

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("failed to read bundle entry: %w", err)
		}

		err = extractEntry(tarReader, header, destDir)
		if err != nil {
			return err
		}
	}

	return nil
}

// archiveReader sniffs the gzip magic bytes and wraps the stream accordingly.
func archiveReader(file *os.File) (io.Reader, error) {
	var magic [2]byte

	_, err := io.ReadFull(file, magic[:])
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle archive: %w", err)
	}

	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to rewind bundle archive: %w", err)
	}

	if magic[0] != 0x1f || magic[1] != 0x8b {
		return file, nil
	}

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}

	return gzipReader, nil
}

func extractEntry(tarReader *tar.Reader, header *tar.Header, destDir string) error {
	targetPath := filepath.Join(destDir, filepath.Clean(header.Name))
	if !strings.HasPrefix(targetPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("%w: %q", ErrBundleEntryEscapesDestination, header.Name)
	}

	if header.Typeflag == tar.TypeDir {
		err := os.MkdirAll(targetPath, 0o755)
		if err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}

		return nil
	}

	if header.Typeflag != tar.TypeReg {
		return nil
	}

	err := os.MkdirAll(filepath.Dir(targetPath), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	outFile, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	_, err = io.Copy(outFile, tarReader)
	if err != nil {
		outFile.Close()

		return fmt.Errorf("failed to write file: %w", err)
	}

	err = outFile.Close()
	if err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	return nil
}

// loadChart loads and validates the unpacked chart directory, returning the
// parsed chart so callers can report its name and version.
func loadChart(chartDir string) (*chartv2.Chart, error) {
	chartInterface, err := helmloader.Load(chartDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart: %w", err)
	}

	chart, ok := chartInterface.(*chartv2.Chart)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedChartType, chartInterface)
	}

	return chart, nil
}
