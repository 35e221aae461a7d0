package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
)

// ErrExecFailed is returned when an in-container command exits non-zero.
var ErrExecFailed = errors.New("exec failed")

// Execer is the subset of the engine API needed to run commands inside a
// container.
type Execer interface {
	ContainerExecCreate(
		ctx context.Context,
		container string,
		options container.ExecOptions,
	) (container.ExecCreateResponse, error)
	ContainerExecAttach(
		ctx context.Context,
		execID string,
		config container.ExecAttachOptions,
	) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error)
}

// FileCopier is the subset of the engine API needed to place files inside a
// container.
type FileCopier interface {
	CopyToContainer(
		ctx context.Context,
		container, dstPath string,
		content io.Reader,
		options container.CopyToContainerOptions,
	) error
}

// ExecInContainer executes a command inside a container and returns its
// stdout. A non-zero exit is reported as ErrExecFailed carrying the captured
// stderr.
func ExecInContainer(
	ctx context.Context,
	execer Execer,
	containerName string,
	cmd []string,
) (string, error) {
	execConfig := container.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	}

	execID, err := execer.ContainerExecCreate(ctx, containerName, execConfig)
	if err != nil {
		return "", fmt.Errorf("create exec: %w", err)
	}

	resp, err := execer.ContainerExecAttach(ctx, execID.ID, container.ExecAttachOptions{})
	if err != nil {
		return "", fmt.Errorf("attach to exec: %w", err)
	}
	defer resp.Close()

	var stdout, stderr bytes.Buffer

	_, _ = stdcopy.StdCopy(&stdout, &stderr, resp.Reader)

	inspectResp, err := execer.ContainerExecInspect(ctx, execID.ID)
	if err != nil {
		return "", fmt.Errorf("inspect exec: %w", err)
	}

	if inspectResp.ExitCode != 0 {
		return "", fmt.Errorf(
			"%w with exit code %d: %s",
			ErrExecFailed,
			inspectResp.ExitCode,
			stderr.String(),
		)
	}

	return stdout.String(), nil
}

// CopyFileToContainer writes content as a file at destPath inside the
// container, wrapping it in the single-entry tar stream the engine's copy
// endpoint expects.
func CopyFileToContainer(
	ctx context.Context,
	copier FileCopier,
	containerName string,
	destPath string,
	content []byte,
	fileMode int64,
) error {
	var archive bytes.Buffer

	tarWriter := tar.NewWriter(&archive)

	header := &tar.Header{
		Name:    path.Base(destPath),
		Mode:    fileMode,
		Size:    int64(len(content)),
		ModTime: time.Now(),
	}

	err := tarWriter.WriteHeader(header)
	if err != nil {
		return fmt.Errorf("write tar header: %w", err)
	}

	_, err = tarWriter.Write(content)
	if err != nil {
		return fmt.Errorf("write tar content: %w", err)
	}

	err = tarWriter.Close()
	if err != nil {
		return fmt.Errorf("finalize tar archive: %w", err)
	}

	err = copier.CopyToContainer(
		ctx,
		containerName,
		path.Dir(destPath),
		&archive,
		container.CopyToContainerOptions{},
	)
	if err != nil {
		return fmt.Errorf("copy %s into %s: %w", destPath, containerName, err)
	}

	return nil
}
