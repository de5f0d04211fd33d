// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textsource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

const (
	binDocker = "docker"
	binPodman = "podman"

	defaultOCRLanguage = "spa"
)

// commander abstracts process execution for testing.
type commander interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

type osCommander struct{}

func (osCommander) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (osCommander) Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// ContainerOCR runs an OCR image under docker or podman. The image reads a
// PDF on stdin and writes the text of each page to stdout, pages separated
// by form feeds. The language is passed as OCR_LANG.
type ContainerOCR struct {
	bin      string
	image    string
	language string
	cmd      commander
}

// DetectOCR picks docker, falling back to podman, and checks that image is
// present locally.
func DetectOCR(ctx context.Context, image, language string) (*ContainerOCR, error) {
	return detectOCR(ctx, osCommander{}, image, language)
}

func detectOCR(ctx context.Context, cmd commander, image, language string) (*ContainerOCR, error) {
	if language == "" {
		language = defaultOCRLanguage
	}
	for _, bin := range []string{binDocker, binPodman} {
		if _, err := cmd.LookPath(bin); err != nil {
			continue
		}
		if err := cmd.Run(ctx, bin, []string{"info"}, nil, io.Discard, io.Discard); err != nil {
			continue
		}
		o := &ContainerOCR{bin: bin, image: image, language: language, cmd: cmd}
		if err := o.imageExists(ctx); err != nil {
			return nil, err
		}
		return o, nil
	}
	return nil, fmt.Errorf("no container runtime available: neither %s nor %s found or operational", binDocker, binPodman)
}

// Runtime returns the container binary in use.
func (o *ContainerOCR) Runtime() string { return o.bin }

func (o *ContainerOCR) imageExists(ctx context.Context) error {
	args := []string{"image", "inspect", o.image}
	if o.bin == binPodman {
		args = []string{"image", "exists", o.image}
	}
	if err := o.cmd.Run(ctx, o.bin, args, nil, io.Discard, io.Discard); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", o.image, o.bin, err)
	}
	return nil
}

// Pages pipes the PDF through the OCR container and splits its output.
func (o *ContainerOCR) Pages(ctx context.Context, pdfPath string) ([]types.Page, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	args := []string{"run", "--rm", "-i", "-e", "OCR_LANG=" + o.language, o.image}
	var out, errOut bytes.Buffer
	if err := o.cmd.Run(ctx, o.bin, args, f, &out, &errOut); err != nil {
		if msg := strings.TrimSpace(errOut.String()); msg != "" {
			return nil, fmt.Errorf("running %s container %s: %w: %s", o.bin, o.image, err, msg)
		}
		return nil, fmt.Errorf("running %s container %s: %w", o.bin, o.image, err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("%s produced empty output for %s", o.image, pdfPath)
	}
	return SplitPages(out.String()), nil
}
