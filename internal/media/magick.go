package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Identifier is implemented by backends that can read dimensions of
// formats the built-in decoders do not understand.
type Identifier interface {
	Identify(ctx context.Context, path string) (Dimensions, error)
}

type toolCommand struct {
	convert  []string
	identify []string
}

// commandBackend drives an external image tool through its command line.
type commandBackend struct {
	name    string
	formats formatSet
	// candidates are tried in order; the first one found on PATH is used.
	candidates []toolCommand

	once sync.Once
	tool *toolCommand
}

// NewGraphicsMagick returns the backend running "gm convert".
func NewGraphicsMagick() Backend {
	return &commandBackend{
		name:    "graphicsmagick",
		formats: graphicsMagickFormats,
		candidates: []toolCommand{
			{convert: []string{"gm", "convert"}, identify: []string{"gm", "identify"}},
		},
	}
}

// NewImageMagick returns the backend running "magick", or "convert" on
// ImageMagick 6 installations.
func NewImageMagick() Backend {
	return &commandBackend{
		name:    "imagemagick",
		formats: imageMagickFormats,
		candidates: []toolCommand{
			{convert: []string{"magick"}, identify: []string{"magick", "identify"}},
			{convert: []string{"convert"}, identify: []string{"identify"}},
		},
	}
}

func (b *commandBackend) Name() string { return b.name }

func (b *commandBackend) Available() bool {
	return b.lookup() != nil
}

func (b *commandBackend) Supports(mime string) bool {
	return b.formats.has(mime)
}

func (b *commandBackend) lookup() *toolCommand {
	b.once.Do(func() {
		for _, c := range b.candidates {
			path, err := exec.LookPath(c.convert[0])
			if err != nil {
				continue
			}
			tool := toolCommand{
				convert:  append([]string{path}, c.convert[1:]...),
				identify: c.identify,
			}
			if c.identify[0] == c.convert[0] {
				tool.identify = append([]string{path}, c.identify[1:]...)
			}
			b.tool = &tool
			return
		}
	})
	return b.tool
}

func (b *commandBackend) Resize(ctx context.Context, src Asset, dst Target) error {
	tool := b.lookup()
	if tool == nil {
		return fmt.Errorf("%s: not installed", b.name)
	}
	_, err := b.run(ctx, tool.convert,
		src.Path+"[0]",
		"-filter", "Lanczos",
		"-resize", fmt.Sprintf("%dx%d!", dst.Size.Width, dst.Size.Height),
		"-quality", "90",
		dst.Path,
	)
	return err
}

func (b *commandBackend) Identify(ctx context.Context, path string) (Dimensions, error) {
	tool := b.lookup()
	if tool == nil {
		return Dimensions{}, fmt.Errorf("%s: not installed", b.name)
	}
	out, err := b.run(ctx, tool.identify, "-format", "%w %h\n", path+"[0]")
	if err != nil {
		return Dimensions{}, err
	}
	var d Dimensions
	if _, err := fmt.Sscanf(strings.TrimSpace(out), "%d %d", &d.Width, &d.Height); err != nil {
		return Dimensions{}, fmt.Errorf("%s: parse identify output %q: %w", b.name, out, err)
	}
	return d, nil
}

func (b *commandBackend) run(ctx context.Context, argv []string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:len(argv):len(argv)], args...)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", b.name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
