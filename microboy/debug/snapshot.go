// Package debug holds developer tooling: frame and VRAM snapshots, audio
// capture and CPU trace formatting.
package debug

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"

	"github.com/valerio/go-microboy/microboy/video"
)

// ErrNoFrame is returned when there is nothing to snapshot.
var ErrNoFrame = errors.New("no frame data available")

// ScaleFrame renders frame with p and scales it by an integer factor using
// nearest neighbour sampling, so pixels stay sharp.
func ScaleFrame(frame *video.Frame, p video.Palette, scale int) *image.RGBA {
	src := frame.RGBA(p)
	if scale <= 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, video.Width*scale, video.Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// SaveFramePNG writes frame to path as a PNG.
func SaveFramePNG(frame *video.Frame, p video.Palette, scale int, path string) error {
	if frame == nil {
		return ErrNoFrame
	}
	return savePNG(ScaleFrame(frame, p, scale), path)
}

func savePNG(img image.Image, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return file.Close()
}

// snapshotPath returns <directory>/<baseName>_<timestamp>.png, creating the
// directory. An empty directory means the working directory.
func snapshotPath(baseName, directory string) (string, error) {
	outputDir := directory
	if outputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		outputDir = cwd
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405.000")
	return filepath.Join(outputDir, fmt.Sprintf("%s_%s.png", baseName, timestamp)), nil
}

// SaveFramePNGToDir saves frame as <baseName>_<timestamp>.png in directory,
// or in the working directory when it is empty. It returns the file path.
func SaveFramePNGToDir(frame *video.Frame, p video.Palette, scale int, baseName, directory string) (string, error) {
	filePath, err := snapshotPath(baseName, directory)
	if err != nil {
		return "", err
	}
	if err := SaveFramePNG(frame, p, scale, filePath); err != nil {
		return "", err
	}

	scale = max(scale, 1)
	slog.Info("Snapshot saved", "path", filePath, "size", fmt.Sprintf("%dx%d", video.Width*scale, video.Height*scale), "format", "PNG")
	return filePath, nil
}
