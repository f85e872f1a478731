package utils

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func TestIsSupportedImage(t *testing.T) {
	for _, path := range []string{"a.jpg", "b.JPEG", "c.png", "d.bmp", "e.tif", "f.TIFF"} {
		assert.True(t, IsSupportedImage(path), path)
	}
	for _, path := range []string{"a.gif", "b.webp", "c.txt", "noext"} {
		assert.False(t, IsSupportedImage(path), path)
	}
}

func TestLoadImageTIFF(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 10))
	for y := range 10 {
		for x := range 20 {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 10)})
		}
	}

	path := filepath.Join(t.TempDir(), "scan.tif")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, tiff.Encode(f, img, nil))
	require.NoError(t, f.Close())

	loaded, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "tiff", meta.Format)
	assert.Equal(t, 20, meta.Width)
	assert.Equal(t, 10, meta.Height)
	assert.Equal(t, 20, loaded.Bounds().Dx())
}

func TestLoadImageRejectsUnsupported(t *testing.T) {
	_, _, err := LoadImage("document.pdf")
	require.Error(t, err)
	var perr *ImageProcessingError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "load", perr.Operation)
}
