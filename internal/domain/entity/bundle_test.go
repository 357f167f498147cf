package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImageExt(t *testing.T) {
	require.Equal(t, "jpg", ImageExt("shot.JPEG"))
	require.Equal(t, "jpg", ImageExt("jpeg"))
	require.Equal(t, "png", ImageExt("/tmp/a.png"))
	require.Equal(t, "gif", ImageExt("gif"))
	require.Equal(t, "jpg", ImageExt("webp"))
	require.Equal(t, "jpg", ImageExt("noext"))
}

func TestFilesFor(t *testing.T) {
	files := FilesFor("png")
	require.Equal(t, []string{"frame.png", "grayscale_frame.png", "detected_components.png", "index.html"}, files.All())
	require.Equal(t, []string{"frame.png", "grayscale_frame.png", "detected_components.png"}, files.Images())
}

func TestBundle_IDAndFiles(t *testing.T) {
	b := &Bundle{Dir: "web_outputs/screen", Ext: "gif"}
	require.Equal(t, "screen", b.ID())
	require.Equal(t, "frame.gif", b.Files().Original)
}

func TestImageExts_CoverImageExtMapping(t *testing.T) {
	for _, in := range []string{"a.jpg", "a.jpeg", "a.png", "a.gif", "a.bmp", "a.webp"} {
		require.Contains(t, ImageExts, ImageExt(in), in)
	}
}
