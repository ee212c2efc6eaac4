package core

import (
	"fmt"
	"image"
	"strings"
	"unsafe"

	"golang.org/x/image/draw"
)

type sliceHeader struct {
	Data uintptr
	Len  int
	Cap  int
}

// SliceUint32 reslices bytes into a uint32, that is used
// to sumbit vulkan shaders for processing
func SliceUint32(data []byte) []uint32 {
	const m = 0x7fffffff
	return (*[m / 4]uint32)(unsafe.Pointer((*sliceHeader)(unsafe.Pointer(&data)).Data))[:len(data)/4]
}

// safeString null-terminates a string for handing over to the C API.
// Already terminated strings pass through untouched.
func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return fmt.Sprintf("%s\x00", s)
}

func safeStrings(sgs []string) []string {
	safe := []string{}
	for _, s := range sgs {
		safe = append(safe, safeString(s))
	}
	return safe
}

// unsafeString strips the null terminator for comparisons and display
func unsafeString(s string) string {
	return strings.TrimRight(s, "\x00")
}

// GetPixels transforms a given image into right arrangement of pixels
// by drawing the decoded image onto a controlled RGBA canvas
func GetPixels(img image.Image, rowPitch int) ([]uint8, error) {
	newImg := image.NewRGBA(img.Bounds())
	if rowPitch > 0 && rowPitch <= 4*img.Bounds().Dy() {
		// apply the proposed row pitch only if supported,
		// as we're using only optimal textures.
		newImg.Stride = rowPitch
	}
	draw.Draw(newImg, newImg.Bounds(), img, image.ZP, draw.Src)
	return newImg.Pix, nil
}
