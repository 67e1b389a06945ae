// Package render defines the frame buffer contract engines decode into.
package render

import "errors"

// I420 is planar YUV 4:2:0, the only chroma the built-in provider accepts.
const I420 = "I420"

// ErrUnsupportedChroma is returned by Negotiate for formats the provider cannot hold.
var ErrUnsupportedChroma = errors.New("unsupported chroma")

// Plane describes one negotiated plane.
type Plane struct {
	Pitch int
	Lines int
}

// Size is the number of bytes the plane occupies.
func (p Plane) Size() int {
	return p.Pitch * p.Lines
}

// Provider supplies the buffers an engine writes decoded frames into.
//
// Every successful Acquire must be paired with exactly one Release, even when
// filling the buffer fails.
type Provider interface {
	// Negotiate allocates buffers for the given chroma and frame size and
	// returns the layout of each plane.
	Negotiate(chroma string, width, height int) ([]Plane, error)

	// Acquire returns writable planes for the next frame.
	Acquire() [][]byte

	// Release hands the frame back to the provider.
	Release()

	// SetPixelAspect records the sample aspect ratio of the video.
	SetPixelAspect(ratio float64)
}

// PlanesFor returns the plane layout of a chroma at the given size.
func PlanesFor(chroma string, width, height int) ([]Plane, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("frame size must be positive")
	}

	switch chroma {
	case I420:
		cw, ch := (width+1)/2, (height+1)/2
		return []Plane{
			{Pitch: width, Lines: height},
			{Pitch: cw, Lines: ch},
			{Pitch: cw, Lines: ch},
		}, nil
	default:
		return nil, ErrUnsupportedChroma
	}
}
