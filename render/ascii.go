package render

import (
	"strings"
)

// ramp orders glyphs from dark to bright.
const ramp = " .:-=+*#%@"

// ASCII renders the luma plane of an I420 frame into cols x rows characters.
// Terminal cells are roughly twice as tall as wide, which the sampling accounts for.
func ASCII(frame Frame, cols, rows int) string {
	if cols <= 0 || rows <= 0 || len(frame.Planes) == 0 || frame.Width == 0 || frame.Height == 0 {
		return ""
	}

	luma := frame.Planes[0]
	aspect := frame.Aspect
	if aspect <= 0 {
		aspect = 1
	}

	displayWidth := float64(frame.Width) * aspect
	// fit the picture in the cell grid keeping its proportions
	scale := displayWidth / float64(cols)
	if s := float64(frame.Height) / float64(rows*2); s > scale {
		scale = s
	}
	outCols := int(displayWidth / scale)
	outRows := int(float64(frame.Height) / (scale * 2))

	var b strings.Builder
	for y := 0; y < outRows; y++ {
		sy := int(float64(y) * scale * 2)
		for x := 0; x < outCols; x++ {
			sx := int(float64(x) * scale / aspect)
			if sy >= frame.Height || sx >= frame.Width {
				b.WriteByte(' ')
				continue
			}
			v := luma[sy*frame.Width+sx]
			b.WriteByte(ramp[int(v)*(len(ramp)-1)/255])
		}
		if y < outRows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
