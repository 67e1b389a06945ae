package player

import (
	"bufio"
	"errors"
	"io"

	"github.com/vplayer/vplayer/render"
)

// pumpFrames reads raw planar frames from r into the provider until r ends.
// onFrame runs after each frame is released; first is true for the first one.
// It returns the number of complete frames.
func pumpFrames(r io.Reader, provider render.Provider, frameSize int, onFrame func(first bool)) (int, error) {
	br := bufio.NewReaderSize(r, frameSize)
	for n := 0; ; n++ {
		// no buffer is taken when the stream ended on a frame boundary
		if _, err := br.Peek(1); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}

		if err := readFrame(br, provider); err != nil {
			return n, err
		}
		onFrame(n == 0)
	}
}

// readFrame fills one acquired buffer. The buffer is released on every path.
func readFrame(r io.Reader, provider render.Provider) error {
	planes := provider.Acquire()
	defer provider.Release()

	for _, plane := range planes {
		if _, err := io.ReadFull(r, plane); err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	return nil
}

func frameSize(planes []render.Plane) int {
	total := 0
	for _, p := range planes {
		total += p.Size()
	}
	return total
}
