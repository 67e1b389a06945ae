package render

import (
	"sync"
)

// Frame is a snapshot of the last presented picture.
type Frame struct {
	Width, Height int
	Planes        [][]byte
	Aspect        float64
	Sequence      uint64
}

// Memory is a double-buffered Provider that keeps the last presented frame in memory.
type Memory struct {
	mu     sync.Mutex
	fill   sync.Mutex
	width  int
	height int
	layout []Plane
	back   [][]byte
	front  [][]byte
	aspect float64
	seq    uint64
}

// NewMemory returns an empty provider. Negotiate must be called before Acquire.
func NewMemory() *Memory {
	return &Memory{aspect: 1}
}

func (m *Memory) Negotiate(chroma string, width, height int) ([]Plane, error) {
	layout, err := PlanesFor(chroma, width, height)
	if err != nil {
		return nil, err
	}

	m.fill.Lock()
	defer m.fill.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.width, m.height = width, height
	m.layout = layout
	m.back = allocate(layout)
	m.front = allocate(layout)
	return layout, nil
}

// Acquire locks the back buffer until Release.
func (m *Memory) Acquire() [][]byte {
	m.fill.Lock()
	return m.back
}

// Release publishes the back buffer as the new front frame.
func (m *Memory) Release() {
	m.mu.Lock()
	m.back, m.front = m.front, m.back
	m.seq++
	m.mu.Unlock()
	m.fill.Unlock()
}

func (m *Memory) SetPixelAspect(ratio float64) {
	if ratio <= 0 {
		ratio = 1
	}
	m.mu.Lock()
	m.aspect = ratio
	m.mu.Unlock()
}

// Snapshot copies the front frame. The second result is false before the first Release.
func (m *Memory) Snapshot() (Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.seq == 0 {
		return Frame{}, false
	}

	planes := make([][]byte, len(m.front))
	for i, p := range m.front {
		planes[i] = append([]byte(nil), p...)
	}
	return Frame{
		Width:    m.width,
		Height:   m.height,
		Planes:   planes,
		Aspect:   m.aspect,
		Sequence: m.seq,
	}, true
}

func allocate(layout []Plane) [][]byte {
	planes := make([][]byte, len(layout))
	for i, p := range layout {
		planes[i] = make([]byte, p.Size())
	}
	return planes
}
