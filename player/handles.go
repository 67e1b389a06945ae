package player

import "sync"

// handles owns a bound media together with the engine instance created from it.
// The instance is always released before the media, and neither is reachable
// after release.
type handles[M, P any] struct {
	mu     sync.Mutex
	media  *M
	player *P
}

// bind installs a new pair. Any previous pair must have been released.
func (h *handles[M, P]) bind(media *M, player *P) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.media, h.player = media, player
}

// release frees the pair in reverse creation order. It is idempotent.
func (h *handles[M, P]) release(freePlayer func(*P), freeMedia func(*M)) {
	h.mu.Lock()
	media, player := h.media, h.player
	h.media, h.player = nil, nil
	h.mu.Unlock()

	if player != nil && freePlayer != nil {
		freePlayer(player)
	}
	if media != nil && freeMedia != nil {
		freeMedia(media)
	}
}

// with calls fn with the bound pair and reports whether one was bound.
// The pair cannot be released while fn runs.
func (h *handles[M, P]) with(fn func(media *M, player *P)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.player == nil {
		return false
	}
	fn(h.media, h.player)
	return true
}

func (h *handles[M, P]) bound() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.player != nil
}
