package session

import (
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vplayer/vplayer/player"
)

// DisableLabel names the entry that turns subtitles off.
const DisableLabel = "Disable"

// TrackSet is the exclusive selection group of one track kind.
type TrackSet struct {
	kind   player.TrackKind
	tracks []player.Track
}

func NewTrackSet(kind player.TrackKind) *TrackSet {
	return &TrackSet{kind: kind}
}

func disabledTrack() player.Track {
	return player.Track{
		ID:    player.DisabledTrack,
		Label: DisableLabel,
		Kind:  player.Subtitle,
	}
}

// Reset replaces the entries with the engine's tracks.
// A non-empty subtitle set starts with the Disable entry.
func (s *TrackSet) Reset(tracks []player.Track) {
	s.tracks = lo.Filter(tracks, func(t player.Track, _ int) bool {
		return t.ID != player.DisabledTrack
	})

	if s.kind == player.Subtitle && len(s.tracks) > 0 {
		disabled := disabledTrack()
		disabled.Selected = !lo.ContainsBy(s.tracks, func(t player.Track) bool { return t.Selected })
		s.tracks = append([]player.Track{disabled}, s.tracks...)
	}
}

// Add appends t; a first subtitle brings the Disable entry along.
func (s *TrackSet) Add(t player.Track) {
	if s.kind == player.Subtitle && len(s.tracks) == 0 && t.ID != player.DisabledTrack {
		s.tracks = append(s.tracks, disabledTrack())
	}
	t.Kind = s.kind
	t.Selected = false
	s.tracks = append(s.tracks, t)
}

func (s *TrackSet) Has(id int) bool {
	return lo.ContainsBy(s.tracks, func(t player.Track) bool { return t.ID == id })
}

// Select marks id as the only selected entry. Unknown ids leave the set untouched.
func (s *TrackSet) Select(id int) bool {
	if !s.Has(id) {
		return false
	}
	for i := range s.tracks {
		s.tracks[i].Selected = s.tracks[i].ID == id
	}
	return true
}

// Selected returns the checked entry, if any.
func (s *TrackSet) Selected() mo.Option[player.Track] {
	t, ok := lo.Find(s.tracks, func(t player.Track) bool { return t.Selected })
	if !ok {
		return mo.None[player.Track]()
	}
	return mo.Some(t)
}

func (s *TrackSet) Empty() bool {
	return len(s.tracks) == 0
}

func (s *TrackSet) Clear() {
	s.tracks = nil
}

// List returns a copy of the entries in menu order.
func (s *TrackSet) List() []player.Track {
	return append([]player.Track(nil), s.tracks...)
}
