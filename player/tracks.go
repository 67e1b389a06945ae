package player

import (
	"fmt"
	"strings"
)

var trackProperties = map[TrackKind]string{
	Video:    "vid",
	Audio:    "aid",
	Subtitle: "sid",
}

var mpvTrackTypes = map[string]TrackKind{
	"video": Video,
	"audio": Audio,
	"sub":   Subtitle,
}

// parseTrackList converts mpv's track-list property.
func parseTrackList(data any) []Track {
	items, ok := data.([]any)
	if !ok {
		return nil
	}

	tracks := make([]Track, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		typ, _ := entry["type"].(string)
		kind, ok := mpvTrackTypes[typ]
		if !ok {
			continue
		}

		id, _ := entry["id"].(float64)
		title, _ := entry["title"].(string)
		lang, _ := entry["lang"].(string)
		codec, _ := entry["codec"].(string)
		selected, _ := entry["selected"].(bool)
		external, _ := entry["external-filename"].(string)

		tracks = append(tracks, Track{
			ID:       int(id),
			Kind:     kind,
			Label:    trackLabel(int(id), title, lang, codec),
			Selected: selected,
			External: external,
		})
	}
	return tracks
}

// trackLabel builds "#id [lang] title (codec)" from whatever the engine knows.
func trackLabel(id int, title, lang, codec string) string {
	parts := []string{fmt.Sprintf("#%d", id)}
	if lang != "" {
		parts = append(parts, "["+lang+"]")
	}
	if title != "" {
		parts = append(parts, title)
	}
	if codec != "" {
		parts = append(parts, "("+codec+")")
	}
	return strings.Join(parts, " ")
}
