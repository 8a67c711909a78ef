package main

import (
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

// One note boundary on the timeline. A velocity of zero is a note-off, the
// way it works on the MIDI wire.
type noteEvent struct {
	micros   int64
	tick     int64
	track    string
	key      uint8
	velocity uint8
}

func (n noteEvent) off() bool {
	return n.velocity == 0
}

// String renders the note as its key number with a velocity suffix. The
// usual velocity of 100 is left off, a note-off renders as a down arrow.
func (n noteEvent) String() string {
	switch {
	case n.off():
		return fmt.Sprintf("%d↓", n.key)
	case n.velocity == 100:
		return fmt.Sprintf("%d", n.key)
	default:
		return fmt.Sprintf("%d@%d", n.key, n.velocity)
	}
}

// line renders a full timeline entry: wall-clock position, absolute tick,
// track, note.
func (n noteEvent) line() string {
	ms := n.micros / 1000
	minutes := ms / 60000
	seconds := ms / 1000 % 60
	millis := ms % 1000
	return fmt.Sprintf("%d'%02d.%03d\"#%d %s %s", minutes, seconds, millis, n.tick, n.track, n)
}

// collectNotes pulls every note on and off out of the file, in wall-clock
// order. The conversion from ticks honors tempo changes anywhere in the
// file. Simultaneous notes keep their track order.
func collectNotes(rd io.Reader, names []string) []noteEvent {
	var notes []noteEvent

	smf.ReadTracksFrom(rd).Do(func(ev smf.TrackEvent) {
		var channel, key, velocity uint8
		switch {
		case ev.Message.GetNoteStart(&channel, &key, &velocity):
		case ev.Message.GetNoteEnd(&channel, &key):
			velocity = 0
		default:
			return
		}

		name := fmt.Sprintf("Track #%d", ev.TrackNo+1)
		if ev.TrackNo < len(names) && names[ev.TrackNo] != "" {
			name = names[ev.TrackNo]
		}

		notes = append(notes, noteEvent{
			micros:   ev.AbsMicroSeconds,
			tick:     ev.AbsTicks,
			track:    name,
			key:      key,
			velocity: velocity,
		})
	})

	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].micros != notes[j].micros {
			return notes[i].micros < notes[j].micros
		}
		return notes[i].tick < notes[j].tick
	})
	return notes
}

// trackNames resolves each track's name from its meta events. Tracks
// without one get an empty string.
func trackNames(s *smf.SMF) []string {
	names := make([]string, len(s.Tracks))
	for i, track := range s.Tracks {
		for _, event := range track {
			var name string
			if event.Message.GetMetaTrackName(&name) {
				names[i] = name
				break
			}
		}
	}
	return names
}
