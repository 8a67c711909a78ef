package project

import (
	"fmt"
	"strings"
	"time"
)

// The tempo FL Studio assigns to a freshly created project, used when a
// project file carries no tempo event at all.
const DefaultTempo = 130.0

// The pulses-per-quarter-note value assumed when the file header leaves it unset.
const DefaultPPQ = 96

type ChannelKind int

const (
	UnknownChannel    ChannelKind = iota
	SamplerChannel                // Audio sample player.
	NativeChannel                 // Built-in FL Studio plugin (includes audio clips).
	LayerChannel                  // Groups other channels, holds no content of its own.
	InstrumentChannel             // Generator plugin (VST or similar).
	AutomationChannel             // Holds automation points instead of notes.
)

func (k ChannelKind) String() string {
	switch k {
	case SamplerChannel:
		return "sampler"
	case NativeChannel:
		return "native plugin"
	case LayerChannel:
		return "layer"
	case InstrumentChannel:
		return "instrument"
	case AutomationChannel:
		return "automation"
	default:
		return "unknown"
	}
}

type ClipKind int

const (
	ClipNone    ClipKind = iota // The clip references nothing that exists in the project.
	ClipPattern                 // The clip places a pattern on the playlist.
	ClipChannel                 // The clip places a channel (audio or automation) on the playlist.
)

// A whole project file: the song metadata plus everything placed in the
// channel rack, the pattern list and the playlist arrangements.
type Project struct {
	Title   string
	Version string  // FL Studio version string that saved the file, e.g. "20.8.3.2304".
	Tempo   float64 // Beats per minute.
	PPQ     int     // Pulses (ticks) per quarter note.

	Channels     []*Channel
	Patterns     []*Pattern
	Arrangements []*Arrangement
}

// A single entry in the channel rack.
type Channel struct {
	IID  int // Internal channel identifier, referenced by playlist items.
	Kind ChannelKind
	// The name shown in the rack: the user-given name when one was set,
	// otherwise the default name the plugin or sample provided.
	Name string

	// Automation points, only populated for automation channels.
	Points []Point
}

// A single point on an automation channel's curve.
type Point struct {
	Position int // In ticks.
	Value    float64
}

func (c *Channel) IsAutomation() bool {
	return c.Kind == AutomationChannel
}

// Length returns the extent of the channel's content in ticks.
// Only automation channels have a measurable extent; everything else is 0.
func (c *Channel) Length() int {
	if !c.IsAutomation() {
		return 0
	}
	length := 0
	for _, point := range c.Points {
		if point.Position > length {
			length = point.Position
		}
	}
	return length
}

// A pattern from the project's pattern list.
type Pattern struct {
	Number int // 1-based pattern number, as referenced by playlist items.
	Name   string
	Notes  []Note
}

// Length returns the extent of the pattern in ticks, which is the end of
// whichever note reaches furthest. An empty pattern has length 0.
func (p *Pattern) Length() int {
	length := 0
	for _, note := range p.Notes {
		if end := note.Position + note.Length; end > length {
			length = end
		}
	}
	return length
}

// A note inside a pattern.
type Note struct {
	Position int    // In ticks, relative to the pattern start.
	Key      string // Note name with octave, e.g. "A#4".
	Length   int    // In ticks.
	Velocity int
}

// One of the project's playlist arrangements.
type Arrangement struct {
	Name        string
	Tracks      []*Track
	TimeMarkers []TimeMarker
}

// A marker placed on the arrangement's timeline.
type TimeMarker struct {
	Position int // In ticks.
	Name     string
}

// A playlist track inside an arrangement.
type Track struct {
	Name  string // The user-given track name, blank when never renamed.
	Clips []Clip
}

// DisplayName returns the track's declared name, falling back to the name of
// the first clip that has one. Tracks with no name and no named clips
// return the empty string.
func (t *Track) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	for _, clip := range t.Clips {
		if name := clip.Name(); name != "" {
			return name
		}
	}
	return ""
}

// A playlist item: a slice of a pattern or a channel placed on a track.
// Kind tells which of the two references is set; a clip whose reference
// could not be resolved keeps ClipNone and both pointers nil.
type Clip struct {
	Position int // In ticks, on the arrangement timeline.
	Length   int // In ticks.

	Kind    ClipKind
	Pattern *Pattern // Set when Kind == ClipPattern.
	Channel *Channel // Set when Kind == ClipChannel.
}

// Name returns the name of whatever the clip places on the playlist.
func (c Clip) Name() string {
	switch c.Kind {
	case ClipPattern:
		return c.Pattern.Name
	case ClipChannel:
		return c.Channel.Name
	default:
		return ""
	}
}

// TimeAt converts a tick position on the project's timeline to wall-clock
// time, assuming the tempo stays constant for the whole song.
func (p *Project) TimeAt(ticks int) time.Duration {
	if p.Tempo <= 0 || p.PPQ <= 0 {
		return 0
	}
	seconds := float64(ticks) * 60 / (float64(p.PPQ) * p.Tempo)
	return time.Duration(seconds * float64(time.Second))
}

// Pretty-print
func (p *Project) String() string {
	var b strings.Builder
	b.WriteString("FL Studio project:\n")
	fmt.Fprintf(&b, "- Title: %s\n", p.Title)
	fmt.Fprintf(&b, "- Saved by FL Studio %s\n", p.Version)
	fmt.Fprintf(&b, "- Tempo: %g BPM\n", p.Tempo)
	fmt.Fprintf(&b, "- Resolution: %d PPQ\n", p.PPQ)

	fmt.Fprintf(&b, "- Channels: %d\n", len(p.Channels))
	for _, channel := range p.Channels {
		fmt.Fprintf(&b, "  - #%d %q (%s)", channel.IID, channel.Name, channel.Kind)
		if channel.IsAutomation() {
			fmt.Fprintf(&b, " with %d points", len(channel.Points))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "- Patterns: %d\n", len(p.Patterns))
	for _, pattern := range p.Patterns {
		fmt.Fprintf(&b, "  - #%d %q: %d note", pattern.Number, pattern.Name, len(pattern.Notes))
		if len(pattern.Notes) != 1 {
			b.WriteString("s") // Pluralise the word "note" if needed.
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "- Arrangements: %d\n", len(p.Arrangements))
	for _, arrangement := range p.Arrangements {
		used := 0
		clips := 0
		for _, track := range arrangement.Tracks {
			if len(track.Clips) > 0 {
				used++
				clips += len(track.Clips)
			}
		}
		fmt.Fprintf(&b, "  - %q: %d clips on %d of %d tracks, %d markers\n",
			arrangement.Name, clips, used, len(arrangement.Tracks), len(arrangement.TimeMarkers))
		for _, marker := range arrangement.TimeMarkers {
			fmt.Fprintf(&b, "    - marker %q at tick %d (%s)\n",
				marker.Name, marker.Position, p.TimeAt(marker.Position).Round(time.Millisecond))
		}
	}

	return b.String()
}
