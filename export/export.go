// Package export projects a parsed project onto the generic JSON document
// consumed by downstream tooling. The document deliberately keeps only what
// a sequencer-agnostic consumer can use: named arrangements of tracks,
// clips with their notes or automation values, and timeline markers.
package export

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ewen-lbh/flptools/project"
)

// The root of the output document.
type Document struct {
	Info         Info                   `json:"info"`
	Arrangements map[string]Arrangement `json:"arrangements"`
}

// Song-level metadata.
type Info struct {
	Name string  `json:"name"`
	BPM  float64 `json:"bpm"`
}

// A single arrangement: tracks keyed by display name, each holding clips
// keyed by their tick position, plus timeline markers keyed the same way.
// All position keys are decimal strings without leading zeros.
type Arrangement struct {
	Tracks  map[string]map[string]Clip `json:"tracks"`
	Markers map[string]string          `json:"markers"`
}

type Clip struct {
	Length int      `json:"length"`
	Name   string   `json:"name"`
	Data   ClipData `json:"data"`
}

// The content of a clip. Pattern clips fill Notes, automation clips fill
// Values, and every other clip leaves both empty. The maps are always
// present so consumers never see null.
type ClipData struct {
	Notes  map[string]Note    `json:"notes"`
	Values map[string]float64 `json:"values"`
	Length int                `json:"length"`
}

type Note struct {
	Key      string `json:"key"`
	Pitch    int    `json:"pitch"`
	Length   int    `json:"length"`
	Velocity int    `json:"velocity"`
}

// Build projects the parsed project onto a Document.
//
// Tracks sharing a display name overwrite each other, as do notes sharing a
// position within a pattern: the one appearing later wins. The only way
// Build fails is a note key that KeyToPitch cannot convert.
func Build(p *project.Project) (*Document, error) {
	doc := &Document{
		Info:         Info{Name: p.Title, BPM: p.Tempo},
		Arrangements: make(map[string]Arrangement, len(p.Arrangements)),
	}

	for _, arrangement := range p.Arrangements {
		out := Arrangement{
			Tracks:  make(map[string]map[string]Clip, len(arrangement.Tracks)),
			Markers: make(map[string]string, len(arrangement.TimeMarkers)),
		}

		for _, track := range arrangement.Tracks {
			clips := make(map[string]Clip, len(track.Clips))
			for _, clip := range track.Clips {
				data, err := clipData(clip)
				if err != nil {
					return nil, err
				}
				clips[strconv.Itoa(clip.Position)] = Clip{
					Length: clip.Length,
					Name:   clip.Name(),
					Data:   data,
				}
			}
			out.Tracks[track.DisplayName()] = clips
		}

		for _, marker := range arrangement.TimeMarkers {
			out.Markers[strconv.Itoa(marker.Position)] = marker.Name
		}

		doc.Arrangements[arrangement.Name] = out
	}

	return doc, nil
}

// clipData extracts the clip's content according to its kind.
func clipData(clip project.Clip) (ClipData, error) {
	data := ClipData{
		Notes:  map[string]Note{},
		Values: map[string]float64{},
	}

	switch clip.Kind {
	case project.ClipPattern:
		pattern := clip.Pattern
		for _, note := range pattern.Notes {
			pitch, err := KeyToPitch(note.Key)
			if err != nil {
				return ClipData{}, fmt.Errorf("pattern %q: %w", pattern.Name, err)
			}
			data.Notes[strconv.Itoa(note.Position)] = Note{
				Key:      note.Key,
				Pitch:    pitch,
				Length:   note.Length,
				Velocity: note.Velocity,
			}
		}
		data.Length = pattern.Length()

	case project.ClipChannel:
		channel := clip.Channel
		if channel.IsAutomation() {
			for _, point := range channel.Points {
				data.Values[strconv.Itoa(point.Position)] = point.Value
			}
		}
		data.Length = channel.Length()
	}

	return data, nil
}

// Encode renders the document as UTF-8 JSON, indented with four spaces.
// Map keys come out sorted, so the same project always encodes to the
// same bytes.
func Encode(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "    ")
}
