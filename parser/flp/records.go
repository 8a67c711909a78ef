package flp

import (
	"fmt"
	"strconv"

	"github.com/ghostiam/binstruct"
)

// A note as stored in a pattern notes event, 24 bytes little-endian.
type noteRecord struct {
	Position    uint32
	Flags       uint16
	RackChannel uint16
	Length      uint32
	Key         uint16
	Group       uint16
	FinePitch   uint8
	Reserved    uint8
	Release     uint8
	MidiChannel uint8
	Pan         uint8
	Velocity    uint8
	ModX        uint8
	ModY        uint8
}

const noteRecordSize = 24

// A playlist item as stored in a playlist items event, 32 bytes
// little-endian. ItemIndex points at a pattern when it is at least
// PatternBase, at a channel otherwise. TrackRvIdx counts tracks from the
// bottom of the arrangement.
type playlistItemRecord struct {
	Position    uint32
	PatternBase uint16
	ItemIndex   uint16
	Length      uint32
	TrackRvIdx  int32
	Group       uint16
	Pad1        uint16
	Flags       uint16
	Pad2        uint16
	StartOffset int32
	EndOffset   int32
}

const playlistItemRecordSize = 32

// An automation point as stored in an automation data event, 24 bytes
// little-endian. Positions are fractional ticks.
type pointRecord struct {
	Position float64
	Value    float64
	Tension  float32
	Reserved uint32
}

const pointRecordSize = 24

// decodeRecords splits a payload into fixed-size records and unmarshals each
// one. The payload must be an exact multiple of the record size.
func decodeRecords[T any](payload []byte, size int) ([]T, error) {
	if len(payload)%size != 0 {
		return nil, fmt.Errorf("payload of %d bytes is not a multiple of the %d byte record size", len(payload), size)
	}

	records := make([]T, len(payload)/size)
	for i := range records {
		if err := binstruct.UnmarshalLE(payload[i*size:(i+1)*size], &records[i]); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return records, nil
}

// Names of the twelve semitones, indexed by key number modulo 12.
var keyNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// keyName renders a numeric key as a note name with octave, C5 being MIDI
// middle C (key 60).
func keyName(key int) string {
	return keyNames[key%12] + strconv.Itoa(key/12)
}
