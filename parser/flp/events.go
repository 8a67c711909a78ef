package flp

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/ghostiam/binstruct"
)

// Event identifiers found in the project's event stream. The identifier
// range decides the payload size: byte events below 64, word events below
// 128, dword events below 192, and length-prefixed events above that.
const (
	eventChanKind uint8 = 21 // Kind byte of the current channel.

	eventChanNew   uint8 = 64 // Opens a channel and makes it current.
	eventPatNew    uint8 = 65 // Opens a pattern (1-based number) and makes it current.
	eventTempoWord uint8 = 66 // Legacy tempo in whole BPM.
	eventArrNew    uint8 = 99 // Opens an arrangement and makes it current.

	eventMarkerPos uint8 = 148 // Time marker position in ticks.
	eventTempoFine uint8 = 156 // Tempo in thousandths of a BPM.

	eventChanDefName uint8 = 192 // Default channel name from the plugin or sample.
	eventPatName     uint8 = 193
	eventTitle       uint8 = 194
	eventVersion     uint8 = 199 // FL Studio version string, always the first event.
	eventChanName    uint8 = 203 // User-given channel name.
	eventMarkerName  uint8 = 205
	eventPatNotes    uint8 = 224 // Note records of the current pattern.
	eventPlaylist    uint8 = 233 // Playlist item records of the current arrangement.
	eventAutoPoints  uint8 = 234 // Automation point records of the current channel.
	eventTrackInfo   uint8 = 238 // Opens a playlist track on the current arrangement.
	eventTrackName   uint8 = 239 // Names the most recently opened track.
	eventArrName     uint8 = 241
)

// Payload size class boundaries.
const (
	wordEvents  = 64  // Events from here up carry a 16-bit payload.
	dwordEvents = 128 // Events from here up carry a 32-bit payload.
	varEvents   = 192 // Events from here up carry a length-prefixed payload.
)

// A single decoded event. Fixed-size payloads land in value (widened to 32
// bits), variable-length payloads in data.
type event struct {
	id    uint8
	off   int // Byte offset inside the event stream, for diagnostics.
	value uint32
	data  []byte
}

// readVarint reads the length prefix of a variable-size event: 7-bit groups
// from least significant up, high bit set on every byte but the last.
func readVarint(r binstruct.Reader) (int, int, error) {
	length := 0
	read := 0
	shift := 0
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, read, fmt.Errorf("length prefix: %w", err)
		}
		read++
		length |= int(b&0x7f) << shift
		if b&0x80 == 0 {
			return length, read, nil
		}
		shift += 7
		if shift > 28 {
			return 0, read, fmt.Errorf("length prefix does not terminate")
		}
	}
}

// decodeEvents reads the whole event stream into a slice of events.
func decodeEvents(data []byte) ([]event, error) {
	r := binstruct.NewReaderFromBytes(data, binary.LittleEndian, false)

	var events []event
	off := 0
	for off < len(data) {
		id, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("event at offset %d: %w", off, err)
		}
		ev := event{id: id, off: off}
		off++

		remaining := len(data) - off
		switch {
		case id < wordEvents:
			if remaining < 1 {
				return nil, truncatedEvent(id, ev.off)
			}
			b, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("event %d at offset %d: %w", id, ev.off, err)
			}
			ev.value = uint32(b)
			off++

		case id < dwordEvents:
			if remaining < 2 {
				return nil, truncatedEvent(id, ev.off)
			}
			v, err := r.ReadUint16()
			if err != nil {
				return nil, fmt.Errorf("event %d at offset %d: %w", id, ev.off, err)
			}
			ev.value = uint32(v)
			off += 2

		case id < varEvents:
			if remaining < 4 {
				return nil, truncatedEvent(id, ev.off)
			}
			v, err := r.ReadUint32()
			if err != nil {
				return nil, fmt.Errorf("event %d at offset %d: %w", id, ev.off, err)
			}
			ev.value = v
			off += 4

		default:
			length, read, err := readVarint(r)
			if err != nil {
				return nil, fmt.Errorf("event %d at offset %d: %w", id, ev.off, err)
			}
			off += read
			if len(data)-off < length {
				return nil, truncatedEvent(id, ev.off)
			}
			if length > 0 {
				_, payload, err := r.ReadBytes(length)
				if err != nil {
					return nil, fmt.Errorf("event %d at offset %d: %w", id, ev.off, err)
				}
				ev.data = payload
			}
			off += length
		}

		events = append(events, ev)
	}

	return events, nil
}

func truncatedEvent(id uint8, off int) error {
	return fmt.Errorf("event %d at offset %d: payload is cut short", id, off)
}

// decodeText decodes a text event payload. Projects saved by FL Studio 11.5
// or later hold UTF-16LE, older ones Latin-1. Both pad with trailing NULs.
func decodeText(data []byte, unicode bool) string {
	if !unicode {
		runes := make([]rune, len(data))
		for i, b := range data {
			runes[i] = rune(b)
		}
		return strings.TrimRight(string(runes), "\x00")
	}

	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(data[2*i:])
	}
	return strings.TrimRight(string(utf16.Decode(units)), "\x00")
}

// versionUsesUnicode reports whether the given FL Studio version writes its
// text events as UTF-16 (true from version 11.5 on).
func versionUsesUnicode(version string) bool {
	parts := strings.SplitN(version, ".", 3)
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	if major != 11 {
		return major > 11
	}
	if len(parts) < 2 {
		return false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	return minor >= 5
}
