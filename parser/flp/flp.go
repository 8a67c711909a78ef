// Package flp reads FL Studio project files into the shared project model.
//
// A project file is two chunks: an "FLhd" header carrying the format, channel
// count and timebase, then an "FLdt" chunk holding a stream of tagged events.
// Song structure is rebuilt by walking the events in order, since most of
// them apply to whichever channel, pattern or arrangement was opened last.
// Events this package does not know about (plugin state, mixer routing, UI
// layout) are skipped.
package flp

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/ewen-lbh/flptools/project"
	"github.com/ghostiam/binstruct"
)

// The file header chunk. Length counts the three fields after it and is
// always 6.
type fileHeader struct {
	Magic    []byte `bin:"len:4"`
	Length   uint32
	Format   uint16
	Channels uint16
	PPQ      uint16
}

// The data chunk header. Length counts the event stream bytes that follow.
type dataHeader struct {
	Magic  []byte `bin:"len:4"`
	Length uint32
}

const (
	headerMagic = "FLhd"
	dataMagic   = "FLdt"

	fileHeaderSize = 14
	dataHeaderSize = 8
)

// Playlist items store their track as a count from the bottom of the
// arrangement, so they can only be resolved once every track is known.
type pendingPlaylist struct {
	arrangement *project.Arrangement
	off         int
	records     []playlistItemRecord
}

// Small struct for non-fatal warnings
type ParseWarning struct {
	Offset  int
	Message string
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("offset %d: %s", w.Offset, w.Message)
}

type Parser struct {
	r      io.Reader
	logger *log.Logger

	// Whether text events hold UTF-16, decided by the version event.
	unicode bool

	// Collect any warnings whilst parsing.
	warnings []ParseWarning

	// Whether or not the parser has already been used.
	// Parsing can only be done once per Parser.
	used bool
}

// NewParser creates a new parser to read a project file.
func NewParser(r io.Reader, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	return &Parser{r: r, logger: logger}
}

// addWarning adds to the list of warnings encountered when parsing.
func (p *Parser) addWarning(off int, format string, args ...any) {
	p.warnings = append(p.warnings, ParseWarning{
		Offset:  off,
		Message: fmt.Sprintf(format, args...),
	})
}

// Warnings returns the warnings collected by Parse, in file order.
func (p *Parser) Warnings() []ParseWarning {
	return p.warnings
}

// Parse reads the whole file and builds the project model. Warnings are
// logged but only malformed files produce an error.
func (p *Parser) Parse() (*project.Project, error) {
	if p.used {
		return nil, fmt.Errorf("parser already used")
	}
	p.used = true

	raw, err := io.ReadAll(p.r)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	events, header, err := p.readChunks(raw)
	if err != nil {
		return nil, err
	}

	proj, err := p.build(events, header)
	if err != nil {
		return nil, err
	}

	if len(p.warnings) > 0 {
		p.logger.Println("Warnings produced while parsing file:")
		for _, warning := range p.warnings {
			p.logger.Printf("%v\n", warning)
		}
	}

	return proj, nil
}

// ParseFile opens and parses the project file at path.
func ParseFile(path string, logger *log.Logger) (*project.Project, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening project file: %w", err)
	}
	defer file.Close()

	return NewParser(file, logger).Parse()
}

// readChunks validates both chunk headers and decodes the event stream.
func (p *Parser) readChunks(raw []byte) ([]event, fileHeader, error) {
	var header fileHeader
	if len(raw) < fileHeaderSize+dataHeaderSize {
		return nil, header, fmt.Errorf("file is too short to be an FL Studio project (%d bytes)", len(raw))
	}

	if err := binstruct.UnmarshalLE(raw[:fileHeaderSize], &header); err != nil {
		return nil, header, fmt.Errorf("reading file header: %w", err)
	}
	if string(header.Magic) != headerMagic {
		return nil, header, fmt.Errorf("not an FL Studio project: expected %q chunk, found %q", headerMagic, header.Magic)
	}
	if header.Length != 6 {
		return nil, header, fmt.Errorf("unexpected header chunk length %d", header.Length)
	}
	if header.Format != 0 {
		p.addWarning(0, "file format %d is not a full song, results may be incomplete", header.Format)
	}

	var data dataHeader
	if err := binstruct.UnmarshalLE(raw[fileHeaderSize:fileHeaderSize+dataHeaderSize], &data); err != nil {
		return nil, header, fmt.Errorf("reading data header: %w", err)
	}
	if string(data.Magic) != dataMagic {
		return nil, header, fmt.Errorf("expected %q chunk after the header, found %q", dataMagic, data.Magic)
	}

	stream := raw[fileHeaderSize+dataHeaderSize:]
	if len(stream) < int(data.Length) {
		return nil, header, fmt.Errorf("event data is cut short: chunk declares %d bytes, file holds %d", data.Length, len(stream))
	}
	if len(stream) > int(data.Length) {
		p.addWarning(0, "ignoring %d bytes after the event data", len(stream)-int(data.Length))
		stream = stream[:data.Length]
	}

	events, err := decodeEvents(stream)
	if err != nil {
		return nil, header, err
	}
	return events, header, nil
}

// build walks the decoded events in order and assembles the project.
func (p *Parser) build(events []event, header fileHeader) (*project.Project, error) {
	proj := &project.Project{
		Tempo: project.DefaultTempo,
		PPQ:   int(header.PPQ),
	}
	if proj.PPQ == 0 {
		p.addWarning(0, "header declares no pulses per quarter note, assuming %d", project.DefaultPPQ)
		proj.PPQ = project.DefaultPPQ
	}

	channels := make(map[int]*project.Channel)
	patterns := make(map[int]*project.Pattern)
	userNamed := make(map[*project.Channel]bool)

	var (
		curChannel *project.Channel
		curPattern *project.Pattern
		curArr     *project.Arrangement
		curTrack   *project.Track
		curMarker  *project.TimeMarker
		fineTempo  bool
		pending    []pendingPlaylist
	)

	// arrangement returns the current arrangement, opening an implicit one
	// for projects too old to write arrangement events.
	arrangement := func() *project.Arrangement {
		if curArr == nil {
			curArr = &project.Arrangement{Name: "Arrangement"}
			proj.Arrangements = append(proj.Arrangements, curArr)
		}
		return curArr
	}

	for i := range events {
		ev := &events[i]
		switch ev.id {
		case eventVersion:
			// The version string itself is plain ASCII in every version.
			proj.Version = decodeText(ev.data, false)
			p.unicode = versionUsesUnicode(proj.Version)

		case eventTitle:
			proj.Title = p.text(ev)

		case eventTempoFine:
			proj.Tempo = float64(ev.value) / 1000
			fineTempo = true

		case eventTempoWord:
			// Old projects store whole BPM. The precise event wins when both appear.
			if !fineTempo {
				proj.Tempo = float64(ev.value)
			}

		case eventChanNew:
			curChannel = &project.Channel{IID: int(ev.value)}
			proj.Channels = append(proj.Channels, curChannel)
			channels[curChannel.IID] = curChannel

		case eventChanKind:
			if curChannel == nil {
				p.addWarning(ev.off, "channel kind event before any channel")
				break
			}
			kind, known := channelKind(uint8(ev.value))
			if !known {
				p.addWarning(ev.off, "channel %d has unknown kind %d", curChannel.IID, ev.value)
			}
			curChannel.Kind = kind

		case eventChanDefName:
			if curChannel == nil {
				p.addWarning(ev.off, "channel name event before any channel")
				break
			}
			// The default name is the plugin or sample name. A name the user
			// typed in overrides it whatever the event order.
			if !userNamed[curChannel] {
				curChannel.Name = p.text(ev)
			}

		case eventChanName:
			if curChannel == nil {
				p.addWarning(ev.off, "channel name event before any channel")
				break
			}
			curChannel.Name = p.text(ev)
			userNamed[curChannel] = true

		case eventAutoPoints:
			if curChannel == nil {
				p.addWarning(ev.off, "automation points event before any channel")
				break
			}
			records, err := decodeRecords[pointRecord](ev.data, pointRecordSize)
			if err != nil {
				return nil, fmt.Errorf("automation points of channel %d: %w", curChannel.IID, err)
			}
			for _, record := range records {
				curChannel.Points = append(curChannel.Points, project.Point{
					Position: int(math.Round(record.Position)),
					Value:    record.Value,
				})
			}

		case eventPatNew:
			number := int(ev.value)
			if number == 0 {
				p.addWarning(ev.off, "pattern number 0 is not valid")
				curPattern = nil
				break
			}
			// The same pattern is reopened before each of its data events.
			if existing, known := patterns[number]; known {
				curPattern = existing
				break
			}
			curPattern = &project.Pattern{Number: number}
			proj.Patterns = append(proj.Patterns, curPattern)
			patterns[number] = curPattern

		case eventPatName:
			if curPattern == nil {
				p.addWarning(ev.off, "pattern name event before any pattern")
				break
			}
			curPattern.Name = p.text(ev)

		case eventPatNotes:
			if curPattern == nil {
				p.addWarning(ev.off, "pattern notes event before any pattern")
				break
			}
			records, err := decodeRecords[noteRecord](ev.data, noteRecordSize)
			if err != nil {
				return nil, fmt.Errorf("notes of pattern %d: %w", curPattern.Number, err)
			}
			for _, record := range records {
				if record.Key > 131 {
					p.addWarning(ev.off, "pattern %d holds note key %d outside the 0..131 range", curPattern.Number, record.Key)
				}
				curPattern.Notes = append(curPattern.Notes, project.Note{
					Position: int(record.Position),
					Key:      keyName(int(record.Key)),
					Length:   int(record.Length),
					Velocity: int(record.Velocity),
				})
			}

		case eventArrNew:
			curArr = &project.Arrangement{Name: "Arrangement"}
			proj.Arrangements = append(proj.Arrangements, curArr)
			curTrack = nil
			curMarker = nil

		case eventArrName:
			arrangement().Name = p.text(ev)

		case eventTrackInfo:
			if len(ev.data) < 4 {
				return nil, fmt.Errorf("track info event at offset %d holds %d bytes, expected at least 4", ev.off, len(ev.data))
			}
			curTrack = &project.Track{}
			a := arrangement()
			a.Tracks = append(a.Tracks, curTrack)

		case eventTrackName:
			if curTrack == nil {
				p.addWarning(ev.off, "track name event before any track")
				break
			}
			curTrack.Name = p.text(ev)

		case eventMarkerPos:
			a := arrangement()
			position := int(ev.value)
			// Time signature markers carry a flag bit on top of the position.
			if position >= 1<<27 {
				position -= 1 << 27
			}
			a.TimeMarkers = append(a.TimeMarkers, project.TimeMarker{Position: position})
			curMarker = &a.TimeMarkers[len(a.TimeMarkers)-1]

		case eventMarkerName:
			if curMarker == nil {
				p.addWarning(ev.off, "marker name event before any marker")
				break
			}
			curMarker.Name = p.text(ev)

		case eventPlaylist:
			a := arrangement()
			records, err := decodeRecords[playlistItemRecord](ev.data, playlistItemRecordSize)
			if err != nil {
				return nil, fmt.Errorf("playlist items of arrangement %q: %w", a.Name, err)
			}
			pending = append(pending, pendingPlaylist{arrangement: a, off: ev.off, records: records})
		}
	}

	for _, batch := range pending {
		for _, record := range batch.records {
			if err := p.placeItem(batch.arrangement, record, batch.off, channels, patterns); err != nil {
				return nil, err
			}
		}
	}

	if int(header.Channels) != len(proj.Channels) {
		p.addWarning(0, "header declares %d channels, found %d", header.Channels, len(proj.Channels))
	}

	return proj, nil
}

// placeItem resolves one playlist item onto its track and its pattern or
// channel. A reference to a track that does not exist is an error, a
// reference to a missing pattern or channel leaves a clip with no target.
func (p *Parser) placeItem(a *project.Arrangement, record playlistItemRecord, off int, channels map[int]*project.Channel, patterns map[int]*project.Pattern) error {
	index := len(a.Tracks) - int(record.TrackRvIdx)
	if index < 0 || index >= len(a.Tracks) {
		return fmt.Errorf("playlist item at offset %d references track %d of %d", off, index, len(a.Tracks))
	}

	clip := project.Clip{
		Position: int(record.Position),
		Length:   int(record.Length),
	}

	if record.ItemIndex >= record.PatternBase {
		number := int(record.ItemIndex - record.PatternBase)
		if pattern, known := patterns[number]; known {
			clip.Kind = project.ClipPattern
			clip.Pattern = pattern
		} else {
			p.addWarning(off, "playlist item references missing pattern %d", number)
		}
	} else {
		iid := int(record.ItemIndex)
		if channel, known := channels[iid]; known {
			clip.Kind = project.ClipChannel
			clip.Channel = channel
		} else {
			p.addWarning(off, "playlist item references missing channel %d", iid)
		}
	}

	track := a.Tracks[index]
	track.Clips = append(track.Clips, clip)
	return nil
}

// text decodes a text event payload using the codec the project's version
// calls for.
func (p *Parser) text(ev *event) string {
	if p.unicode && len(ev.data)%2 != 0 {
		p.addWarning(ev.off, "text event %d has an odd payload size %d", ev.id, len(ev.data))
	}
	return decodeText(ev.data, p.unicode)
}

// channelKind maps the kind byte of a channel to the model's enum.
func channelKind(raw uint8) (project.ChannelKind, bool) {
	switch raw {
	case 0:
		return project.SamplerChannel, true
	case 2:
		return project.NativeChannel, true
	case 3:
		return project.LayerChannel, true
	case 4:
		return project.InstrumentChannel, true
	case 5:
		return project.AutomationChannel, true
	default:
		return project.UnknownChannel, false
	}
}
