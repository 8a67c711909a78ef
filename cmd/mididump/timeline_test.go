package main

import (
	"bytes"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func smfBytes(t *testing.T, s *smf.SMF) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := s.WriteTo(&buf); err != nil {
		t.Fatalf("write smf: %v", err)
	}
	return buf.Bytes()
}

func TestNoteEventString(t *testing.T) {
	cases := []struct {
		note noteEvent
		text string
	}{
		{noteEvent{key: 60, velocity: 100}, "60"},
		{noteEvent{key: 60, velocity: 0}, "60↓"},
		{noteEvent{key: 60, velocity: 64}, "60@64"},
		{noteEvent{key: 127, velocity: 1}, "127@1"},
	}
	for _, c := range cases {
		if got := c.note.String(); got != c.text {
			t.Fatalf("String of %+v: got %q, want %q", c.note, got, c.text)
		}
	}
}

func TestNoteEventLine(t *testing.T) {
	note := noteEvent{micros: 65_432_000, tick: 123, track: "Drums", key: 60, velocity: 0}
	want := "1'05.432\"#123 Drums 60↓"
	if got := note.line(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	first := noteEvent{micros: 0, tick: 0, track: "Track #1", key: 60, velocity: 100}
	want = "0'00.000\"#0 Track #1 60"
	if got := first.line(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCollectNotesConvertsTicks(t *testing.T) {
	clock := smf.MetricTicks(96)
	s := smf.New()
	s.TimeFormat = clock

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(96, midi.NoteOff(0, 60))
	tr.Close(0)
	s.Add(tr)

	notes := collectNotes(bytes.NewReader(smfBytes(t, s)), []string{"Piano"})
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	on, off := notes[0], notes[1]
	if on.micros != 0 || on.tick != 0 || on.key != 60 || on.velocity != 100 || on.track != "Piano" {
		t.Fatalf("note on mismatch: %+v", on)
	}
	// One beat at 120 BPM is half a second.
	if off.micros != 500_000 || off.tick != 96 || !off.off() {
		t.Fatalf("note off mismatch: %+v", off)
	}
}

func TestCollectNotesHonorsTempoChanges(t *testing.T) {
	clock := smf.MetricTicks(96)
	s := smf.New()
	s.TimeFormat = clock

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(96, smf.MetaTempo(60))
	tr.Add(96, midi.NoteOff(0, 60))
	tr.Close(0)
	s.Add(tr)

	notes := collectNotes(bytes.NewReader(smfBytes(t, s)), nil)
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	// Half a second for the first beat, a full second for the second one.
	if notes[1].micros != 1_500_000 || notes[1].tick != 192 {
		t.Fatalf("tempo change not honored: %+v", notes[1])
	}
}

func TestCollectNotesFallbackNamesAndOrder(t *testing.T) {
	clock := smf.MetricTicks(96)
	s := smf.New()
	s.TimeFormat = clock

	var tr1 smf.Track
	tr1.Add(0, midi.NoteOn(0, 60, 100))
	tr1.Add(96, midi.NoteOff(0, 60))
	tr1.Close(0)
	s.Add(tr1)

	var tr2 smf.Track
	tr2.Add(0, midi.NoteOn(1, 64, 100))
	tr2.Add(96, midi.NoteOff(1, 64))
	tr2.Close(0)
	s.Add(tr2)

	notes := collectNotes(bytes.NewReader(smfBytes(t, s)), []string{"", ""})
	if len(notes) != 4 {
		t.Fatalf("expected 4 notes, got %d", len(notes))
	}
	if notes[0].track != "Track #1" || notes[1].track != "Track #2" {
		t.Fatalf("fallback names mismatch: %+v", notes[:2])
	}
	// Simultaneous notes keep track order.
	if notes[0].key != 60 || notes[1].key != 64 {
		t.Fatalf("order mismatch: %+v", notes[:2])
	}
}

func TestTrackNames(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(96)

	var tr1 smf.Track
	tr1.Add(0, smf.MetaTrackSequenceName("Drums"))
	tr1.Add(0, midi.NoteOn(0, 36, 100))
	tr1.Add(96, midi.NoteOff(0, 36))
	tr1.Close(0)
	s.Add(tr1)

	var tr2 smf.Track
	tr2.Add(0, midi.NoteOn(0, 60, 100))
	tr2.Add(96, midi.NoteOff(0, 60))
	tr2.Close(0)
	s.Add(tr2)

	names := trackNames(s)
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %v", names)
	}
	if names[0] != "Drums" || names[1] != "" {
		t.Fatalf("names mismatch: %v", names)
	}
}
