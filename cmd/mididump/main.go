// Command mididump prints a readable timeline of a MIDI file: one line per
// note on or off, in wall-clock order, with the track it belongs to. Handy
// for eyeballing how exported stems line up against each other.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
	"gitlab.com/gomidi/midi/v2/smf"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "", log.Ldate|log.Ltime)

	// Get the current working directory.
	cwd, err := os.Getwd()
	if err != nil {
		logger.Fatalf("failed to get current working directory: %v", err)
	}

	pflag.Parse()

	// Get the path of the MIDI file.
	path, err := choosePath(cwd, pflag.Args())
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Printf("User cancelled the file dialog")
			os.Exit(1)
		}
		logger.Fatalf("failed to determine file path: %v", err)
	}

	s, err := smf.ReadFile(path)
	if err != nil {
		logger.Fatalf("parse error: %v", err)
	}

	fmt.Printf("Format: %d\n", s.Format())
	if ticks, ok := s.TimeFormat.(smf.MetricTicks); ok {
		fmt.Printf("Ticks per quarter note: %d\n", ticks)
	} else {
		fmt.Printf("Time format: %v\n", s.TimeFormat)
	}
	fmt.Printf("Number of tracks: %d\n", len(s.Tracks))

	names := trackNames(s)
	for i, name := range names {
		if name == "" {
			name = fmt.Sprintf("Track #%d", i+1)
		}
		fmt.Printf("%d: %s\n", i+1, name)
	}
	fmt.Println()

	file, err := os.Open(path)
	if err != nil {
		logger.Fatalf("error opening file: %v", err)
	}
	defer file.Close()

	for _, note := range collectNotes(file, names) {
		fmt.Println(note.line())
	}
}

// choosePath returns the file path either from the command-line args
// or from an interactive file dialog.
func choosePath(cwd string, args []string) (string, error) {
	// If an argument was passed to the program, use it.
	if len(args) > 0 {
		path := args[0]
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("cannot get absolute path: %w", err)
		}
		if err := validatePath(absPath); err != nil {
			return "", fmt.Errorf("passed argument is not a valid path: %w", err)
		}
		return absPath, nil
	}

	// Otherwise open the file dialog.
	path, err := dialog.
		File().
		Title("Open MIDI file").
		Filter("MIDI files (*.mid, *.midi)", "mid", "midi").
		SetStartDir(cwd).
		Load()
	if err != nil {
		// Propagate the error. Caller will check for dialog.ErrCancelled.
		return "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot get absolute path: %w", err)
	}

	// Check for empty path just in case.
	if absPath == "" {
		return "", dialog.ErrCancelled
	}
	if err := validatePath(absPath); err != nil {
		return "", fmt.Errorf("dialog selection invalid: %w", err)
	}
	return absPath, nil
}

// validatePath performs simple checks to verify if a file exists or not.
func validatePath(p string) error {
	ext := strings.ToLower(filepath.Ext(p))
	if ext != ".mid" && ext != ".midi" {
		return fmt.Errorf("file must have .mid or .midi extension")
	}
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	return nil
}
