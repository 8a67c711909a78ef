// Command landmarks extracts timing cues from an FL Studio project: the
// tempo into bpm.txt and the time markers into landmarks.json, keyed by
// their position in milliseconds. Both files feed video render scripts that
// need to know where the song's sections fall.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ewen-lbh/flptools/parser/flp"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "", log.Ldate|log.Ltime)

	// Get the current working directory.
	cwd, err := os.Getwd()
	if err != nil {
		logger.Fatalf("failed to get current working directory: %v", err)
	}

	var outDir string
	pflag.StringVarP(&outDir, "output", "o", "", "directory to write bpm.txt and landmarks.json into (default: next to the project)")
	pflag.Parse()

	// Get the path of the FL Studio project file.
	path, err := choosePath(cwd, pflag.Args())
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Printf("User cancelled the file dialog")
			os.Exit(1)
		}
		logger.Fatalf("failed to determine file path: %v", err)
	}

	proj, err := flp.ParseFile(path, logger)
	if err != nil {
		logger.Fatalf("parse error: %v", err)
	}

	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		logger.Fatalf("cannot create output directory: %v", err)
	}

	bpmPath := filepath.Join(outDir, "bpm.txt")
	if err := os.WriteFile(bpmPath, []byte(bpmText(proj)), 0o644); err != nil {
		logger.Fatalf("Error writing output file: %v", err)
	}

	landmarks, err := json.Marshal(landmarkTimes(proj))
	if err != nil {
		logger.Fatalf("encode error: %v", err)
	}
	landmarksPath := filepath.Join(outDir, "landmarks.json")
	if err := os.WriteFile(landmarksPath, landmarks, 0o644); err != nil {
		logger.Fatalf("Error writing output file: %v", err)
	}

	logger.Printf("Wrote %s and %s", bpmPath, landmarksPath)
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
		Title("Open FL Studio project").
		Filter("FL Studio projects (*.flp)", "flp").
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
	if strings.ToLower(filepath.Ext(p)) != ".flp" {
		return fmt.Errorf("file must have .flp extension")
	}
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	return nil
}
