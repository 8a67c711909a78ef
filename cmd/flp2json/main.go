package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/ewen-lbh/flptools/export"
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

	var dump bool
	pflag.BoolVarP(&dump, "dump", "d", false, "dump the full parsed project structure")
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

	file, err := os.Open(path)
	if err != nil {
		logger.Fatalf("error opening file: %v", err)
	}
	defer file.Close()

	p := flp.NewParser(file, logger)
	proj, err := p.Parse()
	if err != nil {
		logger.Fatalf("parse error: %v", err)
	}

	fmt.Println(proj)
	if dump {
		spew.Dump(proj)
	}

	doc, err := export.Build(proj)
	if err != nil {
		logger.Fatalf("export error: %v", err)
	}
	out, err := export.Encode(doc)
	if err != nil {
		logger.Fatalf("encode error: %v", err)
	}

	// Write to a .json file in the same directory as the source file,
	// unless an explicit output path was given.
	jsonPath := outputPath(path, pflag.Args())
	err = os.WriteFile(jsonPath, out, 0o644)
	if err != nil {
		logger.Fatalf("Error writing output file: %v", err)
	}
	logger.Printf("Wrote %s", jsonPath)
}

// outputPath returns the second command-line argument if there is one, else
// the input path with its extension swapped for .json.
func outputPath(inPath string, args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	ext := filepath.Ext(inPath)
	return strings.TrimSuffix(inPath, ext) + ".json"
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
