// Command gallery stitches rendered score pages into a single overview
// image. Pages arrive as SVG exports; any page without a cached PNG is
// rasterized through ImageMagick first, then the cached pages are laid out
// in a grid, left to right, top to bottom.
package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/spf13/pflag"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	labelStripHeight = 28
	labelFontSize    = 18
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "", log.Ldate|log.Ltime)

	var (
		columns int
		density int
		output  string
		labels  bool
		clean   bool
	)
	pflag.IntVarP(&columns, "columns", "c", 6, "number of pages per row")
	pflag.IntVarP(&density, "density", "d", 1200, "rasterization density passed to ImageMagick")
	pflag.StringVarP(&output, "output", "o", "gallery.png", "path of the stitched image")
	pflag.BoolVar(&labels, "labels", false, "draw each page's name beneath it")
	pflag.BoolVar(&clean, "clean", false, "remove the PNGs rasterized during this run")
	pflag.Parse()

	if columns < 1 {
		logger.Fatalf("need at least one column, got %d", columns)
	}

	dir := "."
	if args := pflag.Args(); len(args) > 0 {
		dir = args[0]
	}

	rasterized, err := rasterizeMissing(dir, density)
	if err != nil {
		logger.Fatalf("rasterize error: %v", err)
	}

	names, err := pagePNGs(dir, filepath.Base(output))
	if err != nil {
		logger.Fatalf("cannot list pages: %v", err)
	}
	if len(names) == 0 {
		logger.Fatalf("no pages found in %s", dir)
	}

	rows := (len(names) + columns - 1) / columns
	logger.Printf("Layout is %d rows of %d cells:", rows, columns)
	for start := 0; start < len(names); start += columns {
		logger.Printf("%v", names[start:min(start+columns, len(names))])
	}

	sheets := make([]sheet, 0, len(names))
	for _, name := range names {
		img, err := gg.LoadPNG(filepath.Join(dir, name))
		if err != nil {
			logger.Fatalf("cannot load %s: %v", name, err)
		}
		sheets = append(sheets, sheet{name: strings.TrimSuffix(name, ".png"), img: img})
	}

	extra := 0
	if labels {
		extra = labelStripHeight
	}
	placements, width, height := layoutGrid(sheets, columns, extra)

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()

	if labels {
		font, err := truetype.Parse(goregular.TTF)
		if err != nil {
			logger.Fatalf("cannot parse label font: %v", err)
		}
		dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: labelFontSize}))
	}

	for _, pl := range placements {
		dc.DrawImage(pl.sheet.img, pl.x, pl.y)
		if labels {
			dc.SetRGB(0, 0, 0)
			cx := float64(pl.x) + float64(pl.sheet.img.Bounds().Dx())/2
			cy := float64(pl.labelY) + float64(labelStripHeight)/2
			dc.DrawStringAnchored(pl.sheet.name, cx, cy, 0.5, 0.5)
		}
	}

	if err := dc.SavePNG(output); err != nil {
		logger.Fatalf("Error writing output file: %v", err)
	}
	logger.Printf("Wrote %s", output)

	if clean {
		for _, path := range rasterized {
			logger.Printf("Deleting %s", path)
			if err := os.Remove(path); err != nil {
				logger.Printf("cannot remove %s: %v", path, err)
			}
		}
	}
}

// rasterizeMissing renders every SVG in dir that has no PNG next to it yet,
// through ImageMagick. It returns the paths of the PNGs it created, so the
// caller can treat them as a cache or throw them away.
func rasterizeMissing(dir string, density int) ([]string, error) {
	svgs, err := filepath.Glob(filepath.Join(dir, "*.svg"))
	if err != nil {
		return nil, err
	}

	var created []string
	for _, svg := range svgs {
		png := strings.TrimSuffix(svg, ".svg") + ".png"
		if _, err := os.Stat(png); err == nil {
			continue
		}
		logger.Printf("Rasterizing %s", filepath.Base(svg))
		cmd := exec.Command("convert", "-density", strconv.Itoa(density), svg, png)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return created, fmt.Errorf("convert %s: %v: %s", filepath.Base(svg), err, out)
		}
		created = append(created, png)
	}
	return created, nil
}

// pagePNGs lists the PNG pages of dir by name, skipping the output file
// itself when it lives there.
func pagePNGs(dir, outputName string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".png") || name == outputName {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
