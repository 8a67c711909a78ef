package main

import "image"

// A sheet is one rasterized page with the name it is shown under.
type sheet struct {
	name string
	img  image.Image
}

// A placement is a sheet positioned on the montage canvas. labelY is the top
// of the label strip under the sheet's row.
type placement struct {
	x, y   int
	labelY int
	sheet  sheet
}

// layoutGrid places sheets into rows of at most columns each, left to right,
// top to bottom. Sheets are left-aligned within their row and rows are
// stacked, each as tall as its tallest sheet plus extra room for labels.
// Returns the placements and the canvas size.
func layoutGrid(sheets []sheet, columns, extra int) ([]placement, int, int) {
	var placements []placement
	width, height := 0, 0

	for start := 0; start < len(sheets); start += columns {
		row := sheets[start:min(start+columns, len(sheets))]

		rowHeight := 0
		for _, s := range row {
			if h := s.img.Bounds().Dy(); h > rowHeight {
				rowHeight = h
			}
		}

		x := 0
		for _, s := range row {
			placements = append(placements, placement{
				x:      x,
				y:      height,
				labelY: height + rowHeight,
				sheet:  s,
			})
			x += s.img.Bounds().Dx()
		}
		if x > width {
			width = x
		}
		height += rowHeight + extra
	}

	return placements, width, height
}
