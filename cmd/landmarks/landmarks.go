package main

import (
	"strconv"

	"github.com/ewen-lbh/flptools/project"
)

// bpmText renders the project tempo as whole BPM, no trailing newline.
func bpmText(proj *project.Project) string {
	return strconv.Itoa(int(proj.Tempo))
}

// landmarkTimes maps every time marker of the first arrangement to its
// position in milliseconds since the song start. Positions assume the tempo
// never changes, which holds for the projects these files are made for.
func landmarkTimes(proj *project.Project) map[string]string {
	out := map[string]string{}
	if len(proj.Arrangements) == 0 {
		return out
	}
	for _, marker := range proj.Arrangements[0].TimeMarkers {
		ms := proj.TimeAt(marker.Position).Milliseconds()
		out[strconv.FormatInt(ms, 10)] = marker.Name
	}
	return out
}
