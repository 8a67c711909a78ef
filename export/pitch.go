package export

import (
	"fmt"
	"strconv"
)

// Semitone offset from A for each natural note letter within one octave.
// Letters outside the table contribute no offset, so unrecognised keys
// still convert instead of failing.
var letterOffsets = map[byte]int{
	'C': -9,
	'D': -7,
	'E': -5,
	'F': -4,
	'G': -2,
	'A': 0,
	'B': 2,
}

// KeyToPitch converts a note name with octave ("A4", "C#5") to a pitch
// number anchored at A4 = 81. Sharps are recognised by the three-character
// form of the key. Keys too short to carry an octave, or whose octave
// character is not a digit, return an error.
func KeyToPitch(key string) (int, error) {
	if len(key) < 2 {
		return 0, fmt.Errorf("key %q is too short to contain an octave", key)
	}

	sharp := 0
	octaveChar := key[1]
	if len(key) == 3 {
		sharp = 1
		octaveChar = key[2]
	}

	octave, err := strconv.Atoi(string(octaveChar))
	if err != nil {
		return 0, fmt.Errorf("key %q has a non-numeric octave", key)
	}

	return 81 + 12*(octave-4) + letterOffsets[key[0]] + sharp, nil
}
