package chat

import (
	"bufio"
	"io"
	"strings"
)

// LooksLikeTranscript reports whether the first lines of r match the export
// header grammar. Used to pick a transcript out of arbitrarily named files.
func LooksLikeTranscript(r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	checked := 0
	for scanner.Scan() && checked < 20 {
		line := stripInvisible(scanner.Text())
		if strings.TrimSpace(line) == "" {
			continue
		}
		checked++
		if _, ok := matchHeader(line, 0); ok {
			return true
		}
	}
	return false
}
