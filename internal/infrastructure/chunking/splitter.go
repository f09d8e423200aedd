package chunking

import (
	"strings"
	"unicode"
)

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	out := make([]string, 0, len(runes)/s.ChunkSize+1)
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = snapToBoundary(runes, start, end)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
		next := end - s.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// snapToBoundary walks back from end to the nearest whitespace so chunks
// do not cut words in half. Gives up after a quarter of the chunk and
// falls back to the hard cut.
func snapToBoundary(runes []rune, start, end int) int {
	limit := end - (end-start)/4
	for i := end; i > limit; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
