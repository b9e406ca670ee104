// Package source holds the loaded representation of a JavaScript file:
// raw bytes, a line index with byte offsets, and a content hash used as
// the cache key.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
)

// Line is one physical line of a source file.
type Line struct {
	Num   int    // 1-based line number
	Text  string // content without the terminator
	Start uint32 // byte offset of the first character
	End   uint32 // byte offset one past the last character, terminator excluded
	HasCR bool   // terminated with \r\n
}

// File is a source file prepared for linting.
type File struct {
	Path    string
	Content []byte
	Lines   []Line
	Hash    string // sha256 of Content, hex encoded
}

// Load reads path from disk and prepares it for linting.
func Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return New(path, content), nil
}

// New builds a File from in-memory content.
func New(path string, content []byte) *File {
	sum := sha256.Sum256(content)
	f := &File{
		Path:    path,
		Content: content,
		Hash:    hex.EncodeToString(sum[:]),
	}
	f.splitLines()
	return f
}

func (f *File) splitLines() {
	start := uint32(0)
	num := 1
	for i := 0; i < len(f.Content); i++ {
		if f.Content[i] != '\n' {
			continue
		}
		end := uint32(i)
		hasCR := false
		if end > start && f.Content[end-1] == '\r' {
			end--
			hasCR = true
		}
		f.Lines = append(f.Lines, Line{
			Num:   num,
			Text:  string(f.Content[start:end]),
			Start: start,
			End:   end,
			HasCR: hasCR,
		})
		start = uint32(i + 1)
		num++
	}
	if int(start) < len(f.Content) {
		f.Lines = append(f.Lines, Line{
			Num:   num,
			Text:  string(f.Content[start:]),
			Start: start,
			End:   uint32(len(f.Content)),
		})
	}
}

// LineAt returns the line with the given 1-based number.
func (f *File) LineAt(num int) (Line, bool) {
	if num < 1 || num > len(f.Lines) {
		return Line{}, false
	}
	return f.Lines[num-1], true
}

// EndsWithNewline reports whether the content terminates with a newline.
func (f *File) EndsWithNewline() bool {
	return len(f.Content) > 0 && f.Content[len(f.Content)-1] == '\n'
}

// Position converts a byte offset into a 1-based line/column pair.
func (f *File) Position(offset uint32) (line, col int) {
	if len(f.Lines) == 0 {
		return 1, 1
	}
	idx := sort.Search(len(f.Lines), func(i int) bool {
		return f.Lines[i].Start > offset
	}) - 1
	if idx < 0 {
		idx = 0
	}
	l := f.Lines[idx]
	return l.Num, int(offset-l.Start) + 1
}
