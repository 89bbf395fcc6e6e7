// Package source discovers and decodes JSONL session logs.
package source

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// maxLineSize bounds a single log line. Tool results that embed whole files
// can run to several megabytes; anything longer is skipped like an
// undecodable line.
const maxLineSize = 8 * 1024 * 1024

// decodeOpts keeps the decoder lenient towards producer quirks.
var decodeOpts = json.JoinOptions(
	jsontext.AllowDuplicateNames(true),
	jsontext.AllowInvalidUTF8(true),
)

// Reader yields the decodable records of one session log, in file order.
// Blank lines are ignored; lines that fail to decode are skipped and counted.
type Reader struct {
	f       *os.File
	lines   *lineReader
	entry   Entry
	skipped int
}

// Open opens a session log for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening session log: %w", err)
	}
	return &Reader{f: f, lines: newLineReader(f)}, nil
}

// Next advances to the next decodable record. It returns false at end of
// file or on a read error; check Err afterwards.
func (r *Reader) Next() bool {
	for r.lines.Scan() {
		if r.lines.Oversized() {
			r.skipped++
			continue
		}
		line := bytes.TrimSpace(r.lines.Bytes())
		if len(line) == 0 {
			continue
		}
		r.entry = Entry{}
		if err := decodeLine(line, &r.entry); err != nil {
			r.skipped++
			continue
		}
		return true
	}
	return false
}

// Entry returns the current record. It is overwritten by the next call to Next.
func (r *Reader) Entry() *Entry {
	return &r.entry
}

// Err returns the first read error, if any.
func (r *Reader) Err() error {
	if err := r.lines.Err(); err != nil {
		return fmt.Errorf("reading session log: %w", err)
	}
	return nil
}

// Skipped returns how many non-blank lines failed to decode or were too
// long so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// ReadAll decodes every record of the log at path and calls fn for each.
// It returns the number of skipped lines. The entry passed to fn must not be
// retained.
func ReadAll(path string, fn func(*Entry)) (skipped int, err error) {
	r, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Close() }()

	for r.Next() {
		fn(r.Entry())
	}
	return r.Skipped(), r.Err()
}

func decodeLine(line []byte, e *Entry) error {
	return json.Unmarshal(line, e, decodeOpts)
}
