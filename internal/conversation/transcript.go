package conversation

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/sessionlens/internal/source"
)

// Archive is the front matter of an archived session markdown file.
type Archive struct {
	Title          string `yaml:"title"`
	SessionID      string `yaml:"session_id"`
	TranscriptPath string `yaml:"transcript_path"`
}

var frontMatterDelim = []byte("---")

// ParseArchive reads the YAML front matter of a session markdown document.
// Documents without front matter yield a zero Archive. A transcript_path of
// "N/A" is treated as absent. When no title is set the first "# " heading
// is used.
func ParseArchive(doc []byte) (Archive, error) {
	var a Archive

	doc = bytes.ReplaceAll(doc, []byte("\r\n"), []byte("\n"))
	if rest, ok := bytes.CutPrefix(doc, append(frontMatterDelim, '\n')); ok {
		if end := bytes.Index(rest, []byte("\n---")); end >= 0 {
			if err := yaml.Unmarshal(rest[:end], &a); err != nil {
				return Archive{}, fmt.Errorf("parsing front matter: %w", err)
			}
			doc = rest[end+4:]
		}
	}

	a.TranscriptPath = strings.TrimSpace(a.TranscriptPath)
	if a.TranscriptPath == "N/A" {
		a.TranscriptPath = ""
	}
	if a.Title == "" {
		a.Title = firstHeading(doc)
	}
	return a, nil
}

func firstHeading(doc []byte) string {
	for _, line := range strings.Split(string(doc), "\n") {
		if h, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(h)
		}
	}
	return ""
}

// Resolve maps a user-supplied reference to a session log path. ref may be
// a .jsonl path, an archived .md file whose front matter names the
// transcript, or a session id discovered under dataDir. An empty path with
// a nil error means the session exists but has no transcript.
func Resolve(ref, dataDir string) (path string, err error) {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".jsonl":
		return ref, nil
	case ".md", ".markdown":
		doc, err := os.ReadFile(ref)
		if err != nil {
			return "", fmt.Errorf("reading archive: %w", err)
		}
		a, err := ParseArchive(doc)
		if err != nil {
			return "", err
		}
		return a.TranscriptPath, nil
	}

	df, err := source.FindSession(dataDir, ref)
	if err != nil {
		if errors.Is(err, source.ErrSessionNotFound) {
			return "", err
		}
		return "", fmt.Errorf("resolving session %q: %w", ref, err)
	}
	return df.Path, nil
}
