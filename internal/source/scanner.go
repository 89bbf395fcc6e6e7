package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrSessionNotFound is returned by FindSession when no log matches the id.
var ErrSessionNotFound = errors.New("session not found")

// ScanDir walks root recursively and discovers all JSONL session files.
// A missing root yields no files and no error.
//
// Layout: <root>/<project>/<session>.jsonl for main sessions and
// <root>/<project>/<session>/subagents/agent-<id>.jsonl for subagents.
// Files directly under root are accepted with an empty project.
func ScanDir(root string) ([]DiscoveredFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}

		name := d.Name()
		stem := strings.TrimSuffix(name, ".jsonl")
		rel, _ := filepath.Rel(root, path)
		parts := strings.Split(rel, string(filepath.Separator))

		df := DiscoveredFile{Path: path, SessionID: stem}
		if len(parts) >= 2 {
			df.ProjectDir = parts[0]
			df.Project = decodeProjectName(parts[0])
		}

		// Pattern: <project>/<session-uuid>/subagents/agent-<id>.jsonl
		if len(parts) >= 4 && parts[len(parts)-2] == "subagents" {
			parent := parts[len(parts)-3]
			df.IsSubagent = true
			df.ParentSession = parent
			// Use parent+agent to avoid collisions across sessions
			df.SessionID = parent + "/" + stem
		}

		files = append(files, df)
		return nil
	})

	return files, err
}

// FindSession returns the discovered file for sessionID under root.
func FindSession(root, sessionID string) (DiscoveredFile, error) {
	files, err := ScanDir(root)
	if err != nil {
		return DiscoveredFile{}, fmt.Errorf("scanning %s: %w", root, err)
	}
	for _, f := range files {
		if f.SessionID == sessionID {
			return f, nil
		}
	}
	return DiscoveredFile{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
}

// decodeProjectName extracts a human-readable project name from the encoded directory name.
// The producer encodes absolute paths by replacing "/" with "-", so:
//
//	"-Users-alice-projects-gitlore" -> "gitlore"
//	"-Users-alice-projects-my-cool-project" -> "my-cool-project"
//
// We find the last known path component ("projects", "repos", "src", "code", "workspace", "dev")
// and take everything after it. Falls back to the last non-empty segment.
func decodeProjectName(dirName string) string {
	parts := strings.Split(dirName, "-")

	knownParents := map[string]bool{
		"projects": true, "repos": true, "src": true,
		"code": true, "workspace": true, "dev": true,
	}

	for i := len(parts) - 2; i >= 0; i-- {
		if knownParents[strings.ToLower(parts[i])] {
			name := strings.Join(parts[i+1:], "-")
			if name != "" {
				return name
			}
		}
	}

	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}

	return dirName
}

// CountProjects returns the number of unique projects in a set of discovered files.
func CountProjects(files []DiscoveredFile) int {
	seen := make(map[string]struct{})
	for _, f := range files {
		seen[f.Project] = struct{}{}
	}
	return len(seen)
}
