package tts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrVoiceNotFound is returned when a voice id resolves to nothing.
var ErrVoiceNotFound = errors.New("voice not found")

// Voice is one discovered style file.
type Voice struct {
	// ID is the filename without the .json extension.
	ID string
	// Path is the absolute location of the style file.
	Path string
}

// VoiceManager discovers voice style files in a directory and resolves
// ids to paths. Discovery happens once at construction; the manager does
// not watch the directory.
type VoiceManager struct {
	dir    string
	voices []Voice
	byID   map[string]string
}

// NewVoiceManager scans dir for *.json style files. A missing or empty
// directory yields a manager with no voices, not an error: direct file
// paths still resolve through ResolvePath.
func NewVoiceManager(dir string) (*VoiceManager, error) {
	m := &VoiceManager{dir: dir, byID: make(map[string]string)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}

		return nil, fmt.Errorf("scan voice dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		path := filepath.Join(dir, entry.Name())
		m.voices = append(m.voices, Voice{ID: id, Path: path})
		m.byID[id] = path
	}

	sort.Slice(m.voices, func(i, j int) bool { return m.voices[i].ID < m.voices[j].ID })

	return m, nil
}

// List returns the discovered voices sorted by id.
func (m *VoiceManager) List() []Voice {
	return m.voices
}

// ResolvePath maps a voice id to its style file. A value that is already a
// path to an existing file is returned as-is, so callers may pass either a
// discovered id or an explicit file location.
func (m *VoiceManager) ResolvePath(voice string) (string, error) {
	if path, ok := m.byID[voice]; ok {
		return path, nil
	}

	if info, err := os.Stat(voice); err == nil && !info.IsDir() {
		return voice, nil
	}

	return "", fmt.Errorf("%w: %q in %s", ErrVoiceNotFound, voice, m.dir)
}

// LoadVoice resolves a voice id and loads it as a single-entry style.
func (m *VoiceManager) LoadVoice(voice string) (*Style, error) {
	path, err := m.ResolvePath(voice)
	if err != nil {
		return nil, err
	}

	return LoadStyle([]string{path})
}
