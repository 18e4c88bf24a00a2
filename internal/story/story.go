// Package story loads the narrative data asset: scene text, the choices
// offered in each scene, and the effect bundle each choice carries.
package story

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/ninth-gate/internal/gate"
)

//go:embed arc1.yaml
var arc1 []byte

var (
	// ErrMissingStart means the asset names no start scene, or names one
	// it does not define.
	ErrMissingStart = errors.New("story start scene is missing")

	// ErrUnknownFormat is returned by Load for files that are neither
	// JSON nor YAML.
	ErrUnknownFormat = errors.New("unknown story format")
)

// Format selects the decoder for Parse.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Choice is one button under a scene.
type Choice struct {
	Label   string
	Next    string
	Effects gate.Effects
}

// Scene is one page of story text with its choices.
type Scene struct {
	ID      string
	Text    string
	Choices []Choice
}

// Ending reports whether the scene offers no way forward.
func (s *Scene) Ending() bool { return len(s.Choices) == 0 }

// Story is a parsed narrative asset.
type Story struct {
	Start  string
	Scenes map[string]*Scene

	checksum string
}

type rawChoice struct {
	Label   string         `json:"label" yaml:"label"`
	Next    string         `json:"next" yaml:"next"`
	Effects map[string]any `json:"effects" yaml:"effects"`
}

type rawScene struct {
	Text    string      `json:"text" yaml:"text"`
	Choices []rawChoice `json:"choices" yaml:"choices"`
}

type rawStory struct {
	Start  string              `json:"startScene" yaml:"startScene"`
	Scenes map[string]rawScene `json:"scenes" yaml:"scenes"`
}

// Parse decodes a story asset. Effect bundles are read leniently: fields
// that are not usable numbers are dropped rather than rejected.
func Parse(data []byte, format Format) (*Story, error) {
	var raw rawStory
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode json story: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode yaml story: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	st := &Story{
		Start:  strings.TrimSpace(raw.Start),
		Scenes: make(map[string]*Scene, len(raw.Scenes)),
	}
	for id, rs := range raw.Scenes {
		sc := &Scene{ID: id, Text: rs.Text}
		for _, rc := range rs.Choices {
			sc.Choices = append(sc.Choices, Choice{
				Label:   rc.Label,
				Next:    strings.TrimSpace(rc.Next),
				Effects: gate.EffectsFromMap(rc.Effects),
			})
		}
		st.Scenes[id] = sc
	}

	if st.Start == "" || st.Scenes[st.Start] == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingStart, st.Start)
	}

	sum := sha256.Sum256(data)
	st.checksum = hex.EncodeToString(sum[:])
	return st, nil
}

// Load reads a story file, picking the decoder from its extension.
func Load(path string) (*Story, error) {
	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		format = FormatJSON
	case ".yaml", ".yml":
		format = FormatYAML
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read story: %w", err)
	}
	return Parse(data, format)
}

// Default returns the sample arc bundled with the binary.
func Default() (*Story, error) {
	return Parse(arc1, FormatYAML)
}

// Open loads path, or the bundled arc when path is empty.
func Open(path string) (*Story, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return Load(path)
}

// Scene looks up a scene by identifier.
func (s *Story) Scene(id string) (*Scene, bool) {
	sc, ok := s.Scenes[id]
	return sc, ok
}

// Checksum identifies the exact asset bytes the story was parsed from.
func (s *Story) Checksum() string { return s.checksum }
