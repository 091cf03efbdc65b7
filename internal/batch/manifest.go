package batch

import (
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"screenshot-assertion/internal/report"
)

var ErrDuplicatePair = errors.New("pairs share a context and method")

// Pair names one actual/expected comparison.
type Pair struct {
	Name     string `yaml:"name" json:"name"`
	Actual   string `yaml:"actual" json:"actual"`
	Expected string `yaml:"expected" json:"expected"`
	Message  string `yaml:"message,omitempty" json:"message,omitempty"`
	// Context and Method identify the test in artifact names and reports.
	Context string `yaml:"context,omitempty" json:"context,omitempty"`
	Method  string `yaml:"method,omitempty" json:"method,omitempty"`
}

type Manifest struct {
	// BaseDir resolves relative image paths; it defaults to the manifest's
	// directory.
	BaseDir string `yaml:"baseDir,omitempty"`
	Pairs   []Pair `yaml:"pairs"`
}

func DecodeManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, xerrors.Errorf("failed to decode manifest: %w", err)
	}

	for i, p := range m.Pairs {
		if p.Actual == "" || p.Expected == "" {
			return nil, xerrors.Errorf("pair %d (%s) needs both actual and expected", i, p.Name)
		}
		if p.Name == "" {
			m.Pairs[i].Name = filepath.Base(p.Actual)
			if p.Method == "" {
				m.Pairs[i].Method = strings.TrimSuffix(m.Pairs[i].Name, filepath.Ext(m.Pairs[i].Name))
			}
		}
		if m.Pairs[i].Method == "" {
			m.Pairs[i].Method = m.Pairs[i].Name
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate rejects pairs whose diff artifacts would be written to the same
// name. Artifact names only carry the test identity and a second-resolution
// timestamp.
func (m *Manifest) Validate() error {
	seen := make(map[string]int, len(m.Pairs))
	for i, p := range m.Pairs {
		key := report.ArtifactName(time.Time{}, report.Test{Context: p.Context, Method: p.Method})
		if j, ok := seen[key]; ok {
			return xerrors.Errorf("pairs %d (%s) and %d (%s) need a distinct context or method: %w", j, m.Pairs[j].Name, i, p.Name, ErrDuplicatePair)
		}
		seen[key] = i
	}
	return nil
}

func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	m, err := DecodeManifest(f)
	if err != nil {
		return nil, err
	}
	if m.BaseDir == "" {
		m.BaseDir = filepath.Dir(path)
	} else if !filepath.IsAbs(m.BaseDir) {
		m.BaseDir = filepath.Join(filepath.Dir(path), m.BaseDir)
	}
	return m, nil
}

// Resolve returns path relative to BaseDir unless it is absolute or a URL.
func (m *Manifest) Resolve(path string) string {
	if m.BaseDir == "" || filepath.IsAbs(path) || hasScheme(path) {
		return path
	}
	return filepath.Join(m.BaseDir, path)
}

func hasScheme(path string) bool {
	u, err := url.Parse(path)
	return err == nil && u.Scheme != "" && u.Host != ""
}
