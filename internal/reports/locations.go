package reports

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_locations.yaml
var defaultLocationsYAML []byte

type locationsFile struct {
	Locations []string `yaml:"locations"`
}

// Locations is the ordered set of places a report may be filed for.
type Locations struct {
	names []string
	index map[string]struct{}
}

// DefaultLocations returns the bundled Santa Clara Valley trail locations.
func DefaultLocations() *Locations {
	l, err := parseLocations(bytes.NewReader(defaultLocationsYAML))
	if err != nil {
		panic(fmt.Errorf("bundled report locations: %w", err))
	}
	return l
}

// LoadLocations reads a YAML location list, or the bundled one when path is empty.
func LoadLocations(path string) (*Locations, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultLocations(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open locations: %w", err)
	}
	defer f.Close()
	return parseLocations(f)
}

func parseLocations(r io.Reader) (*Locations, error) {
	var file locationsFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}

	l := &Locations{index: make(map[string]struct{}, len(file.Locations))}
	for _, name := range file.Locations {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := l.index[name]; dup {
			continue
		}
		l.index[name] = struct{}{}
		l.names = append(l.names, name)
	}
	if len(l.names) == 0 {
		return nil, fmt.Errorf("locations file lists no locations")
	}
	return l, nil
}

// Names returns the locations in file order.
func (l *Locations) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Contains reports whether name is a known location.
func (l *Locations) Contains(name string) bool {
	_, ok := l.index[name]
	return ok
}
