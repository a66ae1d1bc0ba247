package eco

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

var validate = validator.New()

// CatalogFile is the on-disk shape of the action catalog and badge table.
type CatalogFile struct {
	Actions []ActionCatalogEntry `yaml:"actions" validate:"min=1,dive"`
	Badges  []BadgeDefinition    `yaml:"badges" validate:"dive"`
}

// Catalog is the validated, immutable action catalog plus badge table.
type Catalog struct {
	actions []ActionCatalogEntry
	badges  []BadgeDefinition
	index   map[string]int
	badgeIx map[string]int
}

// NewCatalog validates the inputs and freezes a private copy of them.
func NewCatalog(actions []ActionCatalogEntry, badges []BadgeDefinition) (*Catalog, error) {
	file := CatalogFile{Actions: actions, Badges: badges}
	if err := file.Validate(); err != nil {
		return nil, err
	}

	c := &Catalog{
		actions: make([]ActionCatalogEntry, len(actions)),
		badges:  make([]BadgeDefinition, len(badges)),
		index:   make(map[string]int, len(actions)),
		badgeIx: make(map[string]int, len(badges)),
	}
	copy(c.actions, actions)
	copy(c.badges, badges)
	for i, a := range c.actions {
		c.index[a.ID] = i
	}
	for i, b := range c.badges {
		c.badgeIx[b.Name] = i
	}
	return c, nil
}

// Validate reports every structural and uniqueness problem at once.
func (f CatalogFile) Validate() error {
	var problems []string

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		for _, fe := range verrs {
			problems = append(problems, describeFieldError(fe))
		}
	}

	seenActions := make(map[string]struct{}, len(f.Actions))
	for _, a := range f.Actions {
		if a.ID != strings.TrimSpace(a.ID) {
			problems = append(problems, fmt.Sprintf("action id %q has surrounding whitespace", a.ID))
		}
		if _, dup := seenActions[a.ID]; dup && a.ID != "" {
			problems = append(problems, fmt.Sprintf("duplicate action id %q", a.ID))
		}
		seenActions[a.ID] = struct{}{}
	}

	seenBadges := make(map[string]struct{}, len(f.Badges))
	for _, b := range f.Badges {
		if _, dup := seenBadges[b.Name]; dup && b.Name != "" {
			problems = append(problems, fmt.Sprintf("duplicate badge name %q", b.Name))
		}
		seenBadges[b.Name] = struct{}{}
	}

	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "CatalogFile.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return field + " must be positive"
	case "min":
		return field + " must contain at least " + fe.Param() + " entry"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// DefaultCatalog returns the catalog bundled with the service.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Errorf("bundled eco catalog: %w", err))
	}
	return c
}

// ParseCatalog decodes a YAML catalog and validates it.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file CatalogFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigurationError{Problems: []string{"catalog file is empty"}}
		}
		return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalidConfiguration, err)
	}
	return NewCatalog(file.Actions, file.Badges)
}

// LoadCatalogFile reads the catalog at path, or the bundled default when path is empty.
func LoadCatalogFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ParseCatalog(f)
}

// Actions returns the catalog entries in declaration order.
func (c *Catalog) Actions() []ActionCatalogEntry {
	out := make([]ActionCatalogEntry, len(c.actions))
	copy(out, c.actions)
	return out
}

// Badges returns the badge table in declaration order.
func (c *Catalog) Badges() []BadgeDefinition {
	out := make([]BadgeDefinition, len(c.badges))
	copy(out, c.badges)
	return out
}

// Action looks up a catalog entry by id.
func (c *Catalog) Action(id string) (ActionCatalogEntry, bool) {
	i, ok := c.index[id]
	if !ok {
		return ActionCatalogEntry{}, false
	}
	return c.actions[i], true
}

// HasBadge reports whether name is declared in the badge table.
func (c *Catalog) HasBadge(name string) bool {
	_, ok := c.badgeIx[name]
	return ok
}
