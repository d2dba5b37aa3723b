package rules

import (
	"bytes"
	_ "embed"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var defaultCatalogue []byte

type catalogueDoc struct {
	Version  string              `yaml:"version"`
	Common   tableDoc            `yaml:"common"`
	Dialects map[string]tableDoc `yaml:"dialects"`
}

type tableDoc struct {
	Rules []ruleDoc      `yaml:"rules"`
	Bands []bandGroupDoc `yaml:"bands"`
}

type ruleDoc struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Weight   float64  `yaml:"weight"`
	Method   string   `yaml:"method"`
	Category string   `yaml:"category"`
	Pattern  string   `yaml:"pattern"`
	Measure  string   `yaml:"measure"`
	Scoring  string   `yaml:"scoring"`
	Min      *int     `yaml:"min"`
	Raw      bool     `yaml:"raw"`
	Dialects []string `yaml:"dialects"`
	Note     string   `yaml:"note"`
}

type bandGroupDoc struct {
	Group    string          `yaml:"group"`
	Method   string          `yaml:"method"`
	Category string          `yaml:"category"`
	Measure  string          `yaml:"measure"`
	Pattern  string          `yaml:"pattern"`
	Raw      bool            `yaml:"raw"`
	Members  []bandMemberDoc `yaml:"members"`
}

type bandMemberDoc struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Weight   float64 `yaml:"weight"`
	Category string  `yaml:"category"`
	Min      int     `yaml:"min"`
	Max      *int    `yaml:"max"`
}

// Default loads the catalogue compiled into the binary.
func Default() (*RuleTable, error) {
	rt, err := Load(defaultCatalogue)
	if err != nil {
		return nil, errors.Wrap(err, "embedded rule catalogue")
	}
	return rt, nil
}

// DefaultSource returns the YAML source of the embedded catalogue.
func DefaultSource() []byte {
	return bytes.Clone(defaultCatalogue)
}

// LoadFile reads and validates a catalogue from disk.
func LoadFile(path string) (*RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read rule file %s", path)
	}
	rt, err := Load(data)
	if err != nil {
		return nil, errors.Wrapf(err, "rule file %s", path)
	}
	return rt, nil
}

// Load parses and validates a YAML catalogue. Any invariant violation fails
// the whole load with a *MalformedRuleError.
func Load(data []byte) (*RuleTable, error) {
	var doc catalogueDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, malformed("catalogue", "", "empty document")
		}
		return nil, malformed("catalogue", "", "%v", err)
	}
	return build(&doc)
}
