package knowledge

import (
	"fmt"
	"os"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a knowledge base.
type File struct {
	DefaultRole string     `yaml:"default-role" mapstructure:"default-role"`
	Roles       []FileRole `yaml:"roles" mapstructure:"roles"`
	Skills      []string   `yaml:"skills" mapstructure:"skills"`
}

type FileRole struct {
	Name        string   `yaml:"name" mapstructure:"name"`
	Keywords    []string `yaml:"keywords" mapstructure:"keywords"`
	Demand      Demand   `yaml:"demand" mapstructure:"demand"`
	SalaryRange string   `yaml:"salary-range" mapstructure:"salary-range"`
}

// Load reads a YAML knowledge file and builds a Base from it.
func Load(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge file %q: %w", path, err)
	}

	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("knowledge file %q: %w", path, err)
	}

	return b, nil
}

// Parse builds a Base from a YAML document. Unknown keys are rejected.
func Parse(data []byte) (*Base, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	var file File
	cfg := &mapstructure.DecoderConfig{
		DecodeHook:  demandHook,
		ErrorUnused: true,
		Result:      &file,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	return file.Base()
}

// Base validates the file contents and builds the knowledge base.
func (f File) Base() (*Base, error) {
	roles := make([]Role, 0, len(f.Roles))
	for _, r := range f.Roles {
		roles = append(roles, Role(r))
	}
	return New(roles, f.Skills, f.DefaultRole)
}

// Export returns the file form of the base, suitable for yaml.Marshal.
func (b *Base) Export() File {
	f := File{
		DefaultRole: b.defaultRole,
		Roles:       make([]FileRole, 0, len(b.roles)),
		Skills:      b.Skills(),
	}
	for _, r := range b.Roles() {
		f.Roles = append(f.Roles, FileRole(r))
	}
	return f
}

func demandHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(DemandUnknown) || from.Kind() != reflect.String {
		return data, nil
	}
	return ParseDemand(data.(string))
}
