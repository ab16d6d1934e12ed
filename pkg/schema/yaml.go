// pkg/schema/yaml.go
package schema

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// A descriptor file lists records:
//
//	records:
//	  - name: User
//	    fields:
//	      - name: id
//	        type: int64
//	      - name: name
//	        type: string
//	        annotations: ['rename = "full_name"']
//	      - name: profile
//	        type: Profile
//	        annotations: [flatten]
//	  - name: Pair          # positional: fields have no name
//	    fields:
//	      - type: int64
//	      - type: string
type descriptorFile struct {
	Records []recordYAML `yaml:"records"`
}

type recordYAML struct {
	Name   string      `yaml:"name"`
	Kind   string      `yaml:"kind"`
	Fields []fieldYAML `yaml:"fields"`
}

type fieldYAML struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Annotations []string `yaml:"annotations"`
}

// ParseKind parses a record kind name. An empty name means struct.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "struct":
		return KindStruct, nil
	case "enum":
		return KindEnum, nil
	case "union":
		return KindUnion, nil
	}
	return KindOther, fmt.Errorf("schema: unknown record kind %q", s)
}

// LoadDescriptors decodes a YAML descriptor file. Record names must be
// unique and non-empty; unknown keys are rejected.
func LoadDescriptors(r io.Reader) ([]Descriptor, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file descriptorFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("schema: decoding descriptors: %w", err)
	}

	seen := make(map[string]bool, len(file.Records))
	descs := make([]Descriptor, 0, len(file.Records))
	for i, rec := range file.Records {
		if rec.Name == "" {
			return nil, fmt.Errorf("schema: record %d has no name", i)
		}
		if seen[rec.Name] {
			return nil, fmt.Errorf("schema: record %s declared twice", rec.Name)
		}
		seen[rec.Name] = true

		kind, err := ParseKind(rec.Kind)
		if err != nil {
			return nil, fmt.Errorf("schema: record %s: %w", rec.Name, err)
		}
		desc := Descriptor{Name: rec.Name, Kind: kind}
		for _, f := range rec.Fields {
			desc.Fields = append(desc.Fields, FieldDescriptor{
				Name:        f.Name,
				Type:        f.Type,
				Annotations: f.Annotations,
			})
		}
		descs = append(descs, desc)
	}
	return descs, nil
}

// LoadDescriptorFile reads descriptors from the YAML file at path.
func LoadDescriptorFile(path string) ([]Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schema: opening descriptor file: %w", err)
	}
	defer f.Close()
	return LoadDescriptors(f)
}
