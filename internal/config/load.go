package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadGroups reads alerting groups from a YAML file, or from every .yaml and
// .yml file in a directory in lexical order, and validates the result.
func LoadGroups(path string) ([]AlertingGroup, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read alarm config: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read alarm config dir %q: %w", path, err)
		}

		files = files[:0]
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
				continue
			}
			files = append(files, filepath.Join(path, e.Name()))
		}
	}

	var groups []AlertingGroup
	for _, f := range files {
		parsed, err := parseFile(f)
		if err != nil {
			return nil, err
		}
		groups = append(groups, parsed...)
	}

	if err := Validate(groups); err != nil {
		return nil, err
	}

	return groups, nil
}

func parseFile(path string) ([]AlertingGroup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read alarm config %q: %w", path, err)
	}

	groups, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse alarm config %q: %w", path, err)
	}
	return groups, nil
}

// Parse decodes one YAML document stream. Unknown keys are rejected so a
// misspelt option is not silently ignored.
func Parse(data []byte) ([]AlertingGroup, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var groups []AlertingGroup
	for {
		var doc AlarmConfig
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		groups = append(groups, doc.AlertingGroups...)
	}
	return groups, nil
}
