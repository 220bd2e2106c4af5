package memory

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadTranscript reads messages saved by SaveTranscript. A missing file
// yields nil, nil.
func LoadTranscript(path string) ([]Message, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var msgs []Message
	if isYAML(path) {
		err = yaml.Unmarshal(b, &msgs)
	} else {
		err = json.Unmarshal(b, &msgs)
	}
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// SaveTranscript writes msgs as indented JSON, or YAML for .yaml/.yml paths.
func SaveTranscript(path string, msgs []Message) error {
	var (
		b   []byte
		err error
	)
	if isYAML(path) {
		b, err = yaml.Marshal(msgs)
	} else {
		b, err = json.MarshalIndent(msgs, "", " ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
