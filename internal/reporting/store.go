package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"netsweep/internal/models"
)

// SaveJSON writes res as indented JSON.
func SaveJSON(path string, res models.SweepResult) error {
	data, err := json.MarshalIndent(res, "", "    ")
	if err != nil {
		return errors.Wrap(err, "encode json")
	}
	return writeFile(path, append(data, '\n'))
}

// LoadJSON reads a result written by SaveJSON.
func LoadJSON(path string) (models.SweepResult, error) {
	var res models.SweepResult
	data, err := os.ReadFile(path)
	if err != nil {
		return res, errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return res, errors.Wrapf(err, "decode %s", path)
	}
	return res, nil
}

// SaveYAML writes res as YAML.
func SaveYAML(path string, res models.SweepResult) error {
	data, err := yaml.Marshal(res)
	if err != nil {
		return errors.Wrap(err, "encode yaml")
	}
	return writeFile(path, data)
}

// LoadYAML reads a result written by SaveYAML.
func LoadYAML(path string) (models.SweepResult, error) {
	var res models.SweepResult
	data, err := os.ReadFile(path)
	if err != nil {
		return res, errors.Wrapf(err, "read %s", path)
	}
	if err := yaml.Unmarshal(data, &res); err != nil {
		return res, errors.Wrapf(err, "decode %s", path)
	}
	return res, nil
}

// Save picks the format from the extension: .yaml/.yml, .html/.htm, and
// JSON for anything else.
func Save(path string, res models.SweepResult) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return SaveYAML(path, res)
	case ".html", ".htm":
		return SaveHTML(path, res)
	default:
		return SaveJSON(path, res)
	}
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
