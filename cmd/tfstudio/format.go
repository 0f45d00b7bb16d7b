package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/kalambet/tfstudio/internal/tsf"
)

// formatFromPath picks a profile document format from a file extension.
func formatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	}
	return "", fmt.Errorf("unsupported profile document %q (want .json, .yaml, .yml or .toml)", path)
}

func readProfileFile(path string) (tsf.Profile, error) {
	format, err := formatFromPath(path)
	if err != nil {
		return tsf.Profile{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return tsf.Profile{}, fmt.Errorf("reading %s: %w", path, err)
	}
	p, err := unmarshalProfile(data, format)
	if err != nil {
		return tsf.Profile{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return p, nil
}

func unmarshalProfile(data []byte, format string) (tsf.Profile, error) {
	var p tsf.Profile
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(data, &p)
	case "yaml":
		err = yaml.Unmarshal(data, &p)
	case "toml":
		_, err = toml.Decode(string(data), &p)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	return p, err
}

func writeProfile(w io.Writer, p tsf.Profile, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(p); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	}
	return fmt.Errorf("unknown format %q (want json, yaml or toml)", format)
}

// readTSFInput reads a TSF text from a file, or from r when path is "-".
// Trailing line breaks are not part of the text.
func readTSFInput(path string, r io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(r)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
