package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

const expandedFile = "expanded_projects.json"

func expandedPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "tariffdesk")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, expandedFile), nil
}

// SaveExpanded persists which cost projects are expanded.
func SaveExpanded(expanded map[string]bool) error {
	path, err := expandedPath()
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(expanded))
	for id, open := range expanded {
		if open {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadExpanded returns the saved set; a missing file is an empty set.
func LoadExpanded() (map[string]bool, error) {
	path, err := expandedPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
