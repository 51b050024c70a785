package reconcile

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Prefs is the client-local state persisted between runs. Expanded holds
// addresses only, so rows stay keyed the same way whatever the record shape.
type Prefs struct {
	Theme    string   `yaml:"theme"`
	Sort     SortMode `yaml:"sort"`
	Expanded []string `yaml:"expanded"`
}

func DefaultPrefs() Prefs {
	return Prefs{Theme: ThemeDark, Sort: SortCanonical}
}

// LoadPrefs reads the preferences file. A missing file yields the defaults;
// an unknown sort mode falls back to canonical order.
func LoadPrefs(path string) (Prefs, error) {
	p := DefaultPrefs()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return DefaultPrefs(), err
	}
	if mode, err := ParseSortMode(string(p.Sort)); err == nil {
		p.Sort = mode
	} else {
		p.Sort = SortCanonical
	}
	return p, nil
}

// SavePrefs replaces the file via a temp file and rename.
func SavePrefs(path string, p Prefs) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// DefaultPrefsPath is ~/.config/ticc-dash/watch.yaml (or the OS equivalent).
func DefaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "ticc-watch.yaml"
	}
	return filepath.Join(dir, "ticc-dash", "watch.yaml")
}
