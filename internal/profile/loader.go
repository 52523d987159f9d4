package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cinira-llc/crypto-go/profiles"
)

// builtinDir is the subdirectory of the embedded profile FS to load.
const builtinDir = "pbes2"

// LoadProfileFromFile loads a profile from a YAML file.
func LoadProfileFromFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	return LoadProfileFromBytes(data)
}

// LoadProfileFromBytes loads a profile from YAML bytes.
func LoadProfileFromBytes(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile validation failed: %w", err)
	}
	p.applyDefaults()

	return &p, nil
}

// LoadProfilesFromDirectory loads all profiles from a directory.
// Returns a map of profile name to Profile.
func LoadProfilesFromDirectory(dir string) (map[string]*Profile, error) {
	loaded := make(map[string]*Profile)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return loaded, nil // Missing directory is OK
		}
		return nil, fmt.Errorf("failed to read profiles directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if filepath.Ext(name) != ".yaml" && filepath.Ext(name) != ".yml" {
			continue
		}

		p, err := LoadProfileFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load profile from %s: %w", name, err)
		}

		if _, exists := loaded[p.Name]; exists {
			return nil, fmt.Errorf("duplicate profile name: %s", p.Name)
		}

		loaded[p.Name] = p
	}

	return loaded, nil
}

// SaveProfileToFile saves a profile to a YAML file.
func SaveProfileToFile(p *Profile, path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}

	return nil
}

// BuiltinProfiles returns the predefined profiles.
// These are compiled into the binary and serve as templates.
func BuiltinProfiles() (map[string]*Profile, error) {
	loaded := make(map[string]*Profile)

	entries, err := profiles.FS.ReadDir(builtinDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded builtin profiles: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		data, err := profiles.FS.ReadFile(builtinDir + "/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}

		p, err := LoadProfileFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}

		loaded[p.Name] = p
	}

	return loaded, nil
}

// GetBuiltinProfile returns a specific builtin profile by name.
func GetBuiltinProfile(name string) (*Profile, error) {
	builtins, err := BuiltinProfiles()
	if err != nil {
		return nil, err
	}

	p, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("builtin profile not found: %s", name)
	}

	return p, nil
}

// ProfileStore provides access to builtin and user-defined profiles.
type ProfileStore struct {
	dir      string
	profiles map[string]*Profile
}

// NewProfileStore creates a ProfileStore backed by the given directory.
// An empty dir means builtin profiles only.
func NewProfileStore(dir string) *ProfileStore {
	return &ProfileStore{
		dir:      dir,
		profiles: make(map[string]*Profile),
	}
}

// Load loads builtin profiles, then custom profiles from the store's
// directory. Custom profiles override builtins with the same name.
func (ps *ProfileStore) Load() error {
	builtins, err := BuiltinProfiles()
	if err != nil {
		return fmt.Errorf("failed to load builtin profiles: %w", err)
	}

	for name, p := range builtins {
		ps.profiles[name] = p
	}

	if ps.dir == "" {
		return nil
	}

	custom, err := LoadProfilesFromDirectory(ps.dir)
	if err != nil {
		return err
	}

	for name, p := range custom {
		ps.profiles[name] = p
	}

	return nil
}

// Get returns a profile by name.
func (ps *ProfileStore) Get(name string) (*Profile, bool) {
	p, ok := ps.profiles[name]
	return p, ok
}

// List returns all loaded profile names, sorted.
func (ps *ProfileStore) List() []string {
	names := make([]string, 0, len(ps.profiles))
	for name := range ps.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all loaded profiles.
func (ps *ProfileStore) All() map[string]*Profile {
	return ps.profiles
}

// BasePath returns the custom profiles directory path.
func (ps *ProfileStore) BasePath() string {
	return ps.dir
}
