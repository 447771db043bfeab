package pool

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadPools reads all *.yaml files from dir, parses each as a Pool,
// validates it, and returns the collected slice.
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid Pools or the first encountered error.
func LoadPools(dir string) ([]*Pool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadPools: cannot read directory %q: %w", dir, err)
	}

	var pools []*Pool
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadPools: cannot read file %q: %w", path, err)
		}
		var p Pool
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("LoadPools: cannot parse file %q: %w", path, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("LoadPools: invalid pool in %q: %w", path, err)
		}
		pools = append(pools, &p)
	}
	return pools, nil
}

// LoadLocations reads a single YAML file containing a list of Locations,
// validates each, and returns the collected slice.
// Precondition: path is a readable YAML file.
// Postcondition: returns all valid Locations or the first encountered error.
func LoadLocations(path string) ([]*Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadLocations: cannot read file %q: %w", path, err)
	}
	var locations []*Location
	if err := yaml.Unmarshal(data, &locations); err != nil {
		return nil, fmt.Errorf("LoadLocations: cannot parse file %q: %w", path, err)
	}
	for _, l := range locations {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("LoadLocations: invalid location in %q: %w", path, err)
		}
	}
	return locations, nil
}
