package oracle

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of parsed scenario files kept by a loader.
const DefaultCacheSize = 64

// Loader loads scenario files, keeping the most recently parsed ones in memory.
type Loader struct {
	cache *lru.Cache[string, []*Scenario]
}

// NewLoader creates a new loader caching up to size files.
func NewLoader(size int) (*Loader, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []*Scenario](size)
	if err != nil {
		return nil, err
	}
	return &Loader{cache: cache}, nil
}

// Load loads the scenarios of given file.
func (l *Loader) Load(path string) ([]*Scenario, error) {
	path = filepath.Clean(path)
	scenarios, ok := l.cache.Get(path)
	if ok {
		log.Debugf("Loaded %v from cache", path)
		return scenarios, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	scenarios, err = ParseScenarios(data)
	if err != nil {
		return nil, fmt.Errorf("fail to parse %v: %w", path, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, s := range scenarios {
		s.Name = base + "/" + s.Name
	}
	l.cache.Add(path, scenarios)
	return scenarios, nil
}

// LoadAll loads every json file under given paths, walking directories.
func (l *Loader) LoadAll(paths []string) ([]*Scenario, error) {
	files := make([]string, 0)
	for _, path := range paths {
		err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ".json" {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	res := make([]*Scenario, 0)
	for _, file := range files {
		scenarios, err := l.Load(file)
		if err != nil {
			return nil, err
		}
		res = append(res, scenarios...)
	}
	return res, nil
}
