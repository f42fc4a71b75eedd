// Package scenario loads a YAML-described set of activities and resolves
// each into an activity.ActivityDef, the same key-value reconfiguration
// contract Motor and its rate limiters observe for live updates.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jshook/engineblock/pkg/activity"
)

const (
	Prod = "prod"
	Dev  = "dev"
	Test = "test"
)

const (
	scenarioPath      = "/scenarios/scenario.yaml"
	scenarioPathLocal = "/scenarios/scenario.local.yaml"
	scenarioPathTest  = "/../../scenarios/scenario.test.yaml"
)

// File is the on-disk shape of a scenario: a flat list of activities, each
// a bag of string params matching activity.ActivityDef's recognized keys
// (alias, threads, stride, async, cyclerate, striderate, phaserate) plus
// whatever action-specific params the Action implementation expects.
type File struct {
	Activities []ActivityParams `yaml:"activities"`
}

// ActivityParams is one activity's raw YAML param bag, alongside the keys
// activity.NewActivityDef understands.
type ActivityParams struct {
	Alias  string            `yaml:"alias"`
	Params map[string]string `yaml:"params"`
}

// Load resolves a scenario file path from APP_ENV the same way the
// engine's ambient config loader does, reads it, and parses every
// activity's params into an ActivityDef.
func Load() ([]*activity.ActivityDef, error) {
	path, err := resolvePath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom parses a scenario file at an explicit path, useful for tests and
// one-off CLI invocations that don't want APP_ENV-based resolution.
func LoadFrom(path string) ([]*activity.ActivityDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario yaml file %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal scenario yaml from %s: %w", path, err)
	}

	defs := make([]*activity.ActivityDef, 0, len(f.Activities))
	for _, a := range f.Activities {
		params := make(map[string]string, len(a.Params)+1)
		for k, v := range a.Params {
			params[k] = v
		}
		if a.Alias != "" {
			params[activity.KeyAlias] = a.Alias
		}
		def, err := activity.NewActivityDef(params)
		if err != nil {
			return nil, fmt.Errorf("activity %q: %w", a.Alias, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func resolvePath() (string, error) {
	env := os.Getenv("APP_ENV")

	var rel string
	switch env {
	case Prod:
		rel = scenarioPath
	case Dev:
		rel = scenarioPathLocal
	case Test:
		rel = scenarioPathTest
	default:
		return "", errors.New("unknown APP_ENV: '" + env + "'")
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	path, err := filepath.Abs(filepath.Clean(dir + rel))
	if err != nil {
		return "", fmt.Errorf("resolve absolute scenario filepath: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat scenario path: %w", err)
	}
	return path, nil
}
