package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"scholarserbisyo/pkg/gate"
)

type routesFile struct {
	Match          string   `yaml:"match"`
	Home           string   `yaml:"home"`
	Landing        string   `yaml:"landing"`
	Protected      []string `yaml:"protected"`
	UserController []string `yaml:"user_controller"`
}

// LoadRoutes reads the gate's route lists. A missing file yields the
// defaults; keys left out of the file keep their default value.
func LoadRoutes(path string) (gate.Routes, error) {
	routes := gate.DefaultRoutes()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return routes, nil
	}
	if err != nil {
		return routes, err
	}

	var f routesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return routes, fmt.Errorf("%s: %w", path, err)
	}

	if routes.Match, err = gate.ParseMatchMode(f.Match); err != nil {
		return routes, fmt.Errorf("%s: %w", path, err)
	}
	if f.Home != "" {
		routes.Home = f.Home
	}
	if f.Landing != "" {
		routes.Landing = f.Landing
	}
	if f.Protected != nil {
		routes.Protected = f.Protected
	}
	if f.UserController != nil {
		routes.UserController = f.UserController
	}

	return routes, nil
}
