package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads path into a copy of DefaultOptions(), the same
// load-onto-defaults pattern as falcon's pkg/core/init.go LoadConfig, so a
// config file only needs to set the fields it wants to override. Returns
// defaults unchanged if path does not exist.
func Load(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, err
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, err
	}
	return opts, nil
}
