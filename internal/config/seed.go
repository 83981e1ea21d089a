package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedTask describes one task to create at startup.
type SeedTask struct {
	Text      string `yaml:"text"`
	Completed bool   `yaml:"completed"`
}

// SeedConfig describes the tasks seeded into an empty store on startup. The
// store lives in process memory, so a restart always resets it to this set.
type SeedConfig struct {
	Owner string     `yaml:"owner"`
	Tasks []SeedTask `yaml:"tasks"`
}

// LoadSeed reads a seed definition from a YAML file.
func LoadSeed(path string) (*SeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed SeedConfig
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	for i, task := range seed.Tasks {
		if task.Text == "" {
			return nil, fmt.Errorf("seed task %d: text is required", i)
		}
	}

	return &seed, nil
}

// LoadSeedOrDefault reads the seed file when configured, falling back to the
// built-in example set for the given owner.
func LoadSeedOrDefault(path, owner string) *SeedConfig {
	if path != "" {
		if seed, err := LoadSeed(path); err == nil {
			if seed.Owner == "" {
				seed.Owner = owner
			}
			return seed
		}
	}
	return DefaultSeed(owner)
}

// DefaultSeed returns the built-in example set: three tasks, one completed.
func DefaultSeed(owner string) *SeedConfig {
	return &SeedConfig{
		Owner: owner,
		Tasks: []SeedTask{
			{Text: "Buy milk"},
			{Text: "Read a book", Completed: true},
			{Text: "Write some code"},
		},
	}
}
