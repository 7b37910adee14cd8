package db

import (
	"context"
	"fmt"
	"os"

	"yatra/models"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout of the temple seed data:
//
//	temples:
//	  - name: Somnath
//	    location: Prabhas Patan, Gujarat
//	    estimatedWaitTime: 20
type SeedFile struct {
	Temples []models.Temple `yaml:"temples"`
}

func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// SeedTemples inserts the given temples only when the collection is empty,
// so restarting with the same file is a no-op. It returns how many were
// inserted.
func SeedTemples(ctx context.Context, temples TempleRepository, seed []models.Temple) (int, error) {
	n, err := temples.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i := range seed {
		t := seed[i]
		if err := temples.Create(ctx, &t); err != nil {
			return i, fmt.Errorf("seed temple %q: %w", t.Name, err)
		}
	}
	return len(seed), nil
}
