package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fwojciec/harvest"
	"gopkg.in/yaml.v3"
)

// importFile is the YAML layout read by the import command.
type importFile struct {
	Targets []importTarget `yaml:"targets"`
}

type importTarget struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Selector string `yaml:"selector"`
	Type     string `yaml:"type"`
	Category string `yaml:"category"`
	Active   *bool  `yaml:"active"`
}

// parseImport decodes targets from YAML. Targets are active unless the file
// says otherwise. Unknown keys are rejected.
func parseImport(data []byte) ([]*harvest.Target, error) {
	var file importFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "invalid import file: %v", err)
	}

	targets := make([]*harvest.Target, 0, len(file.Targets))
	for i, t := range file.Targets {
		target := &harvest.Target{
			Name:     t.Name,
			URL:      t.URL,
			Selector: t.Selector,
			Mode:     harvest.RenderMode(t.Type),
			Category: t.Category,
			Active:   t.Active == nil || *t.Active,
		}
		target.ApplyDefaults()
		if err := target.Validate(); err != nil {
			return nil, harvest.Errorf(harvest.EINVALID, "target %d (%q): %s", i+1, t.Name, harvest.ErrorMessage(err))
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// Run executes the import command. The whole file is validated before any
// target is created.
func (c *ImportCmd) Run(deps *Dependencies) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	targets, err := parseImport(data)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	var created, skipped int
	for _, target := range targets {
		if c.SkipExisting {
			existing, err := deps.Targets.FindTargets(deps.Ctx, harvest.TargetFilter{Name: &target.Name})
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
				return err
			}
			if containsURL(existing, target.URL) {
				skipped++
				continue
			}
		}

		if err := deps.Targets.CreateTarget(deps.Ctx, target); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
			return err
		}
		created++
		fmt.Fprintf(deps.Stdout, "Added target %q (%s)\n", target.Name, target.ID)
	}

	fmt.Fprintf(deps.Stdout, "Imported %d targets, skipped %d\n", created, skipped)
	return nil
}

func containsURL(targets []*harvest.Target, url string) bool {
	for _, t := range targets {
		if t.URL == url {
			return true
		}
	}
	return false
}
