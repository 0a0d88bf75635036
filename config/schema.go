package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ListSchema names the two collections and the internal field names the
// list store uses. Defaults match the "Projects Status" / "Projects" lists.
type ListSchema struct {
	StatusList   string       `yaml:"status_list"`
	ProjectsList string       `yaml:"projects_list"`
	Fields       StatusFields `yaml:"fields"`
	Manager      ManagerField `yaml:"manager"`
}

type StatusFields struct {
	Project    string `yaml:"project"`
	Health     string `yaml:"health"`
	Planned    string `yaml:"planned"`
	Actual     string `yaml:"actual"`
	Activities string `yaml:"activities"`
	Issues     string `yaml:"issues"`
	NextSteps  string `yaml:"next_steps"`
	Author     string `yaml:"author"`
}

// ManagerField identifies the project-manager person field on the projects
// list. When InternalName is empty it is resolved from Title at request time.
type ManagerField struct {
	Title        string `yaml:"title"`
	InternalName string `yaml:"internal_name"`
}

func DefaultListSchema() ListSchema {
	return ListSchema{
		StatusList:   "Projects Status",
		ProjectsList: "Projects",
		Fields: StatusFields{
			Project:    "Project",
			Health:     "Health",
			Planned:    "Planned_x0025_",
			Actual:     "Actual_x0025_",
			Activities: "Activities",
			Issues:     "Issues",
			NextSteps:  "Next",
			Author:     "Author",
		},
		Manager: ManagerField{
			Title: "Project Manager",
		},
	}
}

func (s ListSchema) Validate() error {
	if s.StatusList == "" || s.ProjectsList == "" {
		return fmt.Errorf("list schema: status_list and projects_list are required")
	}
	if s.Manager.Title == "" && s.Manager.InternalName == "" {
		return fmt.Errorf("list schema: manager title or internal_name is required")
	}
	return nil
}

// loadSchemaFile overlays values from a YAML file onto cfg; keys missing
// from the file keep their defaults.
func loadSchemaFile(path string, schema *ListSchema) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read list schema: %w", err)
	}
	if err := yaml.Unmarshal(data, schema); err != nil {
		return fmt.Errorf("parse list schema: %w", err)
	}
	return nil
}
