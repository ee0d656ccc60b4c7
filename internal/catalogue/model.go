// Package catalogue defines the typed, immutable value objects that make
// up a parsed estate catalogue and the structural validator that
// checks them before they reach the importer.
//
// Decoding the catalogue YAML document into these types, emitting the
// canonical JSON Schema, and parsing CLI arguments are explicitly out of
// scope for this package; only the struct shapes those external
// collaborators populate are defined here.
package catalogue

// ComponentType enumerates the kinds of component a project may contain.
type ComponentType string

const (
	ComponentTypeService      ComponentType = "service"
	ComponentTypeUI           ComponentType = "ui"
	ComponentTypeLibrary      ComponentType = "library"
	ComponentTypeDataPipeline ComponentType = "data-pipeline"
	ComponentTypeJob          ComponentType = "job"
	ComponentTypeTooling      ComponentType = "tooling"
	ComponentTypeOther        ComponentType = "other"
)

// Lifecycle enumerates the stages a component may be in.
type Lifecycle string

const (
	LifecyclePlanned    Lifecycle = "planned"
	LifecycleActive     Lifecycle = "active"
	LifecycleDeprecated Lifecycle = "deprecated"
)

// EdgeKind enumerates the relationship strength of a ComponentLink.
type EdgeKind string

const (
	EdgeKindRuntime EdgeKind = "runtime"
	EdgeKindDev     EdgeKind = "dev"
	EdgeKindTest    EdgeKind = "test"
	EdgeKindOps     EdgeKind = "ops"
)

// EdgeRelationship enumerates the three outgoing edge lists a component
// may declare.
type EdgeRelationship string

const (
	RelationshipDependsOn     EdgeRelationship = "depends_on"
	RelationshipBlockedBy     EdgeRelationship = "blocked_by"
	RelationshipEmitsEventsTo EdgeRelationship = "emits_events_to"
)

// Programme groups related projects for display purposes.
type Programme struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Description *string  `yaml:"description,omitempty"`
	Projects    []string `yaml:"projects,omitempty"`
}

// Repository is the catalogue-side declaration of a source repository.
type Repository struct {
	Owner              string   `yaml:"owner"`
	Name               string   `yaml:"name"`
	DefaultBranch      string   `yaml:"default_branch,omitempty"`
	DocumentationPaths []string `yaml:"documentation_paths,omitempty"`
}

// Slug returns the GitHub-style owner/name identifier.
func (r Repository) Slug() string {
	return r.Owner + "/" + r.Name
}

// ComponentLink is a directed edge between components.
type ComponentLink struct {
	Component string   `yaml:"component"`
	Kind      EdgeKind `yaml:"kind,omitempty"`
	Rationale *string  `yaml:"rationale,omitempty"`
}

// Component is a unit of work within a project, optionally mapped to one
// source repository.
type Component struct {
	Key           string          `yaml:"key"`
	Name          string          `yaml:"name"`
	Type          ComponentType   `yaml:"type,omitempty"`
	Description   *string         `yaml:"description,omitempty"`
	Lifecycle     Lifecycle       `yaml:"lifecycle,omitempty"`
	Repository    *Repository     `yaml:"repository,omitempty"`
	DependsOn     []ComponentLink `yaml:"depends_on,omitempty"`
	BlockedBy     []ComponentLink `yaml:"blocked_by,omitempty"`
	EmitsEventsTo []ComponentLink `yaml:"emits_events_to,omitempty"`
	Notes         []string        `yaml:"notes,omitempty"`
}

// NoiseFilterToggles enables or disables individual noise filters for a
// project without discarding their configured values.
type NoiseFilterToggles struct {
	IgnoreAuthors       bool `yaml:"ignore_authors"`
	IgnoreLabels        bool `yaml:"ignore_labels"`
	IgnorePaths         bool `yaml:"ignore_paths"`
	IgnoreTitlePrefixes bool `yaml:"ignore_title_prefixes"`
}

// NoiseFilters controls ingestion and reporting noise suppression for a
// project. Glob/regex compilation of the fields below is out of scope;
// only the declarative values are carried.
type NoiseFilters struct {
	Enabled             bool               `yaml:"enabled"`
	Toggles             NoiseFilterToggles `yaml:"toggles"`
	IgnoreAuthors       []string           `yaml:"ignore_authors,omitempty"`
	IgnoreLabels        []string           `yaml:"ignore_labels,omitempty"`
	IgnorePaths         []string           `yaml:"ignore_paths,omitempty"`
	IgnoreTitlePrefixes []string           `yaml:"ignore_title_prefixes,omitempty"`
}

// StatusPreferences carries per-project status generation preferences.
type StatusPreferences struct {
	SummariseDependencyPRs bool `yaml:"summarise_dependency_prs"`
	EmphasiseDocumentation bool `yaml:"emphasise_documentation"`
	PreferLongForm         bool `yaml:"prefer_long_form"`
}

// Project is a unit of status reporting within an estate.
type Project struct {
	Key                string            `yaml:"key"`
	Name               string            `yaml:"name"`
	Description        *string           `yaml:"description,omitempty"`
	Programme          *string           `yaml:"programme,omitempty"`
	Components         []Component       `yaml:"components"`
	Noise              NoiseFilters      `yaml:"noise"`
	Status             StatusPreferences `yaml:"status"`
	DocumentationPaths []string          `yaml:"documentation_paths,omitempty"`
}

// Catalogue is the top-level estate catalogue document.
type Catalogue struct {
	Version    int         `yaml:"version"`
	Projects   []Project   `yaml:"projects"`
	Programmes []Programme `yaml:"programmes,omitempty"`
}

// ApplyDefaults fills unset optional fields in place, the normalisation
// step that runs immediately after decoding a catalogue document:
// component type falls back to service, lifecycle to active, repository
// default_branch to "main", and edge kind to runtime.
func (c *Catalogue) ApplyDefaults() {
	for pi := range c.Projects {
		components := c.Projects[pi].Components
		for ci := range components {
			comp := &components[ci]
			if comp.Type == "" {
				comp.Type = ComponentTypeService
			}
			if comp.Lifecycle == "" {
				comp.Lifecycle = LifecycleActive
			}
			if comp.Repository != nil && comp.Repository.DefaultBranch == "" {
				comp.Repository.DefaultBranch = "main"
			}
			for _, links := range [][]ComponentLink{comp.DependsOn, comp.BlockedBy, comp.EmitsEventsTo} {
				for li := range links {
					if links[li].Kind == "" {
						links[li].Kind = EdgeKindRuntime
					}
				}
			}
		}
	}
}
