package catalogue

import (
	"regexp"
	"strings"

	"ghillie/internal/domain"
)

var (
	slugPattern        = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)
	repoSegmentPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// componentRef tracks which project a component key was first seen in, so
// duplicate-key issues can name both owners.
type componentRef struct {
	projectKey string
	component  Component
}

// Validate checks a catalogue instance against the structural, referential
// and slug rules every project and component must satisfy, returning the
// same value when every rule passes. On failure it returns a
// *domain.ValidationError carrying every issue found, never only the first.
func Validate(cat Catalogue) (Catalogue, error) {
	var issues []string

	projectIndex := map[string]Project{}
	componentIndex := map[string]componentRef{}
	programmeIndex := map[string]Programme{}

	if cat.Version < 1 {
		issues = append(issues, "catalogue.version must be >= 1")
	}

	for _, programme := range cat.Programmes {
		issues = validateProgramme(programme, programmeIndex, issues)
	}

	for _, project := range cat.Projects {
		issues = validateProject(project, projectIndex, componentIndex, programmeIndex, issues)
	}

	knownComponents := make(map[string]struct{}, len(componentIndex))
	for key := range componentIndex {
		knownComponents[key] = struct{}{}
	}
	for componentKey, ref := range componentIndex {
		issues = validateRelationships(componentKey, ref.projectKey, ref.component, knownComponents, issues)
	}

	issues = validateProgrammeMembership(cat.Programmes, projectIndex, issues)

	if len(issues) > 0 {
		return Catalogue{}, domain.ErrValidation(issues...)
	}
	return cat, nil
}

func validateProgramme(programme Programme, index map[string]Programme, issues []string) []string {
	issues = validateSlug(programme.Key, "programme.key", issues)

	if _, exists := index[programme.Key]; exists {
		issues = append(issues, "duplicate programme key '"+programme.Key+"'")
	} else {
		index[programme.Key] = programme
	}

	if strings.TrimSpace(programme.Name) == "" {
		issues = append(issues, "programme "+programme.Key+" is missing a name")
	}
	return issues
}

func validateProject(
	project Project,
	projectIndex map[string]Project,
	componentIndex map[string]componentRef,
	programmeIndex map[string]Programme,
	issues []string,
) []string {
	issues = validateSlug(project.Key, "project.key", issues)

	if _, exists := projectIndex[project.Key]; exists {
		issues = append(issues, "duplicate project key '"+project.Key+"'")
	} else {
		projectIndex[project.Key] = project
	}

	if strings.TrimSpace(project.Name) == "" {
		issues = append(issues, "project "+project.Key+" is missing a name")
	}

	if project.Programme != nil && *project.Programme != "" {
		if _, exists := programmeIndex[*project.Programme]; !exists {
			issues = append(issues, "project "+project.Key+" references unknown programme '"+*project.Programme+"'")
		}
	}

	for _, component := range project.Components {
		issues = validateComponent(project.Key, component, componentIndex, issues)
	}
	return issues
}

func validateComponent(projectKey string, component Component, index map[string]componentRef, issues []string) []string {
	issues = validateSlug(component.Key, "component.key", issues)

	if existing, exists := index[component.Key]; exists {
		issues = append(issues, "duplicate component key '"+component.Key+"' used by projects "+existing.projectKey+" and "+projectKey)
	} else {
		index[component.Key] = componentRef{projectKey: projectKey, component: component}
	}

	if strings.TrimSpace(component.Name) == "" {
		issues = append(issues, "component "+component.Key+" is missing a name")
	}

	if component.Repository != nil {
		issues = validateRepository(component.Key, *component.Repository, issues)
	}
	return issues
}

func validateRepository(componentKey string, repo Repository, issues []string) []string {
	for _, field := range []struct {
		name  string
		value string
	}{{"owner", repo.Owner}, {"name", repo.Name}} {
		if !repoSegmentPattern.MatchString(field.value) {
			issues = append(issues, "component "+componentKey+" repository "+field.name+" '"+field.value+
				"' must contain only letters, digits, dots, underscores, or dashes")
		}
	}

	if strings.TrimSpace(repo.DefaultBranch) == "" {
		issues = append(issues, "component "+componentKey+" repository default_branch must not be empty")
	}
	return issues
}

func validateRelationships(componentKey, projectKey string, component Component, known map[string]struct{}, issues []string) []string {
	edgeLists := []struct {
		name  string
		edges []ComponentLink
	}{
		{string(RelationshipDependsOn), component.DependsOn},
		{string(RelationshipBlockedBy), component.BlockedBy},
		{string(RelationshipEmitsEventsTo), component.EmitsEventsTo},
	}
	for _, list := range edgeLists {
		for _, edge := range list.edges {
			issues = validateEdge(componentKey, projectKey, list.name, edge, known, issues)
		}
	}
	return issues
}

func validateEdge(componentKey, projectKey, edgeName string, edge ComponentLink, known map[string]struct{}, issues []string) []string {
	if edge.Component == componentKey {
		issues = append(issues, "component "+componentKey+" in project "+projectKey+" cannot reference itself via "+edgeName)
	}
	if _, ok := known[edge.Component]; !ok {
		issues = append(issues, "component "+componentKey+" in project "+projectKey+" references missing component '"+edge.Component+"' via "+edgeName)
	}
	return issues
}

func validateProgrammeMembership(programmes []Programme, projectIndex map[string]Project, issues []string) []string {
	for _, programme := range programmes {
		for _, projectKey := range programme.Projects {
			if _, ok := projectIndex[projectKey]; !ok {
				issues = append(issues, "programme "+programme.Key+" references unknown project '"+projectKey+"'")
			}
		}
	}
	return issues
}

func validateSlug(value, label string, issues []string) []string {
	if !slugPattern.MatchString(value) {
		issues = append(issues, label+" '"+value+"' must match "+slugPattern.String()+" (lowercase slug with dashes)")
	}
	return issues
}
