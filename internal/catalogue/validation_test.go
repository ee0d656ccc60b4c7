package catalogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghillie/internal/domain"
)

func validCatalogue() Catalogue {
	return Catalogue{
		Version: 1,
		Programmes: []Programme{
			{Key: "payments", Name: "Payments", Projects: []string{"checkout"}},
		},
		Projects: []Project{
			{
				Key:       "checkout",
				Name:      "Checkout",
				Programme: strPtr("payments"),
				Components: []Component{
					{
						Key:  "checkout-api",
						Name: "Checkout API",
						Type: ComponentTypeService,
						Repository: &Repository{
							Owner:         "acme",
							Name:          "checkout-api",
							DefaultBranch: "main",
						},
						DependsOn: []ComponentLink{{Component: "checkout-worker", Kind: EdgeKindRuntime}},
					},
					{
						Key:  "checkout-worker",
						Name: "Checkout Worker",
						Type: ComponentTypeJob,
					},
				},
			},
		},
	}
}

func strPtr(s string) *string { return &s }

func TestValidateAcceptsAWellFormedCatalogue(t *testing.T) {
	t.Parallel()

	cat, err := Validate(validCatalogue())

	require.NoError(t, err)
	assert.Equal(t, "checkout", cat.Projects[0].Key)
}

func TestValidateRejectsSlugViolations(t *testing.T) {
	t.Parallel()

	cat := validCatalogue()
	cat.Projects[0].Key = "Not_A_Slug"

	_, err := Validate(cat)

	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Issues[0], "project.key")
}

func TestValidateRejectsSelfReferencingEdge(t *testing.T) {
	t.Parallel()

	cat := validCatalogue()
	cat.Projects[0].Components[0].DependsOn = []ComponentLink{{Component: "checkout-api"}}

	_, err := Validate(cat)

	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	found := false
	for _, issue := range verr.Issues {
		if issue == "component checkout-api in project checkout cannot reference itself via depends_on" {
			found = true
		}
	}
	assert.True(t, found, "expected self-reference issue, got %v", verr.Issues)
}

func TestValidateRejectsDanglingEdgeTarget(t *testing.T) {
	t.Parallel()

	cat := validCatalogue()
	cat.Projects[0].Components[0].DependsOn = []ComponentLink{{Component: "does-not-exist"}}

	_, err := Validate(cat)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "references missing component 'does-not-exist'")
}

func TestValidateRejectsDuplicateComponentKeysAcrossProjects(t *testing.T) {
	t.Parallel()

	cat := validCatalogue()
	cat.Projects = append(cat.Projects, Project{
		Key:  "billing",
		Name: "Billing",
		Components: []Component{
			{Key: "checkout-api", Name: "Billing API duplicate"},
		},
	})

	_, err := Validate(cat)

	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	found := false
	for _, issue := range verr.Issues {
		if issue == "duplicate component key 'checkout-api' used by projects checkout and billing" {
			found = true
		}
	}
	assert.True(t, found, "expected duplicate component key issue, got %v", verr.Issues)
}

func TestValidateRejectsUnknownProgrammeReference(t *testing.T) {
	t.Parallel()

	cat := validCatalogue()
	cat.Projects[0].Programme = strPtr("does-not-exist")

	_, err := Validate(cat)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "references unknown programme")
}

func TestApplyDefaultsFillsUnsetOptionalFields(t *testing.T) {
	t.Parallel()

	cat := Catalogue{Version: 1, Projects: []Project{{
		Key:  "checkout",
		Name: "Checkout",
		Components: []Component{
			{
				Key: "api", Name: "API",
				Repository: &Repository{Owner: "acme", Name: "api"},
				DependsOn:  []ComponentLink{{Component: "worker"}},
			},
			{Key: "worker", Name: "Worker"},
		},
	}}}

	cat.ApplyDefaults()

	api := cat.Projects[0].Components[0]
	assert.Equal(t, ComponentTypeService, api.Type)
	assert.Equal(t, LifecycleActive, api.Lifecycle)
	assert.Equal(t, "main", api.Repository.DefaultBranch)
	assert.Equal(t, EdgeKindRuntime, api.DependsOn[0].Kind)

	_, err := Validate(cat)
	require.NoError(t, err)
}

func TestValidateCollectsEveryIssueNotJustTheFirst(t *testing.T) {
	t.Parallel()

	cat := Catalogue{Version: 0}

	_, err := Validate(cat)

	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Issues, "catalogue.version must be >= 1")
}
