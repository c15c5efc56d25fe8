package agent

import (
	"supaco_backend/internal/assistant/repository"

	"google.golang.org/genai"
)

// CatalogVersion identifies the tool set offered to the model. Bump it when a
// tool or parameter changes.
const CatalogVersion = "2026-03-01"

// Tool names.
const (
	ToolCreateProject        = "create_project"
	ToolCreateProspect       = "create_prospect"
	ToolCreateTask           = "create_task"
	ToolUpdateProspectStatus = "update_prospect_status"
	ToolUpdateProjectStatus  = "update_project_status"
	ToolAddNoteToProject     = "add_note_to_project"
)

type paramSpec struct {
	name string
	typ  genai.Type
	enum []string
}

type toolSpec struct {
	name     string
	params   []paramSpec
	required []string
}

var (
	createProjectStatuses = []string{
		repository.ProjectStatusQuote,
		repository.ProjectStatusInProgress,
		repository.ProjectStatusDone,
	}
	projectStatuses = []string{
		repository.ProjectStatusQuote,
		repository.ProjectStatusInProgress,
		repository.ProjectStatusDone,
		repository.ProjectStatusCancelled,
	}
	prospectStatuses = []string{
		repository.ProspectStatusNew,
		repository.ProspectStatusContacted,
		repository.ProspectStatusQualification,
		repository.ProspectStatusProposal,
		repository.ProspectStatusNegotiation,
		repository.ProspectStatusWon,
		repository.ProspectStatusLost,
	}
	prospectSources = []string{
		repository.SourceWebsite,
		repository.SourceReferral,
		repository.SourceLinkedIn,
		repository.SourceTradeFair,
		repository.SourceOther,
	}
	taskPriorities = []string{
		repository.TaskPriorityLow,
		repository.TaskPriorityMedium,
		repository.TaskPriorityHigh,
	}
)

var toolSpecs = []toolSpec{
	{
		name: ToolCreateProject,
		params: []paramSpec{
			{name: "name", typ: genai.TypeString},
			{name: "client_name", typ: genai.TypeString},
			{name: "client_email", typ: genai.TypeString},
			{name: "client_phone", typ: genai.TypeString},
			{name: "description", typ: genai.TypeString},
			{name: "budget", typ: genai.TypeNumber},
			{name: "status", typ: genai.TypeString, enum: createProjectStatuses},
			{name: "deadline", typ: genai.TypeString},
		},
		required: []string{"name", "client_name"},
	},
	{
		name: ToolCreateProspect,
		params: []paramSpec{
			{name: "first_name", typ: genai.TypeString},
			{name: "last_name", typ: genai.TypeString},
			{name: "email", typ: genai.TypeString},
			{name: "phone", typ: genai.TypeString},
			{name: "company", typ: genai.TypeString},
			{name: "source", typ: genai.TypeString, enum: prospectSources},
			{name: "estimated_budget", typ: genai.TypeNumber},
			{name: "needs", typ: genai.TypeString},
			{name: "notes", typ: genai.TypeString},
		},
		required: []string{"first_name", "last_name"},
	},
	{
		name: ToolCreateTask,
		params: []paramSpec{
			{name: "project_name", typ: genai.TypeString},
			{name: "title", typ: genai.TypeString},
			{name: "description", typ: genai.TypeString},
			{name: "priority", typ: genai.TypeString, enum: taskPriorities},
			{name: "due_date", typ: genai.TypeString},
		},
		required: []string{"project_name", "title"},
	},
	{
		name: ToolUpdateProspectStatus,
		params: []paramSpec{
			{name: "prospect_name", typ: genai.TypeString},
			{name: "new_status", typ: genai.TypeString, enum: prospectStatuses},
		},
		required: []string{"prospect_name", "new_status"},
	},
	{
		name: ToolUpdateProjectStatus,
		params: []paramSpec{
			{name: "project_name", typ: genai.TypeString},
			{name: "new_status", typ: genai.TypeString, enum: projectStatuses},
		},
		required: []string{"project_name", "new_status"},
	},
	{
		name: ToolAddNoteToProject,
		params: []paramSpec{
			{name: "project_name", typ: genai.TypeString},
			{name: "title", typ: genai.TypeString},
			{name: "content", typ: genai.TypeString},
		},
		required: []string{"project_name", "title", "content"},
	},
}

// Catalog is the fixed set of actions the model may request, worded in one locale.
type Catalog struct {
	specs        map[string]toolSpec
	declarations []*genai.FunctionDeclaration
}

// NewCatalog builds the catalog with descriptions from loc.
func NewCatalog(loc *Locale) *Catalog {
	c := &Catalog{
		specs:        make(map[string]toolSpec, len(toolSpecs)),
		declarations: make([]*genai.FunctionDeclaration, 0, len(toolSpecs)),
	}
	for _, spec := range toolSpecs {
		c.specs[spec.name] = spec
		c.declarations = append(c.declarations, declare(spec, loc.Tools[spec.name]))
	}
	return c
}

func declare(spec toolSpec, text ToolText) *genai.FunctionDeclaration {
	props := make(map[string]*genai.Schema, len(spec.params))
	for _, p := range spec.params {
		props[p.name] = &genai.Schema{
			Type:        p.typ,
			Description: text.Params[p.name],
			Enum:        p.enum,
		}
	}
	return &genai.FunctionDeclaration{
		Name:        spec.name,
		Description: text.Description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   spec.required,
		},
	}
}

// Has reports whether name is a catalog tool.
func (c *Catalog) Has(name string) bool {
	_, ok := c.specs[name]
	return ok
}

// Declarations returns the tool declarations in catalog order.
func (c *Catalog) Declarations() []*genai.FunctionDeclaration {
	return c.declarations
}

// Tools wraps the declarations for a model request.
func (c *Catalog) Tools() []*genai.Tool {
	return []*genai.Tool{{FunctionDeclarations: c.declarations}}
}
