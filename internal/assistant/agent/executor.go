package agent

import (
	"context"
	"errors"
	"strings"

	"supaco_backend/internal/assistant/repository"
	"supaco_backend/internal/events"
	"supaco_backend/platform/apperr"
	"supaco_backend/platform/logger"
	"supaco_backend/platform/phone"
	"supaco_backend/platform/validator"

	"github.com/google/uuid"
)

// candidateLimit bounds how many name matches are ranked per lookup.
const candidateLimit = 10

// ActionResult is the outcome of one executed action. Failures are results,
// never errors.
type ActionResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// Executor performs confirmed tool calls against the caller's own records.
type Executor struct {
	repo    repository.Writer
	catalog *Catalog
	loc     *Locale
	phone   *phone.Normalizer
	val     *validator.Validator
	bus     events.Bus
	log     *logger.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(repo repository.Writer, catalog *Catalog, loc *Locale, phones *phone.Normalizer, val *validator.Validator, bus events.Bus, log *logger.Logger) *Executor {
	return &Executor{
		repo:    repo,
		catalog: catalog,
		loc:     loc,
		phone:   phones,
		val:     val,
		bus:     bus,
		log:     log,
	}
}

type actionFunc func(ctx context.Context, userID uuid.UUID, args toolArgs) (ActionResult, *uuid.UUID)

// Execute runs function with args for userID. Unknown functions never reach the store.
func (e *Executor) Execute(ctx context.Context, userID uuid.UUID, function string, args map[string]any) ActionResult {
	if !e.catalog.Has(function) {
		e.log.WithContext(ctx).AssistantAction(userID.String(), function, toolArgs(args).keys(), false)
		return e.failure(e.loc.Message(msgUnknownAction, struct{ Function string }{function}))
	}

	var run actionFunc
	switch function {
	case ToolCreateProject:
		run = e.createProject
	case ToolCreateProspect:
		run = e.createProspect
	case ToolCreateTask:
		run = e.createTask
	case ToolUpdateProspectStatus:
		run = e.updateProspectStatus
	case ToolUpdateProjectStatus:
		run = e.updateProjectStatus
	case ToolAddNoteToProject:
		run = e.addNote
	}

	a := toolArgs(args)
	if a == nil {
		a = toolArgs{}
	}
	result, entityID := run(ctx, userID, a)

	e.log.WithContext(ctx).AssistantAction(userID.String(), function, a.keys(), result.Success)
	e.bus.Publish(ctx, events.AssistantActionExecuted{
		BaseEvent: events.NewBaseEvent(),
		UserID:    userID,
		Function:  function,
		ArgKeys:   a.keys(),
		Success:   result.Success,
		EntityID:  entityID,
		Message:   result.Message,
	})
	return result
}

func (e *Executor) createProject(ctx context.Context, userID uuid.UUID, a toolArgs) (ActionResult, *uuid.UUID) {
	in := repository.NewProject{Description: a.optText("description")}

	var err error
	if in.Name, err = a.requiredLine("name"); err != nil {
		return e.invalid(err), nil
	}
	if in.ClientName, err = a.requiredLine("client_name"); err != nil {
		return e.invalid(err), nil
	}
	if in.ClientEmail, err = e.email(a, "client_email"); err != nil {
		return e.invalid(err), nil
	}
	in.ClientPhone = e.phoneNumber(a, "client_phone")
	if in.Budget, err = a.optNumber("budget"); err != nil {
		return e.invalid(err), nil
	}
	if in.Status, err = a.enum("status", createProjectStatuses, repository.ProjectStatusQuote); err != nil {
		return e.invalid(err), nil
	}
	if in.Deadline, err = a.optDate("deadline"); err != nil {
		return e.invalid(err), nil
	}

	id, err := e.repo.CreateProject(ctx, userID, in)
	if err != nil {
		return e.storeFailure(ctx, "create project", err), nil
	}

	return ActionResult{
		Success: true,
		Message: e.loc.Message(msgProjectCreated, struct{ Name, Client string }{in.Name, in.ClientName}),
		Data:    withID(a, id),
	}, &id
}

func (e *Executor) createProspect(ctx context.Context, userID uuid.UUID, a toolArgs) (ActionResult, *uuid.UUID) {
	in := repository.NewProspect{
		Company: a.optLine("company"),
		Needs:   a.optText("needs"),
		Notes:   a.optText("notes"),
		Phone:   e.phoneNumber(a, "phone"),
	}

	var err error
	if in.FirstName, err = a.requiredLine("first_name"); err != nil {
		return e.invalid(err), nil
	}
	if in.LastName, err = a.requiredLine("last_name"); err != nil {
		return e.invalid(err), nil
	}
	if in.Email, err = e.email(a, "email"); err != nil {
		return e.invalid(err), nil
	}
	if in.Source, err = a.enum("source", prospectSources, repository.SourceOther); err != nil {
		return e.invalid(err), nil
	}
	if in.EstimatedBudget, err = a.optNumber("estimated_budget"); err != nil {
		return e.invalid(err), nil
	}

	id, err := e.repo.CreateProspect(ctx, userID, in)
	if err != nil {
		return e.storeFailure(ctx, "create prospect", err), nil
	}

	name := in.FirstName + " " + in.LastName
	return ActionResult{
		Success: true,
		Message: e.loc.Message(msgProspectCreated, struct{ Name string }{name}),
		Data:    withID(a, id),
	}, &id
}

func (e *Executor) createTask(ctx context.Context, userID uuid.UUID, a toolArgs) (ActionResult, *uuid.UUID) {
	ref, err := a.requiredLine("project_name")
	if err != nil {
		return e.invalid(err), nil
	}
	in := repository.NewTask{Description: a.optText("description")}
	if in.Title, err = a.requiredLine("title"); err != nil {
		return e.invalid(err), nil
	}
	if in.Priority, err = a.enum("priority", taskPriorities, repository.TaskPriorityMedium); err != nil {
		return e.invalid(err), nil
	}
	if in.DueDate, err = a.optDate("due_date"); err != nil {
		return e.invalid(err), nil
	}

	project, result, ok := e.resolveProject(ctx, userID, ref)
	if !ok {
		return result, nil
	}
	in.ProjectID = project.ID

	id, err := e.repo.CreateTask(ctx, userID, in)
	if apperr.Is(err, apperr.KindNotFound) {
		return e.failure(e.loc.Message(msgProjectNotFound, struct{ Name string }{ref})), nil
	}
	if err != nil {
		return e.storeFailure(ctx, "create task", err), nil
	}

	data := withID(a, id)
	data["project_id"] = project.ID.String()
	return ActionResult{
		Success: true,
		Message: e.loc.Message(msgTaskCreated, struct{ Title, Project string }{in.Title, project.Name}),
		Data:    data,
	}, &id
}

func (e *Executor) updateProspectStatus(ctx context.Context, userID uuid.UUID, a toolArgs) (ActionResult, *uuid.UUID) {
	ref, err := a.requiredLine("prospect_name")
	if err != nil {
		return e.invalid(err), nil
	}
	status, err := a.enum("new_status", prospectStatuses, "")
	if err != nil {
		return e.invalid(err), nil
	}

	candidates, err := e.repo.FindProspectsByName(ctx, userID, ref, candidateLimit)
	if err != nil {
		return e.storeFailure(ctx, "find prospect", err), nil
	}
	prospect, ok := e.pick(ctx, ref, candidates)
	if !ok {
		return e.failure(e.loc.Message(msgProspectNotFound, struct{ Name string }{ref})), nil
	}

	data := map[string]any{"id": prospect.ID.String(), "status": status}

	if status != repository.ProspectStatusWon {
		err := e.repo.UpdateProspectStatus(ctx, userID, prospect.ID, status)
		if apperr.Is(err, apperr.KindNotFound) {
			return e.failure(e.loc.Message(msgProspectNotFound, struct{ Name string }{ref})), nil
		}
		if err != nil {
			return e.storeFailure(ctx, "update prospect status", err), nil
		}
		return ActionResult{
			Success: true,
			Message: e.loc.Message(msgProspectStatusUpdated, struct{ Name, Status string }{prospect.Name, status}),
			Data:    data,
		}, &prospect.ID
	}

	won, err := e.repo.WinProspect(ctx, userID, prospect.ID, e.loc.ProjectNamePrefix)
	if apperr.Is(err, apperr.KindNotFound) {
		return e.failure(e.loc.Message(msgProspectNotFound, struct{ Name string }{ref})), nil
	}
	if err != nil {
		return e.storeFailure(ctx, "win prospect", err), nil
	}
	if won.LinkedProjectID != nil {
		data["project_id"] = won.LinkedProjectID.String()
	}
	if won.ProjectID == nil {
		return ActionResult{
			Success: true,
			Message: e.loc.Message(msgProspectStatusUpdated, struct{ Name, Status string }{prospect.Name, status}),
			Data:    data,
		}, &prospect.ID
	}

	data["project_created"] = true
	e.bus.Publish(ctx, events.ProspectConverted{
		BaseEvent:  events.NewBaseEvent(),
		UserID:     userID,
		ProspectID: prospect.ID,
		ProjectID:  *won.ProjectID,
	})
	projectName := strings.TrimSpace(e.loc.ProjectNamePrefix + " " + prospect.Name)
	return ActionResult{
		Success: true,
		Message: e.loc.Message(msgProspectConverted, struct{ Name, Status, Project string }{prospect.Name, status, projectName}),
		Data:    data,
	}, &prospect.ID
}

func (e *Executor) updateProjectStatus(ctx context.Context, userID uuid.UUID, a toolArgs) (ActionResult, *uuid.UUID) {
	ref, err := a.requiredLine("project_name")
	if err != nil {
		return e.invalid(err), nil
	}
	status, err := a.enum("new_status", projectStatuses, "")
	if err != nil {
		return e.invalid(err), nil
	}

	project, result, ok := e.resolveProject(ctx, userID, ref)
	if !ok {
		return result, nil
	}

	err = e.repo.UpdateProjectStatus(ctx, userID, project.ID, status)
	if apperr.Is(err, apperr.KindNotFound) {
		return e.failure(e.loc.Message(msgProjectNotFound, struct{ Name string }{ref})), nil
	}
	if err != nil {
		return e.storeFailure(ctx, "update project status", err), nil
	}

	return ActionResult{
		Success: true,
		Message: e.loc.Message(msgProjectStatusUpdated, struct{ Name, Status string }{project.Name, status}),
		Data:    map[string]any{"id": project.ID.String(), "status": status},
	}, &project.ID
}

func (e *Executor) addNote(ctx context.Context, userID uuid.UUID, a toolArgs) (ActionResult, *uuid.UUID) {
	ref, err := a.requiredLine("project_name")
	if err != nil {
		return e.invalid(err), nil
	}
	in := repository.NewNote{}
	if in.Title, err = a.requiredLine("title"); err != nil {
		return e.invalid(err), nil
	}
	if in.Content, err = a.requiredText("content"); err != nil {
		return e.invalid(err), nil
	}

	project, result, ok := e.resolveProject(ctx, userID, ref)
	if !ok {
		return result, nil
	}
	in.ProjectID = project.ID

	id, err := e.repo.CreateNote(ctx, userID, in)
	if apperr.Is(err, apperr.KindNotFound) {
		return e.failure(e.loc.Message(msgProjectNotFound, struct{ Name string }{ref})), nil
	}
	if err != nil {
		return e.storeFailure(ctx, "create note", err), nil
	}

	return ActionResult{
		Success: true,
		Message: e.loc.Message(msgNoteAdded, struct{ Title, Project string }{in.Title, project.Name}),
		Data:    map[string]any{"id": id.String(), "project_id": project.ID.String()},
	}, &id
}

// resolveProject finds the caller's best project match for ref. When nothing
// matches it returns the not-found result to report.
func (e *Executor) resolveProject(ctx context.Context, userID uuid.UUID, ref string) (repository.Candidate, ActionResult, bool) {
	candidates, err := e.repo.FindProjectsByName(ctx, userID, ref, candidateLimit)
	if err != nil {
		return repository.Candidate{}, e.storeFailure(ctx, "find project", err), false
	}
	project, ok := e.pick(ctx, ref, candidates)
	if !ok {
		return repository.Candidate{}, e.failure(e.loc.Message(msgProjectNotFound, struct{ Name string }{ref})), false
	}
	return project, ActionResult{}, true
}

func (e *Executor) pick(ctx context.Context, ref string, candidates []repository.Candidate) (repository.Candidate, bool) {
	best, ambiguous, ok := bestCandidate(ref, candidates)
	if ok && ambiguous {
		e.log.WithContext(ctx).Warn("ambiguous entity reference",
			"candidates", len(candidates),
			"picked", best.ID.String(),
		)
	}
	return best, ok
}

func (e *Executor) email(a toolArgs, key string) (*string, error) {
	v := a.optLine(key)
	if v == nil {
		return nil, nil
	}
	lowered := strings.ToLower(*v)
	if err := e.val.Var(lowered, "email"); err != nil {
		return nil, &argError{key: msgInvalidValue, field: key, value: *v}
	}
	return &lowered, nil
}

func (e *Executor) phoneNumber(a toolArgs, key string) *string {
	v := a.optLine(key)
	if v == nil {
		return nil
	}
	normalized := e.phone.Normalize(*v)
	return &normalized
}

func (e *Executor) invalid(err error) ActionResult {
	var argErr *argError
	if errors.As(err, &argErr) {
		return e.failure(argErr.message(e.loc))
	}
	return e.failure(e.loc.Text(msgExecutionFailed))
}

func (e *Executor) storeFailure(ctx context.Context, op string, err error) ActionResult {
	e.log.WithContext(ctx).DatabaseError(op, err)
	return e.failure(e.loc.Text(msgExecutionFailed))
}

func (e *Executor) failure(message string) ActionResult {
	return ActionResult{Success: false, Message: message}
}

// withID echoes the arguments back with the new row's identifier.
func withID(a toolArgs, id uuid.UUID) map[string]any {
	data := make(map[string]any, len(a)+1)
	for k, v := range a {
		data[k] = v
	}
	data["id"] = id.String()
	return data
}
