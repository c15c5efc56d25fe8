package agent

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"time"

	"supaco_backend/internal/assistant/repository"
	"supaco_backend/internal/assistant/session"
	"supaco_backend/internal/events"
	"supaco_backend/platform/apperr"
	"supaco_backend/platform/logger"
	"supaco_backend/platform/phone"
	"supaco_backend/platform/validator"

	"github.com/google/uuid"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

type fakeProject struct {
	repository.NewProject
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}

type fakeProspect struct {
	repository.NewProspect
	ID        uuid.UUID
	UserID    uuid.UUID
	Status    string
	ProjectID *uuid.UUID
}

// fakeRepo is an in-memory assistant store that counts every call.
type fakeRepo struct {
	mu        sync.Mutex
	projects  []*fakeProject
	prospects []*fakeProspect
	tasks     []repository.NewTask
	notes     []repository.NewNote
	calls     int
	writes    int
	readErr   error
}

var _ repository.Repository = (*fakeRepo)(nil)

func (r *fakeRepo) addProject(userID uuid.UUID, name, status string) *fakeProject {
	p := &fakeProject{
		NewProject: repository.NewProject{Name: name, ClientName: "Client " + name, Status: status},
		ID:         uuid.New(),
		UserID:     userID,
		CreatedAt:  time.Now(),
	}
	r.projects = append(r.projects, p)
	return p
}

func (r *fakeRepo) addProspect(userID uuid.UUID, first, last, status string) *fakeProspect {
	p := &fakeProspect{
		NewProspect: repository.NewProspect{FirstName: first, LastName: last, Source: repository.SourceOther},
		ID:          uuid.New(),
		UserID:      userID,
		Status:      status,
	}
	r.prospects = append(r.prospects, p)
	return p
}

func (r *fakeRepo) project(id uuid.UUID) *fakeProject {
	for _, p := range r.projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *fakeRepo) touch() {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
}

func (r *fakeRepo) RecentProjects(_ context.Context, userID uuid.UUID, limit int) ([]repository.ProjectSummary, error) {
	r.touch()
	if r.readErr != nil {
		return nil, r.readErr
	}
	var out []repository.ProjectSummary
	for i := len(r.projects) - 1; i >= 0 && len(out) < limit; i-- {
		p := r.projects[i]
		if p.UserID != userID {
			continue
		}
		out = append(out, repository.ProjectSummary{
			ID: p.ID, Name: p.Name, ClientName: p.ClientName, Status: p.Status,
			Budget: p.Budget, Deadline: p.Deadline, CreatedAt: p.CreatedAt,
		})
	}
	return out, nil
}

func (r *fakeRepo) RecentProspects(_ context.Context, userID uuid.UUID, limit int) ([]repository.ProspectSummary, error) {
	r.touch()
	if r.readErr != nil {
		return nil, r.readErr
	}
	var out []repository.ProspectSummary
	for i := len(r.prospects) - 1; i >= 0 && len(out) < limit; i-- {
		p := r.prospects[i]
		if p.UserID != userID {
			continue
		}
		out = append(out, repository.ProspectSummary{
			ID: p.ID, FirstName: p.FirstName, LastName: p.LastName, Company: p.Company,
			Status: p.Status, EstimatedBudget: p.EstimatedBudget, Source: p.Source,
		})
	}
	return out, nil
}

func (r *fakeRepo) ProjectStatusCounts(_ context.Context, userID uuid.UUID) (repository.StatusCounts, error) {
	r.touch()
	if r.readErr != nil {
		return repository.StatusCounts{}, r.readErr
	}
	counts := repository.StatusCounts{ByStatus: map[string]int{}}
	for _, p := range r.projects {
		if p.UserID != userID {
			continue
		}
		counts.Total++
		counts.ByStatus[p.Status]++
		if p.Budget != nil {
			counts.BudgetSum += *p.Budget
		}
	}
	return counts, nil
}

func (r *fakeRepo) ProspectStatusCounts(_ context.Context, userID uuid.UUID) (repository.StatusCounts, error) {
	r.touch()
	if r.readErr != nil {
		return repository.StatusCounts{}, r.readErr
	}
	counts := repository.StatusCounts{ByStatus: map[string]int{}}
	for _, p := range r.prospects {
		if p.UserID != userID {
			continue
		}
		counts.Total++
		counts.ByStatus[p.Status]++
	}
	return counts, nil
}

func (r *fakeRepo) UpcomingDeadlines(_ context.Context, userID uuid.UUID, limit int) ([]repository.Deadline, error) {
	r.touch()
	if r.readErr != nil {
		return nil, r.readErr
	}
	var out []repository.Deadline
	for _, p := range r.projects {
		if p.UserID != userID || p.Deadline == nil || p.Status == repository.ProjectStatusDone || len(out) >= limit {
			continue
		}
		out = append(out, repository.Deadline{ProjectID: p.ID, Name: p.Name, ClientName: p.ClientName, Deadline: *p.Deadline})
	}
	return out, nil
}

func (r *fakeRepo) FindProjectsByName(_ context.Context, userID uuid.UUID, ref string, limit int) ([]repository.Candidate, error) {
	r.touch()
	needle := strings.ToLower(ref)
	var out []repository.Candidate
	for _, p := range r.projects {
		if p.UserID == userID && strings.Contains(strings.ToLower(p.Name), needle) && len(out) < limit {
			out = append(out, repository.Candidate{ID: p.ID, Name: p.Name})
		}
	}
	return out, nil
}

func (r *fakeRepo) FindProspectsByName(_ context.Context, userID uuid.UUID, ref string, limit int) ([]repository.Candidate, error) {
	r.touch()
	needle := strings.ToLower(ref)
	var out []repository.Candidate
	for _, p := range r.prospects {
		full := p.FirstName + " " + p.LastName
		if p.UserID == userID && strings.Contains(strings.ToLower(full), needle) && len(out) < limit {
			out = append(out, repository.Candidate{ID: p.ID, Name: full})
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateProject(_ context.Context, userID uuid.UUID, in repository.NewProject) (uuid.UUID, error) {
	r.touch()
	r.writes++
	p := &fakeProject{NewProject: in, ID: uuid.New(), UserID: userID, CreatedAt: time.Now()}
	r.projects = append(r.projects, p)
	return p.ID, nil
}

func (r *fakeRepo) CreateProspect(_ context.Context, userID uuid.UUID, in repository.NewProspect) (uuid.UUID, error) {
	r.touch()
	r.writes++
	p := &fakeProspect{NewProspect: in, ID: uuid.New(), UserID: userID, Status: repository.ProspectStatusNew}
	r.prospects = append(r.prospects, p)
	return p.ID, nil
}

func (r *fakeRepo) CreateTask(_ context.Context, userID uuid.UUID, in repository.NewTask) (uuid.UUID, error) {
	r.touch()
	if p := r.project(in.ProjectID); p == nil || p.UserID != userID {
		return uuid.Nil, apperr.NotFound("project not found")
	}
	r.writes++
	r.tasks = append(r.tasks, in)
	return uuid.New(), nil
}

func (r *fakeRepo) CreateNote(_ context.Context, userID uuid.UUID, in repository.NewNote) (uuid.UUID, error) {
	r.touch()
	if p := r.project(in.ProjectID); p == nil || p.UserID != userID {
		return uuid.Nil, apperr.NotFound("project not found")
	}
	r.writes++
	r.notes = append(r.notes, in)
	return uuid.New(), nil
}

func (r *fakeRepo) UpdateProjectStatus(_ context.Context, userID, projectID uuid.UUID, status string) error {
	r.touch()
	p := r.project(projectID)
	if p == nil || p.UserID != userID {
		return apperr.NotFound("project not found")
	}
	r.writes++
	p.Status = status
	return nil
}

func (r *fakeRepo) UpdateProspectStatus(_ context.Context, userID, prospectID uuid.UUID, status string) error {
	r.touch()
	for _, p := range r.prospects {
		if p.ID == prospectID && p.UserID == userID {
			r.writes++
			p.Status = status
			return nil
		}
	}
	return apperr.NotFound("prospect not found")
}

func (r *fakeRepo) WinProspect(_ context.Context, userID, prospectID uuid.UUID, prefix string) (repository.WinResult, error) {
	r.touch()
	for _, p := range r.prospects {
		if p.ID != prospectID || p.UserID != userID {
			continue
		}
		r.writes++
		p.Status = repository.ProspectStatusWon
		result := repository.WinResult{ProspectID: p.ID, LinkedProjectID: p.ProjectID}
		if p.ProjectID == nil {
			client := p.FirstName + " " + p.LastName
			project := &fakeProject{
				NewProject: repository.NewProject{
					Name:        prefix + " " + client,
					ClientName:  client,
					ClientEmail: p.Email,
					ClientPhone: p.Phone,
					Description: p.Needs,
					Budget:      p.EstimatedBudget,
					Status:      repository.ProjectStatusQuote,
				},
				ID:     uuid.New(),
				UserID: userID,
			}
			r.projects = append(r.projects, project)
			p.ProjectID = &project.ID
			result.ProjectID = &project.ID
			result.LinkedProjectID = &project.ID
		}
		return result, nil
	}
	return repository.WinResult{}, apperr.NotFound("prospect not found")
}

// recordingBus keeps published events in memory.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) named(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, e := range b.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

// fakeLLM replays a canned response and records the last request.
type fakeLLM struct {
	resp  *model.LLMResponse
	err   error
	calls int
	last  *model.LLMRequest
}

var _ model.LLM = (*fakeLLM)(nil)

func (m *fakeLLM) Name() string { return "fake" }

func (m *fakeLLM) GenerateContent(_ context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	m.calls++
	m.last = req
	return func(yield func(*model.LLMResponse, error) bool) {
		yield(m.resp, m.err)
	}
}

func textReply(text string) *model.LLMResponse {
	return &model.LLMResponse{Content: genai.NewContentFromText(text, genai.RoleModel)}
}

func toolReply(calls ...*genai.FunctionCall) *model.LLMResponse {
	parts := make([]*genai.Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, &genai.Part{FunctionCall: c})
	}
	return &model.LLMResponse{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}}
}

var errStore = errors.New("connection refused")

func testLocale() *Locale {
	return MustLoadLocale("fr")
}

func newTestExecutor(repo *fakeRepo, bus *recordingBus) *Executor {
	loc := testLocale()
	return NewExecutor(repo, NewCatalog(loc), loc, phone.NewNormalizer("FR"), validator.New(), bus, logger.Discard())
}

type serviceFixture struct {
	repo    *fakeRepo
	bus     *recordingBus
	llm     *fakeLLM
	pending *session.MemoryPendingStore
	history *session.MemoryHistoryStore
	svc     *Service
}

func newServiceFixture(requireToken bool) *serviceFixture {
	f := &serviceFixture{
		repo:    &fakeRepo{},
		bus:     &recordingBus{},
		llm:     &fakeLLM{resp: textReply("Bonjour")},
		pending: session.NewMemoryPendingStore(15 * time.Minute),
		history: session.NewMemoryHistoryStore(time.Hour, 50),
	}
	loc := testLocale()
	catalog := NewCatalog(loc)
	f.svc = NewService(Deps{
		LLM:      f.llm,
		Reader:   f.repo,
		Executor: NewExecutor(f.repo, catalog, loc, phone.NewNormalizer("FR"), validator.New(), f.bus, logger.Discard()),
		Catalog:  catalog,
		Locale:   loc,
		Pending:  f.pending,
		History:  f.history,
		Settings: Settings{Temperature: 0.7, MaxTokens: 1024, HistoryWindow: 10, RequireActionToken: requireToken},
		Log:      logger.Discard(),
	})
	return f
}
