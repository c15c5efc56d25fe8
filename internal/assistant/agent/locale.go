package agent

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Message keys.
const (
	msgMissingMessage         = "missing_message"
	msgInvalidAction          = "invalid_action"
	msgTokenRequired          = "token_required"
	msgNotConfigured          = "not_configured"
	msgInvalidAPIKey          = "invalid_api_key"
	msgProviderError          = "provider_error"
	msgNoResponse             = "no_response"
	msgConfirmQuestion        = "confirm_question"
	msgCancelled              = "cancelled"
	msgProjectCreated         = "project_created"
	msgProspectCreated        = "prospect_created"
	msgTaskCreated            = "task_created"
	msgNoteAdded              = "note_added"
	msgProspectStatusUpdated  = "prospect_status_updated"
	msgProjectStatusUpdated   = "project_status_updated"
	msgProspectConverted      = "prospect_converted"
	msgProjectNotFound        = "project_not_found"
	msgProspectNotFound       = "prospect_not_found"
	msgUnknownAction          = "unknown_action"
	msgMissingArgument        = "missing_argument"
	msgInvalidValue           = "invalid_value"
	msgInvalidDate            = "invalid_date"
	msgExecutionFailed        = "execution_failed"
	descriptionFallbackKey    = "fallback"
	insightNewProspects       = "new_prospects"
	insightUpcomingDeadlines  = "upcoming_deadlines"
	insightProjectsInProgress = "projects_in_progress"
)

var requiredMessages = []string{
	msgMissingMessage, msgInvalidAction, msgTokenRequired, msgNotConfigured, msgInvalidAPIKey,
	msgProviderError, msgNoResponse, msgConfirmQuestion, msgCancelled, msgProjectCreated,
	msgProspectCreated, msgTaskCreated, msgNoteAdded, msgProspectStatusUpdated,
	msgProjectStatusUpdated, msgProspectConverted, msgProjectNotFound, msgProspectNotFound,
	msgUnknownAction, msgMissingArgument, msgInvalidValue, msgInvalidDate, msgExecutionFailed,
}

var requiredInsights = []string{insightNewProspects, insightUpcomingDeadlines, insightProjectsInProgress}

// ToolText is the localized wording of one tool and its parameters.
type ToolText struct {
	Description string            `yaml:"description"`
	Params      map[string]string `yaml:"params"`
}

// Placeholders are shown in place of absent values.
type Placeholders struct {
	NoBudget    string `yaml:"no_budget"`
	NoDeadline  string `yaml:"no_deadline"`
	NotProvided string `yaml:"not_provided"`
}

// Locale holds every user-facing string of the assistant for one language.
type Locale struct {
	Code              string              `yaml:"code"`
	DateLayout        string              `yaml:"date_layout"`
	CurrencyFormat    string              `yaml:"currency_format"`
	ProjectNamePrefix string              `yaml:"project_name_prefix"`
	Placeholders      Placeholders        `yaml:"placeholders"`
	Prompt            string              `yaml:"prompt"`
	Messages          map[string]string   `yaml:"messages"`
	Descriptions      map[string]string   `yaml:"descriptions"`
	Tools             map[string]ToolText `yaml:"tools"`
	Insights          map[string]string   `yaml:"insights"`
	Questions         []string            `yaml:"questions"`

	tag       language.Tag
	templates *template.Template
}

// LoadLocale reads the embedded catalog for code ("fr" or "en") and compiles
// its templates.
func LoadLocale(code string) (*Locale, error) {
	raw, err := localeFS.ReadFile("locales/" + code + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown assistant locale %q: %w", code, err)
	}

	var loc Locale
	if err := yaml.Unmarshal(raw, &loc); err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", code, err)
	}
	if err := loc.compile(); err != nil {
		return nil, fmt.Errorf("locale %q: %w", code, err)
	}
	return &loc, nil
}

// MustLoadLocale is LoadLocale for the embedded catalogs, which are known to be valid.
func MustLoadLocale(code string) *Locale {
	loc, err := LoadLocale(code)
	if err != nil {
		panic(err)
	}
	return loc
}

func (l *Locale) compile() error {
	tag, err := language.Parse(l.Code)
	if err != nil {
		return fmt.Errorf("language code: %w", err)
	}
	l.tag = tag

	for _, key := range requiredMessages {
		if l.Messages[key] == "" {
			return fmt.Errorf("missing message %q", key)
		}
	}
	for _, key := range requiredInsights {
		if l.Insights[key] == "" {
			return fmt.Errorf("missing insight %q", key)
		}
	}
	for _, spec := range toolSpecs {
		if l.Descriptions[spec.name] == "" {
			return fmt.Errorf("missing description for tool %q", spec.name)
		}
		if l.Tools[spec.name].Description == "" {
			return fmt.Errorf("missing wording for tool %q", spec.name)
		}
	}
	if l.Descriptions[descriptionFallbackKey] == "" {
		return fmt.Errorf("missing fallback description")
	}

	root := template.New("locale").Option("missingkey=zero")
	add := func(name, text string) error {
		_, err := root.New(name).Parse(text)
		return err
	}
	if err := add("prompt", l.Prompt); err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	for key, text := range l.Messages {
		if err := add("messages."+key, text); err != nil {
			return fmt.Errorf("message %q: %w", key, err)
		}
	}
	for key, text := range l.Descriptions {
		if err := add("descriptions."+key, text); err != nil {
			return fmt.Errorf("description %q: %w", key, err)
		}
	}
	for key, text := range l.Insights {
		if err := add("insights."+key, text); err != nil {
			return fmt.Errorf("insight %q: %w", key, err)
		}
	}
	l.templates = root
	return nil
}

// Tag is the language of the catalog.
func (l *Locale) Tag() language.Tag {
	return l.tag
}

// Message renders the message template key with data.
func (l *Locale) Message(key string, data any) string {
	return l.render("messages."+key, data)
}

// Text renders a message template that takes no data.
func (l *Locale) Text(key string) string {
	return l.Message(key, nil)
}

// Describe renders the one-line description of a proposed tool call. Unknown
// tools get the fallback wording.
func (l *Locale) Describe(function string, args map[string]any) string {
	data := stringifyArgs(args)
	key := function
	if _, ok := l.Descriptions[function]; !ok {
		key = descriptionFallbackKey
		data["function"] = function
	}
	return l.render("descriptions."+key, data)
}

func (l *Locale) insight(key string, count int) string {
	return l.render("insights."+key, struct{ Count int }{Count: count})
}

func (l *Locale) prompt(data promptData) string {
	return l.render("prompt", data)
}

func (l *Locale) render(name string, data any) string {
	var buf bytes.Buffer
	if err := l.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return name
	}
	return buf.String()
}

// stringifyArgs renders tool arguments as strings so description templates
// see "" instead of "<no value>" for absent keys.
func stringifyArgs(args map[string]any) map[string]string {
	out := make(map[string]string, len(args)+1)
	for key, value := range args {
		out[key] = argString(value)
	}
	return out
}
