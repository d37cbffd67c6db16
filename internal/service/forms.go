package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/set-night/mindchat/internal/domain"
)

// Form is a structured request that is turned into a single prompt.
type Form interface {
	Normalize()
	Prompt() string
}

type RequirementsForm struct {
	WorkingOn string `json:"workingOn" validate:"min=5"`
	Goal      string `json:"goal" validate:"min=10"`
	Context   string `json:"context" validate:"min=10"`
}

func (f *RequirementsForm) Normalize() {
	f.WorkingOn = strings.TrimSpace(f.WorkingOn)
	f.Goal = strings.TrimSpace(f.Goal)
	f.Context = strings.TrimSpace(f.Context)
}

func (f *RequirementsForm) Prompt() string {
	return fmt.Sprintf(`I need you to act as an experienced Product Owner and help me write requirements for my project.

What I am working on: %s

What I am trying to achieve: %s

Strategic and behavioral context: %s

Please produce detailed requirements for this project, including:
1. Well formatted user stories
2. Clear acceptance criteria
3. Suggested prioritization
4. Possible dependencies
5. Relative effort estimates`, f.WorkingOn, f.Goal, f.Context)
}

type MarketResearchForm struct {
	Company string `json:"company" validate:"min=3"`
	Focus   string `json:"focus" validate:"min=5"`
}

func (f *MarketResearchForm) Normalize() {
	f.Company = strings.TrimSpace(f.Company)
	f.Focus = strings.TrimSpace(f.Focus)
}

func (f *MarketResearchForm) Prompt() string {
	return fmt.Sprintf(`I need you to act as an experienced market analyst and help me research a company or product.

Company or product: %s

Specific research focus: %s

Please provide a detailed analysis including:
1. Overview of the company or product
2. Market positioning
3. Main competitors
4. Strengths and weaknesses
5. Relevant trends
6. Potential opportunities

Organize the information into clear sections and give actionable insights.`, f.Company, f.Focus)
}

type DocumentationForm struct {
	Overview string `json:"overview" validate:"min=10"`
	Features string `json:"features" validate:"min=10"`
	UseCases string `json:"useCases" validate:"min=10"`
	Steps    string `json:"steps" validate:"min=10"`
	Tips     string `json:"tips" validate:"min=5"`
	FAQ      string `json:"faq" validate:"min=5"`
	Errors   string `json:"errors" validate:"min=5"`
}

func (f *DocumentationForm) Normalize() {
	for _, p := range []*string{&f.Overview, &f.Features, &f.UseCases, &f.Steps, &f.Tips, &f.FAQ, &f.Errors} {
		*p = strings.TrimSpace(*p)
	}
}

func (f *DocumentationForm) Prompt() string {
	return fmt.Sprintf(`Write clear and objective documentation for my product following this outline:

Overview: %s

Main features: %s

Use cases: %s

Step by step: %s

Tips and good practices: %s

FAQ: %s

Common errors and solutions: %s

Organize and highlight each section using lists, clear paragraphs and examples where possible. Be direct and useful.`,
		f.Overview, f.Features, f.UseCases, f.Steps, f.Tips, f.FAQ, f.Errors)
}

// FormKind describes one form for presentation layers.
type FormKind struct {
	Name        string
	Title       string
	AssistantID string
	// Fields lists the json keys accepted in "key: value" input.
	Fields []string
	New    func() Form
}

var FormKinds = []FormKind{
	{
		Name:        "requirements",
		Title:       "Requirements",
		AssistantID: "product-owner",
		Fields:      []string{"workingOn", "goal", "context"},
		New:         func() Form { return &RequirementsForm{} },
	},
	{
		Name:        "research",
		Title:       "Market research",
		AssistantID: "product-owner",
		Fields:      []string{"company", "focus"},
		New:         func() Form { return &MarketResearchForm{} },
	},
	{
		Name:        "docs",
		Title:       "Product documentation",
		AssistantID: "tech-doc",
		Fields:      []string{"overview", "features", "useCases", "steps", "tips", "faq", "errors"},
		New:         func() Form { return &DocumentationForm{} },
	},
}

func LookupFormKind(name string) (FormKind, bool) {
	for _, k := range FormKinds {
		if k.Name == name {
			return k, true
		}
	}
	return FormKind{}, false
}

// ParseForm fills a new form of kind from "key: value" lines. Lines that do
// not start with a known key continue the previous value.
func ParseForm(kind FormKind, text string) (Form, error) {
	form := kind.New()
	v := reflect.ValueOf(form).Elem()
	byKey := map[string]int{}
	for i := 0; i < v.NumField(); i++ {
		key := jsonName(v.Type().Field(i))
		byKey[strings.ToLower(key)] = i
	}

	current := -1
	unknown := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		if key, value, ok := strings.Cut(line, ":"); ok {
			if idx, known := byKey[strings.ToLower(strings.TrimSpace(key))]; known {
				current = idx
				v.Field(idx).SetString(strings.TrimSpace(value))
				continue
			}
		}
		if current < 0 {
			if strings.TrimSpace(line) != "" {
				unknown["line"] = fmt.Sprintf("expected one of %s", strings.Join(kind.Fields, ", "))
			}
			continue
		}
		f := v.Field(current)
		f.SetString(f.String() + "\n" + line)
	}

	if len(unknown) > 0 {
		return nil, &domain.ValidationError{Fields: unknown}
	}
	return form, nil
}

type FormRunner struct {
	assistants assistantLookup
	gateway    Gateway
	validate   *validator.Validate
}

func NewFormRunner(assistants assistantLookup, gateway Gateway) *FormRunner {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	return &FormRunner{assistants: assistants, gateway: gateway, validate: v}
}

// Validate normalizes form and reports every field that fails.
func (r *FormRunner) Validate(form Form) error {
	form.Normalize()
	err := r.validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate form: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &domain.ValidationError{Fields: fields}
}

// Run validates form and sends its prompt with no conversational context.
// Nothing is sent when validation fails.
func (r *FormRunner) Run(ctx context.Context, assistantID string, form Form) (string, error) {
	if err := r.Validate(form); err != nil {
		return "", err
	}
	assistant, err := r.assistants.Get(assistantID)
	if err != nil {
		return "", err
	}
	reply, err := r.gateway.SendPrompt(ctx, PromptRequest{Assistant: assistant, Prompt: form.Prompt()})
	if err != nil {
		return "", err
	}
	return reply.Text(), nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "required":
		return "is required"
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// FormTemplate renders an empty "key: value" skeleton for kind.
func FormTemplate(kind FormKind) string {
	var b strings.Builder
	for _, k := range kind.Fields {
		b.WriteString(k)
		b.WriteString(": \n")
	}
	return b.String()
}
