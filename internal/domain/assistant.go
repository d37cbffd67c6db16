package domain

import "time"

type PayloadFormat string

const (
	// PayloadChat posts an OpenAI-compatible messages array.
	PayloadChat PayloadFormat = "chat"
	// PayloadContent posts {"content": ...} built from PromptTemplate.
	PayloadContent PayloadFormat = "content"
)

// Assistant is the per-assistant configuration record: endpoint, model,
// system prompt and context budget defaults in one place.
type Assistant struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	APIEndpoint    string            `json:"apiEndpoint,omitempty"`
	APIHeaders     map[string]string `json:"apiHeaders,omitempty"`
	SystemPrompt   string            `json:"systemPrompt,omitempty"`
	Model          string            `json:"model,omitempty"`
	Temperature    string            `json:"temperature,omitempty"`
	PayloadFormat  PayloadFormat     `json:"payloadFormat,omitempty"`
	PromptTemplate string            `json:"promptTemplate,omitempty"`
	Context        ContextOverride   `json:"context"`
	CreatedBy      string            `json:"createdBy,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (a Assistant) Clone() Assistant {
	if a.APIHeaders != nil {
		headers := make(map[string]string, len(a.APIHeaders))
		for k, v := range a.APIHeaders {
			headers[k] = v
		}
		a.APIHeaders = headers
	}
	return a
}

// AssistantUpdate lists the mutable fields; nil means unchanged.
type AssistantUpdate struct {
	APIEndpoint  *string           `json:"apiEndpoint,omitempty"`
	APIHeaders   map[string]string `json:"apiHeaders,omitempty"`
	SystemPrompt *string           `json:"systemPrompt,omitempty"`
	Model        *string           `json:"model,omitempty"`
	Temperature  *string           `json:"temperature,omitempty"`
	Context      *ContextOverride  `json:"context,omitempty"`
}

func StringPtr(v string) *string { return &v }

// Apply returns a copy of a with every field set in u replaced.
func (a Assistant) Apply(u AssistantUpdate) Assistant {
	a = a.Clone()
	if u.APIEndpoint != nil {
		a.APIEndpoint = *u.APIEndpoint
	}
	if u.APIHeaders != nil {
		a.APIHeaders = make(map[string]string, len(u.APIHeaders))
		for k, v := range u.APIHeaders {
			a.APIHeaders[k] = v
		}
	}
	if u.SystemPrompt != nil {
		a.SystemPrompt = *u.SystemPrompt
	}
	if u.Model != nil {
		a.Model = *u.Model
	}
	if u.Temperature != nil {
		a.Temperature = *u.Temperature
	}
	if u.Context != nil {
		a.Context = a.Context.Merge(*u.Context)
	}
	return a
}

// Merge layers top over u.
func (u AssistantUpdate) Merge(top AssistantUpdate) AssistantUpdate {
	if top.APIEndpoint != nil {
		u.APIEndpoint = top.APIEndpoint
	}
	if top.APIHeaders != nil {
		u.APIHeaders = top.APIHeaders
	}
	if top.SystemPrompt != nil {
		u.SystemPrompt = top.SystemPrompt
	}
	if top.Model != nil {
		u.Model = top.Model
	}
	if top.Temperature != nil {
		u.Temperature = top.Temperature
	}
	if top.Context != nil {
		merged := *top.Context
		if u.Context != nil {
			merged = u.Context.Merge(*top.Context)
		}
		u.Context = &merged
	}
	return u
}
