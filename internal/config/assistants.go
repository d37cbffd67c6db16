package config

import (
	"time"

	"github.com/set-night/mindchat/internal/domain"
)

// DefaultContextConfig is the global layer of context budget resolution.
func DefaultContextConfig() domain.ContextConfig {
	return domain.ContextConfig{
		MaxMessages:            DefaultMaxMessages,
		MaxCharsPerMessage:     DefaultMaxCharsPerMessage,
		MaxTotalChars:          DefaultMaxTotalChars,
		PreserveRecentMessages: DefaultPreserveRecentMessages,
		EnableOptimization:     true,
	}
}

const techDocPrompt = `You are a senior specialist in technical software documentation and code auditing with a product focus: clarity for non-technical readers, technical excellence for developers and an executive view for managers. When you receive code (a snippet or a repository), produce four deliverables in the requested format together with practical, prioritized actions and metrics to track impact.

Always:
- Analyse code, parameters, contracts and flows. Point out responsibilities, weak spots, technical debt, coverage gaps and security risks, citing files and lines.
- For every important technical item state the user impact, the KPI to monitor and an experiment that would validate a change.
- Prioritize actions as quick wins, medium term and long term with relative effort (S, M, L) and acceptance criteria.
- Provide corrective code samples, unit tests and ready-to-paste commands when possible.
- Illustrate architecture and flows with Mermaid diagrams.
- If the repository is not reachable, say so and ask for the exact files you need.
- Start with a one to three sentence executive summary and finish with a checklist of next actions.

Deliverables:
1. Clear and accessible overview for non-technical stakeholders.
2. Detailed technical guide for developers and architects.
3. Quick onboarding manual for new developers.
4. Executive summary for prioritization decisions.

Flag any secrets found in the code and explain how to rotate them.`

const documentationTemplate = `You are a specialist in the product knowledge base. Using only the documents in this knowledge base, list every different way to perform the following operation: %s.

First, write an explanatory summary describing what this operation or feature is, where it applies and why it is used.

Then list every way to perform it, separating each method and explaining:
- How each method works (user interface, API, script, etc.)
- The differences between them
- Which one is recommended in common scenarios

If a method is outdated, discontinued or insecure, say so clearly.

Important: use only information present in the documents. Ignore any external data.`

// BuiltinAssistants returns a fresh copy of the assistants shipped with the
// application. Persisted overrides are layered on top by the registry.
func BuiltinAssistants() []domain.Assistant {
	created := time.Date(2025, 4, 22, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC)

	return []domain.Assistant{
		{
			ID:            "tech-doc",
			Title:         "Technical Documentation Assistant",
			Description:   "Generates complete technical documentation from code extracted from GitHub repositories.",
			SystemPrompt:  techDocPrompt,
			Model:         "gpt-4o",
			Temperature:   "0.5",
			PayloadFormat: domain.PayloadChat,
			CreatedBy:     "Apps Team",
			CreatedAt:     created,
			UpdatedAt:     updated,
		},
		{
			ID:             "documentation",
			Title:          "Documentation Search",
			Description:    "Answers how-to questions using only the product knowledge base.",
			SystemPrompt:   "You are an assistant specialized in documentation. Help users find and understand product documentation. Be detailed and precise in your answers.",
			Model:          "gpt-4o-mini",
			PayloadFormat:  domain.PayloadContent,
			PromptTemplate: documentationTemplate,
			Context: domain.ContextOverride{
				MaxMessages:            domain.IntPtr(15),
				MaxTotalChars:          domain.IntPtr(6000),
				PreserveRecentMessages: domain.IntPtr(4),
			},
			CreatedBy: "Apps Team",
			CreatedAt: created,
			UpdatedAt: updated,
		},
		{
			ID:            "developer",
			Title:         "Developer",
			Description:   "Pair programmer for implementation, debugging and code review.",
			SystemPrompt:  "You are an assistant specialized for developers. Provide code examples, clear technical explanations and development best practices. Be precise and objective in your answers.",
			Model:         "gpt-4o",
			Temperature:   "0.5",
			PayloadFormat: domain.PayloadChat,
			Context: domain.ContextOverride{
				MaxMessages:            domain.IntPtr(25),
				MaxTotalChars:          domain.IntPtr(10000),
				PreserveRecentMessages: domain.IntPtr(8),
			},
			CreatedBy: "Apps Team",
			CreatedAt: created,
			UpdatedAt: updated,
		},
		{
			ID:            "product-owner",
			Title:         "Product Owner",
			Description:   "Turns ideas into user stories, acceptance criteria and market analysis.",
			SystemPrompt:  "You are an assistant specialized in product ownership. Help users with product management, prioritization and backlog questions. Give practical answers oriented to business value.",
			Model:         "gpt-4o-mini",
			Temperature:   "0.5",
			PayloadFormat: domain.PayloadChat,
			Context: domain.ContextOverride{
				MaxMessages:            domain.IntPtr(20),
				MaxTotalChars:          domain.IntPtr(8000),
				PreserveRecentMessages: domain.IntPtr(6),
			},
			CreatedBy: "Apps Team",
			CreatedAt: created,
			UpdatedAt: updated,
		},
		{
			ID:            "generalist",
			Title:         "Generalist",
			Description:   "General purpose assistant for everyday questions.",
			SystemPrompt:  "You are a friendly and helpful AI assistant. Answer questions clearly and concisely. If you do not know the answer, be honest about your limitations.",
			Model:         "gpt-4o-mini",
			Temperature:   "0.9",
			PayloadFormat: domain.PayloadChat,
			Context: domain.ContextOverride{
				MaxMessages:            domain.IntPtr(18),
				MaxTotalChars:          domain.IntPtr(7000),
				PreserveRecentMessages: domain.IntPtr(5),
			},
			CreatedBy: "Apps Team",
			CreatedAt: created,
			UpdatedAt: updated,
		},
	}
}
