package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/set-night/mindchat/internal/domain"
)

func newTestFormRunner(t *testing.T) (*FormRunner, *fakeGateway) {
	t.Helper()
	r, _ := newTestRegistry(t, newTestStorage(t))
	gw := &fakeGateway{reply: Reply{Kind: ReplyChoices, Content: "stories"}}
	return NewFormRunner(r, gw), gw
}

func TestFormRunner_ValidationBlocksSend(t *testing.T) {
	runner, gw := newTestFormRunner(t)

	_, err := runner.Run(context.Background(), "product-owner", &RequirementsForm{
		WorkingOn: "app",
		Goal:      "  short   ",
		Context:   "long enough context",
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["workingOn"]; !ok {
		t.Errorf("expected workingOn error, got %v", verr.Fields)
	}
	if msg := verr.Fields["goal"]; msg != "must be at least 10 characters" {
		t.Errorf("unexpected goal message %q", msg)
	}
	if _, ok := verr.Fields["context"]; ok {
		t.Error("valid field reported")
	}
	if gw.callCount() != 0 {
		t.Error("invalid form must not reach the gateway")
	}
}

func TestFormRunner_Run(t *testing.T) {
	runner, gw := newTestFormRunner(t)

	text, err := runner.Run(context.Background(), "product-owner", &MarketResearchForm{
		Company: "Acme Corp",
		Focus:   "pricing strategy",
	})
	if err != nil {
		t.Fatal(err)
	}
	if text != "stories" {
		t.Errorf("unexpected reply %q", text)
	}
	req := gw.calls[0]
	if len(req.Context) != 0 {
		t.Error("forms must send an empty context")
	}
	if !strings.Contains(req.Prompt, "Company or product: Acme Corp") || !strings.Contains(req.Prompt, "pricing strategy") {
		t.Errorf("prompt missing form values: %q", req.Prompt)
	}
	if req.Assistant.ID != "product-owner" {
		t.Errorf("unexpected assistant %s", req.Assistant.ID)
	}
}

func TestFormRunner_UnknownAssistant(t *testing.T) {
	runner, _ := newTestFormRunner(t)
	_, err := runner.Run(context.Background(), "nope", &MarketResearchForm{Company: "Acme", Focus: "growth"})
	if !errors.Is(err, domain.ErrAssistantNotFound) {
		t.Errorf("expected ErrAssistantNotFound, got %v", err)
	}
}

func TestFormRunner_DocumentationRuneCount(t *testing.T) {
	runner, _ := newTestFormRunner(t)
	form := &DocumentationForm{
		Overview: "Обзор продукта",
		Features: "Функции продукта",
		UseCases: "Сценарии применения",
		Steps:    "Шаги для начала",
		Tips:     "Советы",
		FAQ:      "Вопросы",
		Errors:   "Ошибки",
	}
	if err := runner.Validate(form); err != nil {
		t.Errorf("expected valid form, got %v", err)
	}
}

func TestParseForm(t *testing.T) {
	kind, ok := LookupFormKind("requirements")
	if !ok {
		t.Fatal("requirements form not registered")
	}

	form, err := ParseForm(kind, "workingOn: Billing service\nGOAL: cut invoice errors\nin half\ncontext: finance team")
	if err != nil {
		t.Fatal(err)
	}
	f := form.(*RequirementsForm)
	if f.WorkingOn != "Billing service" || f.Goal != "cut invoice errors\nin half" || f.Context != "finance team" {
		t.Errorf("unexpected form %+v", f)
	}

	if _, err := ParseForm(kind, "hello there"); err == nil {
		t.Error("expected error for text without keys")
	}
}

func TestFormTemplate(t *testing.T) {
	kind, _ := LookupFormKind("research")
	if got := FormTemplate(kind); got != "company: \nfocus: \n" {
		t.Errorf("unexpected template %q", got)
	}
}
