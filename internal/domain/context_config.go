package domain

import "fmt"

// ContextConfig is the budget policy applied when selecting context messages.
type ContextConfig struct {
	MaxMessages            int  `json:"maxMessages"`
	MaxCharsPerMessage     int  `json:"maxCharsPerMessage"`
	MaxTotalChars          int  `json:"maxTotalChars"`
	PreserveRecentMessages int  `json:"preserveRecentMessages"`
	EnableOptimization     bool `json:"enableOptimization"`
}

// ContextOverride is a partial ContextConfig. Nil fields fall through to the
// next layer when merged.
type ContextOverride struct {
	MaxMessages            *int  `json:"maxMessages,omitempty"`
	MaxCharsPerMessage     *int  `json:"maxCharsPerMessage,omitempty"`
	MaxTotalChars          *int  `json:"maxTotalChars,omitempty"`
	PreserveRecentMessages *int  `json:"preserveRecentMessages,omitempty"`
	EnableOptimization     *bool `json:"enableOptimization,omitempty"`
}

// Apply returns c with every field set in o replaced.
func (c ContextConfig) Apply(o ContextOverride) ContextConfig {
	if o.MaxMessages != nil {
		c.MaxMessages = *o.MaxMessages
	}
	if o.MaxCharsPerMessage != nil {
		c.MaxCharsPerMessage = *o.MaxCharsPerMessage
	}
	if o.MaxTotalChars != nil {
		c.MaxTotalChars = *o.MaxTotalChars
	}
	if o.PreserveRecentMessages != nil {
		c.PreserveRecentMessages = *o.PreserveRecentMessages
	}
	if o.EnableOptimization != nil {
		c.EnableOptimization = *o.EnableOptimization
	}
	return c
}

// IsEmpty reports whether no field is set.
func (o ContextOverride) IsEmpty() bool {
	return o.MaxMessages == nil && o.MaxCharsPerMessage == nil && o.MaxTotalChars == nil &&
		o.PreserveRecentMessages == nil && o.EnableOptimization == nil
}

// Validate rejects non-positive budgets.
func (o ContextOverride) Validate() error {
	fields := map[string]string{}
	check := func(name string, v *int) {
		if v != nil && *v <= 0 {
			fields[name] = fmt.Sprintf("must be positive, got %d", *v)
		}
	}
	check("maxMessages", o.MaxMessages)
	check("maxCharsPerMessage", o.MaxCharsPerMessage)
	check("maxTotalChars", o.MaxTotalChars)
	check("preserveRecentMessages", o.PreserveRecentMessages)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Merge returns o with every field set in top replaced.
func (o ContextOverride) Merge(top ContextOverride) ContextOverride {
	if top.MaxMessages != nil {
		o.MaxMessages = top.MaxMessages
	}
	if top.MaxCharsPerMessage != nil {
		o.MaxCharsPerMessage = top.MaxCharsPerMessage
	}
	if top.MaxTotalChars != nil {
		o.MaxTotalChars = top.MaxTotalChars
	}
	if top.PreserveRecentMessages != nil {
		o.PreserveRecentMessages = top.PreserveRecentMessages
	}
	if top.EnableOptimization != nil {
		o.EnableOptimization = top.EnableOptimization
	}
	return o
}

func IntPtr(v int) *int    { return &v }
func BoolPtr(v bool) *bool { return &v }
