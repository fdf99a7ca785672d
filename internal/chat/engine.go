package chat

import "context"

// Advisor produces the assistant reply for one user message. A non-nil error
// is turned into the reply text by advisor.Describe.
type Advisor interface {
	Advise(ctx context.Context, userText string) (string, error)
}

// AdvisorFunc adapts a function to Advisor.
type AdvisorFunc func(ctx context.Context, userText string) (string, error)

func (f AdvisorFunc) Advise(ctx context.Context, userText string) (string, error) {
	return f(ctx, userText)
}
