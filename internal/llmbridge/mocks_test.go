package llmbridge

import "context"

type mockClient struct {
	model   string
	chatFn  func(ctx context.Context, req Request, result any) error
	callCnt int
}

func (m *mockClient) Chat(ctx context.Context, req Request, result any) error {
	m.callCnt++
	if m.chatFn != nil {
		return m.chatFn(ctx, req, result)
	}
	return nil
}

func (m *mockClient) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	return "", nil
}

func (m *mockClient) Model() string {
	return m.model
}
