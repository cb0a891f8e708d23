package llm

import "fmt"

// Call records one generation request made against MockLLM.
type Call struct {
	System string
	User   string
	JSON   bool
}

// MockLLM replays scripted responses in order and records every call.
type MockLLM struct {
	Responses []string
	Calls     []Call
	Err       error

	next int
}

func NewMockLLM(responses ...string) *MockLLM {
	return &MockLLM{Responses: responses}
}

func (m *MockLLM) Generate(prompt string) (string, error) {
	return m.respond(Call{User: prompt})
}

func (m *MockLLM) GenerateWithSystem(systemPrompt, userPrompt string) (string, error) {
	return m.respond(Call{System: systemPrompt, User: userPrompt})
}

func (m *MockLLM) GenerateJSON(systemPrompt, userPrompt string) (string, error) {
	return m.respond(Call{System: systemPrompt, User: userPrompt, JSON: true})
}

func (m *MockLLM) ModelName() string {
	return "mock"
}

func (m *MockLLM) respond(call Call) (string, error) {
	m.Calls = append(m.Calls, call)
	if m.Err != nil {
		return "", m.Err
	}
	if m.next >= len(m.Responses) {
		return "", fmt.Errorf("mock LLM: no response scripted for call %d", m.next+1)
	}
	resp := m.Responses[m.next]
	m.next++
	return resp, nil
}
