package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	t.Setenv("DOCQA_TEST_LLM_KEY", "secret")
	c, err := NewOpenAICompatibleClient("DOCQA_TEST_LLM_KEY", "mistral-large-latest", url,
		Options{Temperature: 0.2, MaxTokens: 256})
	require.NoError(t, err)
	return c
}

func TestClient_MissingKey(t *testing.T) {
	t.Setenv("DOCQA_TEST_LLM_KEY", "")
	_, err := NewOpenAICompatibleClient("DOCQA_TEST_LLM_KEY", "m", "http://unused", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCQA_TEST_LLM_KEY")
}

func TestGenerateWithSystem(t *testing.T) {
	var gotReq chatRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"the answer"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	out, err := c.GenerateWithSystem("you are terse", "what is up")
	require.NoError(t, err)
	assert.Equal(t, "the answer", out)

	assert.Equal(t, "Bearer secret", gotAuth)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "mistral-large-latest", gotReq.Model)
	assert.Nil(t, gotReq.ResponseFormat)
}

func TestGenerateJSON_SetsResponseFormat(t *testing.T) {
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"query\":\"q\"}"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	out, err := c.GenerateJSON("sys", "user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"q"}`, out)

	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_object", gotReq.ResponseFormat.Type)
}

func TestGenerateJSON_StripsFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := "Here you go:\n```json\n{\"query\":\"fenced\"}\n```"
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	out, err := c.GenerateJSON("sys", "user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"fenced"}`, out)
}

func TestGenerate_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Generate("prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Generate("prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestMockLLM_ScriptedOrder(t *testing.T) {
	m := NewMockLLM("one", "two")

	out, err := m.GenerateJSON("s", "u")
	require.NoError(t, err)
	assert.Equal(t, "one", out)

	out, err = m.Generate("p")
	require.NoError(t, err)
	assert.Equal(t, "two", out)

	_, err = m.Generate("p")
	require.Error(t, err, "exhausted script must error")

	require.Len(t, m.Calls, 3)
	assert.True(t, m.Calls[0].JSON)
	assert.False(t, m.Calls[1].JSON)
}
