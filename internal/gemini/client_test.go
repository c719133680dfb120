package gemini

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/edgard/chatwidget/internal/backend"
	"github.com/edgard/chatwidget/internal/config"
	"github.com/edgard/chatwidget/internal/logger"
)

type fakeModels struct {
	calls    int
	errs     []error
	resp     *genai.GenerateContentResponse
	contents []*genai.Content
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.contents = contents
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.resp, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(text, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func testConfig() config.GeminiConfig {
	return config.GeminiConfig{APIKey: "x", ModelName: "m", Temperature: 0.5, SystemInstruction: "Support for %s.", MaxRetries: 2}
}

func TestRespondBuildsConversation(t *testing.T) {
	t.Parallel()

	models := &fakeModels{resp: textResponse("  Sure!  ")}
	c := newClient(models, testConfig(), "Acme", logger.Discard())

	got, err := c.Respond(context.Background(), []backend.Turn{{User: "hi", Bot: "hello"}}, "help me")
	require.NoError(t, err)
	assert.Equal(t, "Sure!", got)

	require.Len(t, models.contents, 3)
	assert.Equal(t, string(genai.RoleUser), models.contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), models.contents[1].Role)
	assert.Equal(t, "help me", models.contents[2].Parts[0].Text)
	assert.Contains(t, c.contentConfig.SystemInstruction.Parts[0].Text, "Support for Acme.")
}

func TestRespondRetriesServerErrors(t *testing.T) {
	t.Parallel()

	models := &fakeModels{
		errs: []error{&genai.APIError{Code: 503}, &genai.APIError{Code: 500}},
		resp: textResponse("ok"),
	}
	c := newClient(models, testConfig(), "Acme", logger.Discard())

	got, err := c.Respond(context.Background(), nil, "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, models.calls)
}

func TestRespondDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	models := &fakeModels{errs: []error{&genai.APIError{Code: 400}}}
	c := newClient(models, testConfig(), "Acme", logger.Discard())

	_, err := c.Respond(context.Background(), nil, "hi")
	assert.Error(t, err)
	assert.Equal(t, 1, models.calls)
}

func TestRespondGivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	boom := &genai.APIError{Code: 503}
	models := &fakeModels{errs: []error{boom, boom, boom, boom}}
	c := newClient(models, testConfig(), "Acme", logger.Discard())

	_, err := c.Respond(context.Background(), nil, "hi")
	assert.ErrorContains(t, err, "after 2 retries")
	assert.Equal(t, 3, models.calls)
}

func TestRespondRejectsEmptyAndBlocked(t *testing.T) {
	t.Parallel()

	tests := map[string]*genai.GenerateContentResponse{
		"no candidates": {},
		"blank text":    textResponse("   "),
		"blocked": {
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
		},
	}
	for name, resp := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := newClient(&fakeModels{resp: resp}, testConfig(), "Acme", logger.Discard())
			_, err := c.Respond(context.Background(), nil, "hi")
			assert.Error(t, err)
		})
	}
}

func TestSystemInstruction(t *testing.T) {
	t.Parallel()

	assert.Contains(t, SystemInstruction("Help for %s", "Acme"), "Help for Acme")
	assert.Contains(t, SystemInstruction("No placeholder", "Acme"), "No placeholder")

	got := SystemInstruction("%s offers 20% off. Ask %s.", "Acme")
	assert.True(t, strings.HasPrefix(got, "Acme offers 20% off. Ask Acme."))
	assert.NotContains(t, got, "MISSING")
}
