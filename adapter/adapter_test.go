package adapter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/config"
	"github.com/promptforge/promptforge/llm"
	"github.com/promptforge/promptforge/utils"
)

func testSettings() config.AdapterSettings {
	s := config.DefaultAdapterSettings()
	s.TaskModel = "azure/gpt-4.1-mini"
	s.JudgeModel = "azure/gpt-4o"
	return s
}

func newTestAdapter(t *testing.T, kind Kind, settings config.AdapterSettings) (Adapter, *llm.MockClient) {
	t.Helper()
	client := llm.NewMockClient()
	caller := llm.NewCaller(client, llm.WithModerationBackoff(0))
	a, err := New(kind, settings, caller, utils.NewMockLogger())
	require.NoError(t, err)
	return a, client
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New(Kind("summarizer"), testSettings(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summarizer")
}

func TestNewAllKinds(t *testing.T) {
	for _, kind := range []Kind{KindClassifier, KindExtractor, KindSQL, KindRAG} {
		a, err := New(kind, testSettings(), llm.NewCaller(llm.NewMockClient()), nil)
		require.NoError(t, err, "kind %s", kind)
		assert.NotNil(t, a)
	}
}

func TestTruncateRuneBoundary(t *testing.T) {
	b := base{logger: utils.NewMockLogger()}

	in := strings.Repeat("x", 9) + "ñé"
	got := b.truncate(in, 10, "classifier")
	assert.Equal(t, strings.Repeat("x", 9)+"ñ...", got)
	assert.True(t, utf8.ValidString(got))

	tenRunes := strings.Repeat("ñ", 10)
	assert.Equal(t, tenRunes, b.truncate(tenRunes, 10, "classifier"), "rune count fits, no cut")
	assert.Equal(t, in, b.truncate(in, 0, "classifier"), "maxLen 0 disables truncation")
}

func TestLabelKeyProbeOrder(t *testing.T) {
	assert.Equal(t, "urgency", labelKey(Example{"urgency": "high", "label": "x"}))
	assert.Equal(t, "class", labelKey(Example{"class": "spam"}))
	assert.Equal(t, "sentiment", labelKey(Example{"sentiment": "neg"}))
	assert.Equal(t, "label", labelKey(Example{"text": "no label here"}))
}
