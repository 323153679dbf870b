package localization

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsEmbeddedLanguages(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"en", "uk"}, l.Languages())

	// every language carries the same keys
	for key := range l.translations["en"] {
		_, ok := l.translations["uk"][key]
		assert.True(t, ok, "uk is missing %s", key)
	}
}

func TestGetString_Fallbacks(t *testing.T) {
	l, err := New(fstest.MapFS{
		"en.json": {Data: []byte(`{"hello":"Hello","only_en":"English only"}`)},
		"uk.json": {Data: []byte(`{"hello":"Привіт"}`)},
		"notes.txt": {Data: []byte(`ignored`)},
	})
	require.NoError(t, err)

	assert.Equal(t, "Привіт", l.GetString("uk", "hello"))
	assert.Equal(t, "English only", l.GetString("uk", "only_en"))
	assert.Equal(t, "Hello", l.GetString("de", "hello"))
	assert.Equal(t, "missing_key", l.GetString("en", "missing_key"))
}

func TestFormat(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "You missed a video call from Bob.", l.Format("en", "missed_call", "video", "Bob"))
}

func TestNew_RejectsBrokenFile(t *testing.T) {
	_, err := New(fstest.MapFS{"en.json": {Data: []byte(`{`)}})
	assert.Error(t, err)
}
