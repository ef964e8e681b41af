package assist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeRemote struct {
	content string
	tags    []string
	err     error
	block   bool
	calls   int
}

func (f *fakeRemote) Name() string { return "fake" }

func (f *fakeRemote) FormatAndTag(ctx context.Context, raw string) (string, []string, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", nil, ctx.Err()
	}
	return f.content, f.tags, f.err
}

func TestSimpleFormat(t *testing.T) {
	in := "  Titre  \r\n\r\n\r\n\r\nligne 1\t \rligne 2   \n\n\n"
	assert.Equal(t, "Titre\n\nligne 1\nligne 2", SimpleFormat(in))
	assert.Equal(t, "a\n\nb", SimpleFormat("a\n\nb"))
}

func TestExtractTags(t *testing.T) {
	content := "Révolution française. La révolution, la Bastille; la bastille!\n" +
		"Avec pour dans: Paris paris PARIS 1789 x-y-z abc aujourd'hui"
	got := ExtractTags(content)
	assert.Equal(t, []string{"paris", "bastille", "revolution", "1789", "francaise", "x-y-z"}, got)
}

func TestExtractTagsCapsAtSix(t *testing.T) {
	got := ExtractTags("alpha bravo charlie delta echo foxtrot hotel india")
	assert.Len(t, got, 6)
	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}, got)
}

func TestServiceWithoutRemoteFormatsLocally(t *testing.T) {
	s := NewService(nil, 0, zaptest.NewLogger(t))
	res := s.FormatAndTag(context.Background(), "Bonjour   \n\n\n\nmonde monde")

	assert.False(t, s.Enabled())
	assert.Equal(t, "Bonjour\n\nmonde monde", res.Content)
	assert.Equal(t, []string{"monde", "bonjour"}, res.Tags)
	assert.False(t, res.Assisted)
	assert.Equal(t, ProviderLocal, res.Provider)
	assert.Empty(t, res.Notice)
}

func TestServiceUsesRemote(t *testing.T) {
	remote := &fakeRemote{content: "# Titre  \n\n\n\ncorps", tags: []string{" histoire ", "histoire", "", "paris"}}
	s := NewService(remote, time.Second, zaptest.NewLogger(t))

	res := s.FormatAndTag(context.Background(), "brut")
	assert.True(t, res.Assisted)
	assert.Equal(t, "fake", res.Provider)
	assert.Equal(t, "# Titre\n\ncorps", res.Content)
	assert.Equal(t, []string{"histoire", "paris"}, res.Tags)
}

func TestServiceCapsRemoteTags(t *testing.T) {
	remote := &fakeRemote{content: "x", tags: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}}
	res := NewService(remote, 0, nil).FormatAndTag(context.Background(), "x")
	assert.Len(t, res.Tags, 8)
}

func TestServiceFallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name   string
		remote *fakeRemote
	}{
		{"error", &fakeRemote{err: errors.New("quota exceeded")}},
		{"empty content", &fakeRemote{content: "   "}},
		{"timeout", &fakeRemote{block: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(tt.remote, 20*time.Millisecond, zaptest.NewLogger(t))
			res := s.FormatAndTag(context.Background(), "texte  \n\n\n\nbrut texte")

			require.Equal(t, 1, tt.remote.calls)
			assert.False(t, res.Assisted)
			assert.Equal(t, ProviderLocal, res.Provider)
			assert.Equal(t, "texte\n\nbrut texte", res.Content)
			assert.Equal(t, []string{"texte", "brut"}, res.Tags)
			assert.NotEmpty(t, res.Notice)
		})
	}
}

func TestServiceRemoteWithoutTagsUsesLocalTags(t *testing.T) {
	remote := &fakeRemote{content: "formatted"}
	res := NewService(remote, 0, nil).FormatAndTag(context.Background(), "cuisine cuisine lyonnaise")
	assert.True(t, res.Assisted)
	assert.Equal(t, []string{"cuisine", "lyonnaise"}, res.Tags)
}

func TestFormatDropsTags(t *testing.T) {
	res := NewService(nil, 0, nil).Format(context.Background(), "cuisine lyonnaise")
	assert.Nil(t, res.Tags)
	assert.Equal(t, "cuisine lyonnaise", res.Content)
}

func TestParseRemoteJSON(t *testing.T) {
	content, tags, err := parseRemoteJSON(` {"content":"# A","tags":["x"]} `)
	require.NoError(t, err)
	assert.Equal(t, "# A", content)
	assert.Equal(t, []string{"x"}, tags)

	_, _, err = parseRemoteJSON("")
	assert.ErrorIs(t, err, errEmptyContent)

	_, _, err = parseRemoteJSON("not json")
	assert.Error(t, err)
}
