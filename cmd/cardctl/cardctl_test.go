package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewpaige1/memocards-api/cards"
)

type cli struct {
	t      *testing.T
	dir    string
	store  string
	config string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	dir := t.TempDir()
	return &cli{
		t:      t,
		dir:    dir,
		store:  filepath.Join(dir, "cards.json"),
		config: filepath.Join(dir, "missing.yaml"),
	}
}

func (c *cli) run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--store", c.store, "--config", c.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func (c *cli) add(title, content string, extra ...string) string {
	c.t.Helper()
	out := c.mustRun(append([]string{"add", "--title", title, "--content", content}, extra...)...)
	require.True(c.t, strings.HasPrefix(out, "Created card "), out)
	return strings.TrimSpace(strings.TrimPrefix(out, "Created card "))
}

func (c *cli) list(args ...string) []cards.Card {
	c.t.Helper()
	out := c.mustRun(append([]string{"list", "--json"}, args...)...)
	var list []cards.Card
	require.NoError(c.t, json.Unmarshal([]byte(out), &list), out)
	return list
}

func titles(list []cards.Card) []string {
	out := make([]string, len(list))
	for i, card := range list {
		out[i] = card.Title
	}
	return out
}

func TestAddFormatsAndSuggestsTags(t *testing.T) {
	c := newCLI(t)
	id := c.add("Révolution", "La prise de la Bastille   \r\n\r\n\r\n\r\nParis", "--tag", "histoire")

	list := c.list()
	require.Len(t, list, 1)
	card := list[0]
	assert.Equal(t, id, card.ID)
	assert.Equal(t, "La prise de la Bastille\n\nParis", card.Content)
	assert.Equal(t, "histoire", card.Tags[0])
	assert.Contains(t, card.Tags, "bastille")
	assert.Contains(t, card.Tags, "paris")
	assert.Equal(t, 1, card.Version)

	_, err := os.Stat(c.store)
	assert.NoError(t, err)
}

func TestAddWithoutAssistKeepsContent(t *testing.T) {
	c := newCLI(t)
	c.add("Brut", "texte   \n\n\n\nbrut", "--no-assist")

	list := c.list()
	require.Len(t, list, 1)
	assert.Equal(t, "texte   \n\n\n\nbrut", list[0].Content)
	assert.Empty(t, list[0].Tags)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("add", "--title", "   ", "--content", "x")
	assert.ErrorIs(t, err, cards.ErrValidation)

	_, err = c.run("add", "--title", "Sans contenu")
	assert.Error(t, err)

	_, err = c.run("add", "--content", "pas de titre")
	assert.Error(t, err)

	assert.Empty(t, c.list())
}

func TestAddReadsContentFile(t *testing.T) {
	c := newCLI(t)
	path := filepath.Join(c.dir, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("# Titre\n\ncorps"), 0o600))

	_, err := c.run("add", "--title", "Les deux", "--content", "x", "--content-file", path)
	assert.Error(t, err)

	out := c.mustRun("add", "--title", "Fichier", "--content-file", path, "--no-assist")
	id := strings.TrimSpace(strings.TrimPrefix(out, "Created card "))
	card := c.show(id)
	assert.Equal(t, "# Titre\n\ncorps", card.Content)
}

func (c *cli) show(id string) cards.Card {
	c.t.Helper()
	out := c.mustRun("show", id, "--json")
	var card cards.Card
	require.NoError(c.t, json.Unmarshal([]byte(out), &card), out)
	return card
}

func TestAddEmbedsImages(t *testing.T) {
	c := newCLI(t)
	png := filepath.Join(c.dir, "dot.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\nfake"), 0o600))
	notes := filepath.Join(c.dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o600))

	id := c.add("Image", "avec image", "--no-assist", "--image", png)
	card := c.show(id)
	require.Len(t, card.Images, 1)
	assert.True(t, strings.HasPrefix(card.Images[0], "data:image/png;base64,"), card.Images[0])

	_, err := c.run("add", "--title", "Texte", "--content", "x", "--image", notes)
	assert.Error(t, err)
}

func TestEditChangesOnlyGivenFields(t *testing.T) {
	c := newCLI(t)
	id := c.add("Ancien", "contenu", "--no-assist", "--tag", "a", "--tag", "b")

	out := c.mustRun("edit", id, "--title", "Nouveau", "--tag", "c")
	assert.Contains(t, out, "(v2)")

	card := c.show(id)
	assert.Equal(t, "Nouveau", card.Title)
	assert.Equal(t, "contenu", card.Content)
	assert.Equal(t, []string{"c"}, card.Tags)
	assert.Equal(t, 2, card.Version)
	assert.False(t, card.UpdatedAt.Before(card.CreatedAt))

	c.mustRun("edit", id, "--content", "ligne   \n\n\n\nsuite")
	assert.Equal(t, "ligne\n\nsuite", c.show(id).Content)

	_, err := c.run("edit", "missing", "--title", "x")
	assert.ErrorIs(t, err, cards.ErrNotFound)
}

func TestDeleteAndShow(t *testing.T) {
	c := newCLI(t)
	id := c.add("Éphémère", "bientôt supprimée", "--no-assist")

	out := c.mustRun("show", id)
	assert.Contains(t, out, "# Éphémère")
	assert.Contains(t, out, "bientôt supprimée")

	c.mustRun("delete", id)
	_, err := c.run("show", id)
	assert.ErrorIs(t, err, cards.ErrNotFound)
	_, err = c.run("delete", id)
	assert.ErrorIs(t, err, cards.ErrNotFound)
}

func TestListSearchTagsAndSort(t *testing.T) {
	c := newCLI(t)
	c.add("Été à Brest", "il pleut", "--no-assist", "--tag", "plage")
	time.Sleep(2 * time.Millisecond)
	c.add("Hiver", "la neige", "--no-assist", "--tag", "montagne")
	time.Sleep(2 * time.Millisecond)
	c.add("Automne", "les feuilles", "--no-assist", "--tag", "plage", "--tag", "forêt")

	assert.Equal(t, []string{"Automne", "Hiver", "Été à Brest"}, titles(c.list()))
	assert.Equal(t, []string{"Été à Brest"}, titles(c.list("--search", "ETE")))
	assert.Equal(t, []string{"Automne", "Été à Brest"}, titles(c.list("--tag", "plage")))
	assert.Equal(t, []string{"Automne"}, titles(c.list("--tag", "plage", "--tag", "forêt")))
	assert.Equal(t, []string{"Automne", "Été à Brest", "Hiver"}, titles(c.list("--sort", "alpha-asc")))

	_, err := c.run("list", "--sort", "random")
	assert.Error(t, err)

	out := c.mustRun("tags")
	assert.Equal(t, "forêt\nmontagne\nplage\n", out)

	out = c.mustRun("list", "--search", "introuvable")
	assert.Equal(t, "No cards found.\n", out)
}

func TestExportThenImportIntoFreshStore(t *testing.T) {
	src := newCLI(t)
	src.add("Un", "premier", "--no-assist", "--tag", "x")
	src.add("Deux", "second", "--no-assist")

	outDir := filepath.Join(src.dir, "exports")
	out := src.mustRun("export", "--out", outDir)
	path := filepath.Join(outDir, cards.ExportFilename(cards.DefaultExportPrefix, time.Now()))
	assert.Contains(t, out, "Exported 2 cards to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"exportedAt"`)

	dst := newCLI(t)
	out = dst.mustRun("import", path)
	assert.Equal(t, "Imported (merge): 2 created, 0 updated, 0 skipped, 0 unchanged\n", out)
	assert.ElementsMatch(t, titles(src.list()), titles(dst.list()))

	out = dst.mustRun("import", path)
	assert.Equal(t, "Imported (merge): 0 created, 0 updated, 0 skipped, 2 unchanged\n", out)
}

func TestExportToStdoutBare(t *testing.T) {
	c := newCLI(t)
	c.add("Seule", "carte", "--no-assist")

	out := c.mustRun("export", "--out", "-", "--bare")
	var list []cards.Card
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, []string{"Seule"}, titles(list))
}

func TestImportReplaceAndRejection(t *testing.T) {
	c := newCLI(t)
	c.add("Gardée", "avant", "--no-assist")

	bad := filepath.Join(c.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"id":"a","title":"ok","content":"x","tags":[],"createdAt":"2024-01-01","updatedAt":"2024-01-01"},{"id":"b","title":"","content":"x","tags":[],"createdAt":"2024-01-01","updatedAt":"2024-01-01"}]`), 0o600))
	_, err := c.run("import", bad)
	assert.ErrorIs(t, err, cards.ErrValidation)
	assert.Equal(t, []string{"Gardée"}, titles(c.list()))

	_, err = c.run("import", bad, "--policy", "sometimes")
	assert.Error(t, err)

	good := filepath.Join(c.dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`[{"id":"n1","title":"Nouvelle","content":"importée","tags":["t"],"createdAt":"2024-03-01T10:00:00Z","updatedAt":"2024-03-02T10:00:00Z"}]`), 0o600))
	out := c.mustRun("import", good, "--strategy", "replace")
	assert.Equal(t, "Imported (replace): 1 created, 0 updated, 0 skipped, 0 unchanged\n", out)
	assert.Equal(t, []string{"Nouvelle"}, titles(c.list()))

	_, err = c.run("import", good, "--strategy", "upsert")
	assert.Error(t, err)
}

func TestImportPolicyLastWriteWins(t *testing.T) {
	c := newCLI(t)
	id := c.add("Locale", "récente", "--no-assist")

	stale := filepath.Join(c.dir, "stale.json")
	record := `[{"id":"` + id + `","title":"Ancienne","content":"vieille","tags":[],"updatedAt":"2001-01-01T00:00:00.000Z","createdAt":"2001-01-01T00:00:00.000Z"}]`
	require.NoError(t, os.WriteFile(stale, []byte(record), 0o600))

	out := c.mustRun("import", stale, "--policy", "last-write-wins")
	assert.Equal(t, "Imported (merge): 0 created, 0 updated, 1 skipped, 0 unchanged\n", out)
	assert.Equal(t, "Locale", c.show(id).Title)

	out = c.mustRun("import", stale)
	assert.Equal(t, "Imported (merge): 0 created, 1 updated, 0 skipped, 0 unchanged\n", out)
	assert.Equal(t, "Ancienne", c.show(id).Title)
}

func TestCorruptStoreFails(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, os.WriteFile(c.store, []byte("{not json"), 0o600))

	_, err := c.run("list")
	assert.Error(t, err)
}
