package handlers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func execPage(t *testing.T, tc *TemplateCache, name string) string {
	t.Helper()
	tmpl := tc.Get(name)
	require.NotNil(t, tmpl, name)
	var buf bytes.Buffer
	require.NoError(t, tmpl.Execute(&buf, nil))
	return buf.String()
}

func TestLoadParsesPartialsIntoEveryPage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_parts.html"), []byte(`{{define "greet"}}hello{{end}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.html"), []byte(`A {{template "greet"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.html"), []byte(`B {{shout "x"}}`), 0o644))

	tc := NewTemplateCache()
	tc.AddFunc("shout", func(s string) string { return s + "!" })
	require.NoError(t, tc.Load(dir))

	require.Equal(t, "A hello", execPage(t, tc, "a.html"))
	require.Equal(t, "B x!", execPage(t, tc, "b.html"))
	require.Nil(t, tc.Get("_parts.html"))
}

func TestLoadKeepsPreviousSetOnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.html"), []byte(`ok`), 0o644))

	tc := NewTemplateCache()
	require.NoError(t, tc.Load(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.html"), []byte(`{{if}}`), 0o644))
	require.Error(t, tc.Load(dir))
	require.Equal(t, "ok", execPage(t, tc, "a.html"))
}

func TestWatchReloadsChangedTemplates(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "a.html")
	require.NoError(t, os.WriteFile(page, []byte(`v1`), 0o644))

	tc := NewTemplateCache()
	require.NoError(t, tc.Load(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, tc.Watch(ctx))

	require.NoError(t, os.WriteFile(page, []byte(`v2`), 0o644))
	require.Eventually(t, func() bool {
		var buf bytes.Buffer
		return tc.Get("a.html").Execute(&buf, nil) == nil && buf.String() == "v2"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestProjectTemplatesParse(t *testing.T) {
	tc := NewTemplateCache()
	RegisterFuncs(tc, cordoba)
	require.NoError(t, tc.Load("../../templates"))
	for _, name := range []string{"login.html", "desk.html", "board.html", "crm.html", "catalog.html", "label.html"} {
		require.NotNil(t, tc.Get(name), name)
	}
}
