package handlers

import (
	"context"
	"html/template"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// TemplateCache holds parsed pages. Files whose name starts with "_" are
// partials and are parsed into every page.
type TemplateCache struct {
	cache map[string]*template.Template
	mu    sync.RWMutex
	funcs template.FuncMap
	dir   string
}

func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		cache: make(map[string]*template.Template),
		funcs: make(template.FuncMap),
	}
}

func (tc *TemplateCache) AddFunc(name string, fn any) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.funcs[name] = fn
}

// Load parses all templates in dir. On error the previous set stays in use.
func (tc *TemplateCache) Load(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return err
	}

	var partials, pages []string
	for _, file := range files {
		if strings.HasPrefix(filepath.Base(file), "_") {
			partials = append(partials, file)
		} else {
			pages = append(pages, file)
		}
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	parsed := make(map[string]*template.Template, len(pages))
	for _, file := range pages {
		name := filepath.Base(file)
		tmpl, err := template.New(name).Funcs(tc.funcs).ParseFiles(append([]string{file}, partials...)...)
		if err != nil {
			slog.Error("Failed to parse template", "file", file, "error", err)
			return err
		}
		parsed[name] = tmpl
		slog.Debug("Cached template", "name", name)
	}
	tc.cache = parsed
	tc.dir = dir
	return nil
}

func (tc *TemplateCache) Get(name string) *template.Template {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.cache[name]
}

// Watch reloads the templates whenever a file in the loaded directory
// changes, until ctx is done. Bursts of events are debounced.
func (tc *TemplateCache) Watch(ctx context.Context) error {
	tc.mu.RLock()
	dir := tc.dir
	tc.mu.RUnlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if strings.HasSuffix(ev.Name, ".html") {
					debounce = time.After(100 * time.Millisecond)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Template watcher error", "error", err)
			case <-debounce:
				debounce = nil
				if err := tc.Load(dir); err != nil {
					slog.Error("Template reload failed, keeping previous set", "error", err)
					continue
				}
				slog.Info("Templates reloaded", "dir", dir)
			}
		}
	}()
	return nil
}
