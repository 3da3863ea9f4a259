// Package tmpl renders the short recommendation and alert strings produced by
// the scoring packages. Templates use the Liquid language and are parsed once
// and cached by source text.
package tmpl

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/osteele/liquid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Renderer renders Liquid templates with a fixed set of formatting filters.
// It is safe for concurrent use.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewRenderer creates a renderer with the custom filters registered.
func NewRenderer() *Renderer {
	r := &Renderer{engine: liquid.NewEngine()}
	r.registerFilters()
	return r
}

func (r *Renderer) registerFilters() {
	titleCaser := cases.Title(language.English)

	// {{ source | title }}  ->  "Paid_search" style keys become "Paid Search"
	r.engine.RegisterFilter("title", func(s string) string {
		return titleCaser.String(strings.ReplaceAll(s, "_", " "))
	})

	// {{ revenue | currency }}
	r.engine.RegisterFilter("currency", func(value interface{}) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		if f < 0 {
			return fmt.Sprintf("-$%.2f", -f)
		}
		return fmt.Sprintf("$%.2f", f)
	})

	// {{ rate | percentage }}
	r.engine.RegisterFilter("percentage", func(value interface{}) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return fmt.Sprintf("%.1f%%", f)
	})

	// {{ roas | fixed: 2 }}
	r.engine.RegisterFilter("fixed", func(value interface{}, places int) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return strconv.FormatFloat(f, 'f', places, 64)
	})
}

// Render parses (or reuses) the template and renders it with vars.
func (r *Renderer) Render(src string, vars map[string]interface{}) (string, error) {
	var tpl *liquid.Template
	if cached, ok := r.cache.Load(src); ok {
		tpl = cached.(*liquid.Template)
	} else {
		parsed, err := r.engine.ParseString(src)
		if err != nil {
			return "", fmt.Errorf("parse template: %w", err)
		}
		r.cache.Store(src, parsed)
		tpl = parsed
	}

	out, err := tpl.RenderString(vars)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}

var defaultRenderer = NewRenderer()

// Render renders src with the shared renderer. Templates in this module are
// compile-time constants, so a failure returns the raw source rather than an
// error.
func Render(src string, vars map[string]interface{}) string {
	out, err := defaultRenderer.Render(src, vars)
	if err != nil {
		return src
	}
	return out
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}
