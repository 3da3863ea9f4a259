package tmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Filters(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name string
		src  string
		vars map[string]interface{}
		want string
	}{
		{"plain variable", "Hello {{ name }}", map[string]interface{}{"name": "Ana"}, "Hello Ana"},
		{"title", "{{ source | title }}", map[string]interface{}{"source": "paid_search"}, "Paid Search"},
		{"currency", "{{ v | currency }}", map[string]interface{}{"v": 1234.5}, "$1234.50"},
		{"negative currency", "{{ v | currency }}", map[string]interface{}{"v": -2.0}, "-$2.00"},
		{"percentage", "{{ v | percentage }}", map[string]interface{}{"v": 42.26}, "42.3%"},
		{"fixed", "{{ v | fixed: 2 }}", map[string]interface{}{"v": 3.14159}, "3.14"},
		{"missing variable renders empty", "[{{ nope }}]", map[string]interface{}{}, "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Render(tt.src, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderer_ParseError(t *testing.T) {
	r := NewRenderer()
	_, err := r.Render("{% if x %}unterminated", nil)
	assert.Error(t, err)
}

func TestRender_FallsBackToSource(t *testing.T) {
	assert.Equal(t, "{% if x %}unterminated", Render("{% if x %}unterminated", nil))
	assert.Equal(t, "x=1", Render("x={{ x }}", map[string]interface{}{"x": 1}))
}

func TestRenderer_CachesTemplates(t *testing.T) {
	r := NewRenderer()
	src := "{{ a }}"
	_, err := r.Render(src, map[string]interface{}{"a": 1})
	require.NoError(t, err)

	_, ok := r.cache.Load(src)
	assert.True(t, ok)

	got, err := r.Render(src, map[string]interface{}{"a": 2})
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}
