package settings

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/rza-core/internal/apperr"
	"github.com/nerrad567/rza-core/internal/infrastructure/config"
)

func newTestValidator(t *testing.T) *DocumentValidator {
	t.Helper()
	v, err := NewDocumentValidator(config.DocumentsConfig{MaxKeys: 3, MaxDepth: 3, MaxStringLen: 8})
	require.NoError(t, err)
	return v
}

func nested(depth int) map[string]any {
	doc := map[string]any{"leaf": 1}
	for i := 1; i < depth; i++ {
		doc = map[string]any{"n": doc}
	}
	return doc
}

func TestDocumentValidator(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name    string
		doc     map[string]any
		wantErr string
	}{
		{name: "nil document", doc: nil},
		{name: "empty object", doc: map[string]any{}},
		{name: "flat within limits", doc: map[string]any{"ir": 1.2, "t": "0.3s", "on": true}},
		{name: "nested at max depth", doc: nested(3)},
		{name: "mixed scalars", doc: map[string]any{"n": 50, "g": map[string]any{"ir": 0.85, "off": nil}, "a": []any{1, "x", false}}},
		{name: "too many keys", doc: map[string]any{"a": 1, "b": 2, "c": 3, "d": 4}, wantErr: "payload exceeds document limits"},
		{name: "too many keys nested", doc: map[string]any{"g": map[string]any{"a": 1, "b": 2, "c": 3, "d": 4}}, wantErr: "/g"},
		{name: "string too long", doc: map[string]any{"s": "123456789"}, wantErr: "payload exceeds document limits"},
		{name: "string too long in array", doc: map[string]any{"a": []any{"ok", "123456789"}}, wantErr: "/a/1"},
		{name: "key too long", doc: map[string]any{"123456789": 1}, wantErr: "payload exceeds document limits"},
		{name: "too deep", doc: nested(4), wantErr: "maximum nesting depth of 3"},
		{name: "arrays count as depth", doc: map[string]any{"a": []any{[]any{[]any{1}}}}, wantErr: "maximum nesting depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate("payload", tt.doc)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrValidation), "want validation error, got %v", err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewDocumentValidatorDefaults(t *testing.T) {
	v, err := NewDocumentValidator(config.Default().Documents)
	require.NoError(t, err)

	assert.NoError(t, v.Validate("settings", map[string]any{"note": strings.Repeat("x", 4096)}))
	assert.Error(t, v.Validate("settings", map[string]any{"note": strings.Repeat("x", 4097)}))
}

func TestNestingDepth(t *testing.T) {
	assert.Equal(t, 0, nestingDepth("scalar"))
	assert.Equal(t, 1, nestingDepth(map[string]any{}))
	assert.Equal(t, 1, nestingDepth(map[string]any{"a": 1}))
	assert.Equal(t, 2, nestingDepth(map[string]any{"a": []any{1, 2}}))
	assert.Equal(t, 3, nestingDepth(nested(3)))
}
