package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := RenderMarkdown("**pothole** <script>alert(1)</script>")
	assert.Contains(t, out, "<strong>pothole</strong>")
	assert.NotContains(t, out, "<script>")
}

func TestRenderMarkdownImages(t *testing.T) {
	out := RenderMarkdown("![hole](https://example.org/hole.jpg)")
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
}

func TestEnhanceHTMLContentEmpty(t *testing.T) {
	assert.Equal(t, "", EnhanceHTMLContent(""))
}
