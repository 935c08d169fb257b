package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOriginHost(t *testing.T) {
	assert.Equal(t, "example.com", extractOriginHost("https://example.com"))
	assert.Equal(t, "example.com:3000", extractOriginHost("http://example.com:3000"))
	assert.Equal(t, "example.com", extractOriginHost("https://EXAMPLE.com "))
	assert.Equal(t, "example.com", extractOriginHost("example.com"))
}

func TestMatchOriginPattern(t *testing.T) {
	assert.True(t, matchOriginPattern("example.com", "example.com"))
	assert.True(t, matchOriginPattern("Example.COM", "example.com"))
	assert.True(t, matchOriginPattern("*.example.com", "app.example.com"))
	assert.True(t, matchOriginPattern("localhost:*", "localhost:5173"))
	assert.False(t, matchOriginPattern("example.com", "evil.com"))
	assert.False(t, matchOriginPattern("*.example.com", "example.org"))
}
