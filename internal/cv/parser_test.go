package cv

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupported(t *testing.T) {
	assert.True(t, Supported("cv.pdf"))
	assert.True(t, Supported("CV.PDF"))
	assert.True(t, Supported("cv.docx"))
	assert.True(t, Supported("noter.txt"))
	assert.False(t, Supported("billede.png"))
	assert.False(t, Supported("cv"))
	assert.False(t, Supported(""))
}

func TestExtractTextPlainText(t *testing.T) {
	p := NewParser(t.TempDir(), nil)

	text, err := p.ExtractText("cv.txt", strings.NewReader("  Mette Hansen\nSoftwareudvikler\n  "))
	require.NoError(t, err)
	assert.Equal(t, "Mette Hansen\nSoftwareudvikler", text)
}

func TestExtractTextCleansUpStagingFile(t *testing.T) {
	dir := t.TempDir()
	p := NewParser(dir, nil)

	_, err := p.ExtractText("cv.txt", strings.NewReader("indhold"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// Two users uploading a file with the same client-side name must never read
// each other's content.
func TestExtractTextSameFilenameDoesNotCollide(t *testing.T) {
	p := NewParser(t.TempDir(), nil)

	contents := []string{
		strings.Repeat("Mette Hansen, softwareudvikler. ", 50),
		strings.Repeat("Jonas Skov, projektleder. ", 50),
	}
	results := make([]string, len(contents))

	var wg sync.WaitGroup
	for i, content := range contents {
		wg.Add(1)
		go func(i int, content string) {
			defer wg.Done()
			text, err := p.ExtractText("cv.txt", strings.NewReader(content))
			assert.NoError(t, err)
			results[i] = text
		}(i, content)
	}
	wg.Wait()

	assert.Equal(t, strings.TrimSpace(contents[0]), results[0])
	assert.Equal(t, strings.TrimSpace(contents[1]), results[1])
}

func TestExtractTextRejectsUnsupported(t *testing.T) {
	p := NewParser(t.TempDir(), nil)
	_, err := p.ExtractText("cv.png", strings.NewReader("x"))
	assert.Error(t, err)
}
