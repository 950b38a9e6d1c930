package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferShowAndDrain(t *testing.T) {
	b := NewBuffer()
	b.Show(Toast{Title: "første"})
	b.Show(Toast{Title: "anden", Variant: VariantDestructive})

	got := b.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "første", got[0].Title)
	assert.Equal(t, VariantDestructive, got[1].Variant)

	assert.Empty(t, b.Drain(), "drain clears the buffer")
}

func TestBufferConcurrentShow(t *testing.T) {
	b := NewBuffer()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Show(Toast{Title: "t"})
		}()
	}
	wg.Wait()
	assert.Len(t, b.Drain(), 50)
}

func TestTextForKnownPhases(t *testing.T) {
	for _, phase := range []string{"job-save", "user-fetch", "generation", "letter-save", "cv-parsing"} {
		msg := TextFor(phase)
		assert.NotEqual(t, fallbackMessage, msg, "phase %q should carry dedicated copy", phase)
		assert.NotEmpty(t, msg.Title)
		assert.NotEmpty(t, msg.Help)
		assert.NotEmpty(t, msg.RetryLabel)
	}
}

func TestTextForUnknownPhaseFallsBack(t *testing.T) {
	assert.Equal(t, fallbackMessage, TextFor("no-such-phase"))
	assert.Equal(t, fallbackMessage, TextFor(""))
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewBuffer(), NewBuffer()
	m := Multi{a, b}
	m.Show(Toast{Title: "hej"})
	assert.Len(t, a.Drain(), 1)
	assert.Len(t, b.Drain(), 1)
}
