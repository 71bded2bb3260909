package selection

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	assert.Equal(t, "boomSelection.wav", Selection{FileName: "boom.wav"}.Name())
	assert.Equal(t, "take.1Selection.wav", Selection{FileName: "take.1.mp3"}.Name())
	assert.Equal(t, "rawSelection.wav", Selection{FileName: "raw"}.Name())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Selection{FileID: 1, Start: 0, End: 1.5}.Validate())
	assert.Error(t, Selection{FileID: 0, End: 1}.Validate())
	assert.Error(t, Selection{FileID: 1, Start: -1, End: 1}.Validate())
	assert.Error(t, Selection{FileID: 1, Start: 2, End: 1}.Validate())
}

func TestSlotLastWriterWins(t *testing.T) {
	s := NewSlot()
	_, ok := s.Get()
	assert.False(t, ok)

	s.Set(Selection{FileID: 1, FileName: "a.wav"})
	s.Set(Selection{FileID: 2, FileName: "b.wav"})

	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, int64(2), got.FileID)

	s.Clear()
	_, ok = s.Get()
	assert.False(t, ok)
}

func TestSlotConcurrentAccess(t *testing.T) {
	var s Slot
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Set(Selection{FileID: int64(i + 1)})
		}()
		go func() {
			defer wg.Done()
			s.Get()
		}()
	}
	wg.Wait()

	got, ok := s.Get()
	require.True(t, ok)
	assert.Positive(t, got.FileID)
}

func TestPassthroughTrimmer(t *testing.T) {
	src := strings.NewReader("RIFF-full")
	out, size, err := PassthroughTrimmer{}.Trim(context.Background(), src, 9, Selection{Start: 1, End: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(9), size)
	assert.Same(t, src, out)
}
