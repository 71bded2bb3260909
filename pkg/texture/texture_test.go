package texture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/modelibr/assetdav/pkg/blob"
	"github.com/modelibr/assetdav/pkg/blob/memory"
	"github.com/modelibr/assetdav/pkg/catalog"
	cattest "github.com/modelibr/assetdav/pkg/catalog/testing"
	"github.com/modelibr/assetdav/pkg/texture/cache"
)

func decodeGray(t *testing.T, data []byte) []uint8 {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	var out []uint8
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
		}
	}
	return out
}

func TestExtractChannels(t *testing.T) {
	src := cattest.ORMImage()

	tests := []struct {
		channel catalog.SourceChannel
		want    []uint8
	}{
		{catalog.ChannelR, []uint8{10, 40, 70, 100}},
		{catalog.ChannelG, []uint8{20, 50, 80, 110}},
		{catalog.ChannelB, []uint8{30, 60, 90, 120}},
		{catalog.ChannelA, []uint8{255, 200, 150, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.channel.String(), func(t *testing.T) {
			out, mime, err := Extract(src, tt.channel)
			require.NoError(t, err)
			assert.Equal(t, "image/png", mime)
			assert.Equal(t, tt.want, decodeGray(t, out))
		})
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	src := cattest.ORMImage()

	a, _, err := Extract(src, catalog.ChannelG)
	require.NoError(t, err)
	b, _, err := Extract(src, catalog.ChannelG)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExtractRejectsNonSingleChannel(t *testing.T) {
	for _, ch := range []catalog.SourceChannel{catalog.ChannelRGB, catalog.ChannelSplitChannel, catalog.SourceChannel(9)} {
		_, _, err := Extract(cattest.ORMImage(), ch)
		assert.ErrorIs(t, err, ErrUnsupportedChannel, ch.String())
	}
}

func TestExtractRejectsNonImage(t *testing.T) {
	_, _, err := Extract([]byte("RIFF-boom"), catalog.ChannelR)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractKeepsSourceFormat(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 128
	}

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, img, nil))
	_, mime, err := Extract(jpg.Bytes(), catalog.ChannelR)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)

	var bm bytes.Buffer
	require.NoError(t, bmp.Encode(&bm, img))
	out, mime, err := Extract(bm.Bytes(), catalog.ChannelA)
	require.NoError(t, err)
	assert.Equal(t, "image/bmp", mime)
	assert.Equal(t, []uint8{128}, decodeGray(t, out)[:1])
}

func TestOutputMIME(t *testing.T) {
	assert.Equal(t, "image/png", OutputMIME("image/png"))
	assert.Equal(t, "image/png", OutputMIME("image/webp"))
	assert.Equal(t, "image/jpeg", OutputMIME("image/jpeg"))
	assert.Equal(t, "image/tiff", OutputMIME("image/tiff"))
}

type countingMetrics struct {
	hits, misses, derives int
}

func (m *countingMetrics) RecordCacheHit()  { m.hits++ }
func (m *countingMetrics) RecordCacheMiss() { m.misses++ }
func (m *countingMetrics) ObserveDerive(string, time.Duration, int64, error) {
	m.derives++
}

func TestDeriverUsesCache(t *testing.T) {
	blobs := memory.NewMemoryBlobStore()
	hash, err := blobs.Put(context.Background(), cattest.ORMImage())
	require.NoError(t, err)

	c, err := cache.NewMemoryCache(8)
	require.NoError(t, err)
	m := &countingMetrics{}
	d := NewDeriver(blobs, c, m)

	first, err := d.Derive(context.Background(), hash, catalog.ChannelR)
	require.NoError(t, err)
	second, err := d.Derive(context.Background(), hash, catalog.ChannelR)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.hits)
	assert.Equal(t, 1, m.misses)
	assert.Equal(t, 1, m.derives)

	_, ok := c.Get(CacheKey(hash, catalog.ChannelR))
	assert.True(t, ok)
}

func TestDeriverMissingBlob(t *testing.T) {
	d := NewDeriver(memory.NewMemoryBlobStore(), nil, nil)
	_, err := d.Derive(context.Background(), blob.Hash([]byte("gone")), catalog.ChannelR)
	assert.ErrorIs(t, err, blob.ErrBlobNotFound)
}

func TestCacheKeyNormalizesHash(t *testing.T) {
	assert.Equal(t, "abcd:R", CacheKey("ABCD", catalog.ChannelR))
	assert.Equal(t, "abcd:A", CacheKey(" abcd ", catalog.ChannelA))
}
