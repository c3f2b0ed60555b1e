package disk

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchbot/pkg/logger"
)

func TestBlobStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir(), "https://example.org/storage/", logger.NewNop())
	require.NoError(t, err)

	n, err := s.Put(ctx, "waybills/waybill_42_1700000000.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.True(t, s.Exists(ctx, "waybills/waybill_42_1700000000.pdf"))

	rc, size, err := s.Open(ctx, "waybills/waybill_42_1700000000.pdf")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, int64(8), size)
	assert.Equal(t, "%PDF-1.4", string(data))

	assert.Equal(t, "https://example.org/storage/waybills/waybill_42_1700000000.pdf", s.URL("waybills/waybill_42_1700000000.pdf"))

	require.NoError(t, s.Delete(ctx, "waybills/waybill_42_1700000000.pdf"))
	assert.False(t, s.Exists(ctx, "waybills/waybill_42_1700000000.pdf"))

	err = s.Delete(ctx, "waybills/waybill_42_1700000000.pdf")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestBlobStoreStaysInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := New(root, "", logger.NewNop())
	require.NoError(t, err)

	_, err = s.Put(ctx, "../../escape.txt", strings.NewReader("x"))
	require.NoError(t, err)

	_, err = os.Stat(root + "/escape.txt")
	assert.NoError(t, err)
}
