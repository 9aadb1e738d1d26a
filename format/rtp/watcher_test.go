package rtp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/lifecycle"
)

func TestWatcherPublishesChanges(t *testing.T) {
	t.Parallel()

	baseline := []byte{
		0x67, 0x42, 0xc0, 0x28, 0xd9, 0x00, 0x78, 0x02,
		0x27, 0xe5, 0x84, 0x00, 0x00, 0x03, 0x00, 0x04,
		0x00, 0x00, 0x03, 0x00, 0xf0, 0x3c, 0x60, 0xc9, 0x20,
	}

	var stream bytes.Buffer
	stream.Write(interleave(t, 0, packet(1, join([]byte{0x18}, aggregate(sps264, pps264))...)))
	stream.Write(interleave(t, 0, packet(2, 0x65, 0x88)))
	stream.Write(interleave(t, 0, packet(3, join([]byte{0x18}, aggregate(sps264, pps264))...)))
	stream.Write(interleave(t, 0, packet(4, 0x7c)))
	stream.Write(interleave(t, 0, packet(5, baseline...)))

	w := NewWatcher(NewInterleavedReader(&stream, 0), NewH264Collector(0))
	require.NoError(t, w.Start())
	defer w.Close()

	var tags []string
	for par := range w.Updates() {
		tags = append(tags, par.Tag())
	}
	require.Equal(t, []string{"avc1.640028", "avc1.42C028"}, tags)

	<-w.Done()
	require.NoError(t, w.Err())
}

func TestWatcherReportsReadError(t *testing.T) {
	t.Parallel()

	w := NewWatcher(NewInterleavedReader(bytes.NewReader([]byte{'#', 0, 0, 12}), 0), NewH264Collector(0))
	require.NoError(t, w.Start())

	for range w.Updates() {
		t.Fatal("unexpected update")
	}
	<-w.Done()
	require.ErrorIs(t, w.Err(), utils.ErrMalformedInput)
}

func TestWatcherCloseBeforeStart(t *testing.T) {
	t.Parallel()

	w := NewWatcher(NewInterleavedReader(&bytes.Buffer{}, 0), NewH265Collector(0, false))
	w.Close()

	_, ok := <-w.Updates()
	require.False(t, ok)
	require.ErrorIs(t, w.Start(), lifecycle.ErrStartedAfterClose)
}
