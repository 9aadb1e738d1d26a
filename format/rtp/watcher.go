package rtp

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ugparu/paramset"
	"github.com/ugparu/paramset/utils/lifecycle"
	"github.com/ugparu/paramset/utils/logger"
)

// Watcher feeds packets to a Collector on its own goroutine and publishes the codec parameters
// each time the decoder configuration record changes. The Updates channel is closed when the
// reader reaches EOF, fails, or the watcher is closed.
type Watcher struct {
	rdr     PacketReader
	c       Collector
	updates chan paramset.VideoCodecParameters
	last    []byte
	runner  *lifecycle.Runner[*Watcher]
}

func NewWatcher(rdr PacketReader, c Collector) *Watcher {
	w := &Watcher{
		rdr:     rdr,
		c:       c,
		updates: make(chan paramset.VideoCodecParameters, 1),
	}
	w.runner = lifecycle.NewRunner(w)
	return w
}

func (w *Watcher) String() string {
	return fmt.Sprintf("RTP_WATCHER %v", w.c)
}

func (w *Watcher) Start() error {
	return w.runner.Start(nil)
}

// Close stops the watcher. It returns once the pending ReadPacket, if any, has returned.
func (w *Watcher) Close() {
	w.runner.Close()
}

func (w *Watcher) Updates() <-chan paramset.VideoCodecParameters {
	return w.updates
}

func (w *Watcher) Done() <-chan struct{} {
	return w.runner.Done()
}

// Err reports the read error that ended the watcher. EOF and Close leave it nil.
func (w *Watcher) Err() error {
	return w.runner.Err()
}

func (w *Watcher) Step(stop <-chan struct{}) error {
	select {
	case <-stop:
		return lifecycle.ErrStop
	default:
	}

	pkt, err := w.rdr.ReadPacket()
	if errors.Is(err, io.EOF) {
		return lifecycle.ErrStop
	}
	if err != nil {
		return err
	}
	if err = w.c.Push(pkt); err != nil {
		logger.Debugf(w, "seq=%d: %v", pkt.SequenceNumber, err)
		return nil
	}

	par, err := w.c.CodecParameters()
	if err != nil {
		return nil
	}
	record := par.DecoderConfRecord()
	if bytes.Equal(record, w.last) {
		return nil
	}
	w.last = record
	logger.Infof(w, "parameters changed to %s %dx%d", par.Tag(), par.Width(), par.Height())

	select {
	case w.updates <- par:
		return nil
	case <-stop:
		return lifecycle.ErrStop
	}
}

func (w *Watcher) Release() {
	close(w.updates)
}
