package launcher

import (
	"errors"
	"io"
	"os"
	"syscall"
)

// outputReader drains the transport's read end on its own goroutine. It owns
// the descriptor exclusively from start until it closes it; nothing else in
// the package reads from or closes src.
type outputReader struct {
	src  *os.File
	sink Sink
	tee  *os.File

	done chan struct{}
	err  error // set before done closes; nil for a clean EOF
}

func newOutputReader(src *os.File, sink Sink, tee *os.File) *outputReader {
	return &outputReader{src: src, sink: sink, tee: tee, done: make(chan struct{})}
}

// run pulls fixed-size chunks until EOF or a read error, handing each chunk
// first to the tee and then to the sink. The loop ends quietly on any error;
// anything other than EOF (or the EIO a pty master reports once its slave
// closes) is kept for Result.ReaderErr.
func (r *outputReader) run(id string) {
	defer close(r.done)
	defer r.src.Close()

	buf := make([]byte, readChunkSize)
	for {
		n, err := r.src.Read(buf)
		if n > 0 {
			if r.tee != nil {
				r.tee.Write(buf[:n])
			}
			if r.sink != nil {
				// string() preserves the bytes as-is, so a multi-byte
				// sequence split across chunks reassembles losslessly on
				// the caller's side and invalid sequences pass through.
				r.sink(string(buf[:n]))
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || isClosedPty(err) {
				logger.Debug().Str("id", id).Msg("output stream closed")
			} else {
				r.err = err
				logger.Debug().Str("id", id).Err(err).Msg("output read error")
			}
			return
		}
	}
}

// isClosedPty matches the EIO a pty master returns once the slave side has
// no writers left; for that transport it is the normal end of stream.
func isClosedPty(err error) bool {
	return errors.Is(err, syscall.EIO)
}
