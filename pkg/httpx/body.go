package httpx

import (
	"io"
)

// ChunkReader is a finite, single-pass sequence of body chunks. Next
// returns io.EOF after the final chunk; a chunk may accompany a non-nil
// error. Close releases the underlying producer and must be called on every
// exit path, including mid-stream failures. ChunkReaders never restart.
type ChunkReader interface {
	Next() ([]byte, error)
	Close() error
}

// BytesBody returns a ChunkReader producing the given payload as a single
// chunk.
func BytesBody(b []byte) ChunkReader {
	return &chunkSlice{chunks: [][]byte{b}}
}

// ChunksBody returns a ChunkReader producing the given chunks in order,
// preserving boundaries.
func ChunksBody(chunks ...[]byte) ChunkReader {
	return &chunkSlice{chunks: chunks}
}

type chunkSlice struct {
	chunks [][]byte
	i      int
}

func (c *chunkSlice) Next() ([]byte, error) {
	if c.i >= len(c.chunks) {
		return nil, io.EOF
	}
	b := c.chunks[c.i]
	c.i++
	return b, nil
}

func (c *chunkSlice) Close() error {
	c.i = len(c.chunks)
	return nil
}

// ReaderBody wraps an io.ReadCloser as a ChunkReader, pulling up to 32KiB
// per chunk.
func ReaderBody(rc io.ReadCloser) ChunkReader {
	return &readerChunks{rc: rc, buf: make([]byte, 32*1024)}
}

type readerChunks struct {
	rc  io.ReadCloser
	buf []byte
}

func (r *readerChunks) Next() ([]byte, error) {
	n, err := r.rc.Read(r.buf)
	if n > 0 {
		// hand out a copy; the internal buffer is reused on the next pull
		out := make([]byte, n)
		copy(out, r.buf[:n])
		if err == io.EOF {
			return out, nil
		}
		return out, err
	}
	return nil, err
}

func (r *readerChunks) Close() error { return r.rc.Close() }

// FuncBody adapts a pull function into a ChunkReader. The function is
// called until it returns io.EOF; close is optional.
func FuncBody(next func() ([]byte, error), close func() error) ChunkReader {
	return &funcChunks{next: next, close: close}
}

type funcChunks struct {
	next  func() ([]byte, error)
	close func() error
	done  bool
}

func (f *funcChunks) Next() ([]byte, error) {
	if f.done {
		return nil, io.EOF
	}
	b, err := f.next()
	if err != nil {
		f.done = true
	}
	return b, err
}

func (f *funcChunks) Close() error {
	f.done = true
	if f.close != nil {
		return f.close()
	}
	return nil
}
