package attachments

import (
	"bytes"
	"io"
	"os"
)

// Blob is a file selected by the user that has not been uploaded yet.
type Blob interface {
	Name() string
	Size() int64
	ContentType() string
	Open() (io.ReadCloser, error)
}

// Releaser is implemented by blobs that hold a local resource (e.g. a spool file)
// which must be freed once the blob is no longer referenced.
type Releaser interface {
	Release() error
}

// FileBlob is a blob spooled to local disk by the upload handler.
type FileBlob struct {
	Path     string
	FileName string
	Bytes    int64
	MIME     string
}

func (b *FileBlob) Name() string        { return b.FileName }
func (b *FileBlob) Size() int64         { return b.Bytes }
func (b *FileBlob) ContentType() string { return b.MIME }

func (b *FileBlob) Open() (io.ReadCloser, error) {
	return os.Open(b.Path)
}

// Release removes the spool file. Releasing twice is not an error.
func (b *FileBlob) Release() error {
	if err := os.Remove(b.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryBlob keeps the content in memory.
type MemoryBlob struct {
	FileName string
	MIME     string
	Data     []byte
}

func NewMemoryBlob(name, contentType string, data []byte) *MemoryBlob {
	return &MemoryBlob{FileName: name, MIME: contentType, Data: data}
}

func (b *MemoryBlob) Name() string        { return b.FileName }
func (b *MemoryBlob) Size() int64         { return int64(len(b.Data)) }
func (b *MemoryBlob) ContentType() string { return b.MIME }

func (b *MemoryBlob) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}
