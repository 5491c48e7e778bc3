package cache

import (
	"context"
	"io/fs"
	"os"

	"golang.org/x/net/webdav"
)

type fileWrapper struct {
	file    webdav.File
	ctx     context.Context
	fs      *FileSystem
	name    string
	isWrite bool
}

// Read implements [webdav.File].
func (w *fileWrapper) Read(p []byte) (n int, err error) {
	return w.file.Read(p)
}

// Seek implements [webdav.File].
func (w *fileWrapper) Seek(offset int64, whence int) (int64, error) {
	return w.file.Seek(offset, whence)
}

// Stat implements [webdav.File].
func (w *fileWrapper) Stat() (fs.FileInfo, error) {
	return w.file.Stat()
}

// Write implements [webdav.File].
func (w *fileWrapper) Write(p []byte) (n int, err error) {
	return w.file.Write(p)
}

// Readdir implements [webdav.File]. Only complete listings (count <= 0) go
// through the cache.
func (w *fileWrapper) Readdir(count int) ([]os.FileInfo, error) {
	if count > 0 {
		return w.file.Readdir(count)
	}

	return w.fs.readdir(w.ctx, w.name, func() ([]os.FileInfo, error) {
		return w.file.Readdir(count)
	})
}

func (w *fileWrapper) Close() error {
	if !w.isWrite {
		return w.file.Close()
	}

	return w.fs.mutate(w.ctx, w.file.Close, w.name)
}

var _ webdav.File = &fileWrapper{}
