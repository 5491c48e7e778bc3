// Package dircache caches directory listings keyed by path.
//
// A [Cache] behaves like a map from a directory path to its [Listing] with two
// optional policies layered on top: time based expiry and, for the memory
// backend, a maximum number of cached paths. Backends are selected once, at
// construction time, with [New]:
//
//	import _ "github.com/bornholm/go-dircache/all"
//
//	cache, err := dircache.New(dircache.ModeMemory, time.Minute, map[string]any{
//		"maxPaths": 1000,
//	})
//
// Backend packages register themselves on import, see the all package.
package dircache

import (
	"context"
	"io/fs"
	"path"
	"time"
)

// Entry is a single item of a directory listing.
type Entry struct {
	Name    string            `json:"name" msgpack:"name" cbor:"name"`
	Size    int64             `json:"size" msgpack:"size" cbor:"size"`
	Mode    fs.FileMode       `json:"mode" msgpack:"mode" cbor:"mode"`
	ModTime time.Time         `json:"modTime" msgpack:"modTime" cbor:"modTime"`
	IsDir   bool              `json:"isDir" msgpack:"isDir" cbor:"isDir"`
	Extra   map[string]string `json:"extra,omitempty" msgpack:"extra,omitempty" cbor:"extra,omitempty"`
}

// Info returns the entry as a [fs.FileInfo].
func (e Entry) Info() fs.FileInfo {
	return &entryInfo{entry: e}
}

// NewEntry captures the given file info as a listing entry.
func NewEntry(info fs.FileInfo) Entry {
	return Entry{
		Name:    info.Name(),
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
}

// Listing is the cached content of a directory.
type Listing []Entry

// Infos returns the listing as a slice of [fs.FileInfo].
func (l Listing) Infos() []fs.FileInfo {
	infos := make([]fs.FileInfo, 0, len(l))
	for _, e := range l {
		infos = append(infos, e.Info())
	}
	return infos
}

// NewListing captures the given file infos as a listing.
func NewListing(infos []fs.FileInfo) Listing {
	listing := make(Listing, 0, len(infos))
	for _, info := range infos {
		listing = append(listing, NewEntry(info))
	}
	return listing
}

// Cache is the contract shared by every backend.
//
// Get and Delete return an error matching [ErrNotFound] when the path is not
// cached. Contains may have side effects on backends with expiry or recency
// tracking: it behaves exactly like a Get whose value is discarded.
type Cache interface {
	Get(ctx context.Context, path string) (Listing, error)
	Set(ctx context.Context, path string, listing Listing) error
	Delete(ctx context.Context, path string) error
	Contains(ctx context.Context, path string) (bool, error)
	Clear(ctx context.Context) error
	// Keys returns the cached paths still considered live, in no particular order.
	Keys(ctx context.Context) ([]string, error)
	// Len returns the number of stored entries, including the expired ones
	// not yet reclaimed.
	Len(ctx context.Context) (int, error)
	// Config returns the configuration the cache was created with.
	Config() Config
}

// Config is everything needed to create an empty cache equivalent to an
// existing one, see [FromConfig].
type Config struct {
	Mode    Mode
	Expiry  time.Duration
	Options any
}

type entryInfo struct {
	entry Entry
}

func (i *entryInfo) Name() string       { return path.Base(i.entry.Name) }
func (i *entryInfo) Size() int64        { return i.entry.Size }
func (i *entryInfo) Mode() fs.FileMode  { return i.entry.Mode }
func (i *entryInfo) ModTime() time.Time { return i.entry.ModTime }
func (i *entryInfo) IsDir() bool        { return i.entry.IsDir }
func (i *entryInfo) Sys() any           { return i.entry.Extra }

var _ fs.FileInfo = &entryInfo{}
