// Package testsuite checks that a listing-caching [webdav.FileSystem] never
// serves a stale directory listing after a mutation.
package testsuite

import (
	"context"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/webdav"
)

type coherenceTestCase struct {
	Name string
	Run  func(ctx context.Context, fs webdav.FileSystem) error
}

var coherenceTestCases = []coherenceTestCase{
	{
		Name: "CreateFile",
		Run:  CreateFile,
	},
	{
		Name: "CreateDirectory",
		Run:  CreateDirectory,
	},
	{
		Name: "RemoveFile",
		Run:  RemoveFile,
	},
	{
		Name: "RemoveDirectoryWithChildren",
		Run:  RemoveDirectoryWithChildren,
	},
	{
		Name: "RenameFile",
		Run:  RenameFile,
	},
	{
		Name: "RenameDirectoryWithChildren",
		Run:  RenameDirectoryWithChildren,
	},
	{
		Name: "ReplaceDirectory",
		Run:  ReplaceDirectory,
	},
	{
		Name: "RepeatedReads",
		Run:  RepeatedReads,
	},
}

// TestFileSystem runs every coherence case against fs, each one in its own
// top level directory.
func TestFileSystem(t *testing.T, fs webdav.FileSystem) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, tc := range coherenceTestCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			if err := tc.Run(ctx, fs); err != nil {
				t.Errorf("%+v", errors.WithStack(err))
			}
		})
	}
}

func readDirNames(ctx context.Context, fs webdav.FileSystem, dir string) ([]string, error) {
	f, err := fs.OpenFile(ctx, dir, os.O_RDONLY, 0)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	defer f.Close()

	infos, err := f.Readdir(-1)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}

	slices.Sort(names)

	return names, nil
}

func expectNames(ctx context.Context, fs webdav.FileSystem, dir string, expected ...string) error {
	names, err := readDirNames(ctx, fs, dir)
	if err != nil {
		return errors.WithStack(err)
	}

	slices.Sort(expected)

	if !slices.Equal(expected, names) {
		return errors.Errorf("readdir('%s'): expected %v, got %v", dir, expected, names)
	}

	return nil
}

func createFile(ctx context.Context, fs webdav.FileSystem, name string, data string) error {
	f, err := fs.OpenFile(ctx, name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.WithStack(err)
	}

	if _, err := f.Write([]byte(data)); err != nil {
		f.Close()
		return errors.WithStack(err)
	}

	if err := f.Close(); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func mkdirAll(ctx context.Context, fs webdav.FileSystem, dirs ...string) error {
	for _, d := range dirs {
		if err := fs.Mkdir(ctx, d, os.ModePerm); err != nil && !errors.Is(err, os.ErrExist) {
			return errors.WithStack(err)
		}
	}

	return nil
}
