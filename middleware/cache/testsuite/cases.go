package testsuite

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/net/webdav"
)

func CreateFile(ctx context.Context, fs webdav.FileSystem) error {
	dir := "/CreateFile"

	if err := mkdirAll(ctx, fs, dir); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir); err != nil {
		return errors.WithStack(err)
	}

	if err := createFile(ctx, fs, dir+"/1.txt", "one"); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir, "1.txt"); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func CreateDirectory(ctx context.Context, fs webdav.FileSystem) error {
	dir := "/CreateDirectory"

	if err := mkdirAll(ctx, fs, dir); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, "/CreateDirectory/"); err != nil {
		return errors.WithStack(err)
	}

	if err := mkdirAll(ctx, fs, dir+"/sub"); err != nil {
		return errors.WithStack(err)
	}

	// Trailing slash and missing leading slash must hit the same entry
	if err := expectNames(ctx, fs, "CreateDirectory", "sub"); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func RemoveFile(ctx context.Context, fs webdav.FileSystem) error {
	dir := "/RemoveFile"

	if err := mkdirAll(ctx, fs, dir); err != nil {
		return errors.WithStack(err)
	}

	for _, n := range []string{"1.txt", "2.txt"} {
		if err := createFile(ctx, fs, dir+"/"+n, n); err != nil {
			return errors.WithStack(err)
		}
	}

	if err := expectNames(ctx, fs, dir, "1.txt", "2.txt"); err != nil {
		return errors.WithStack(err)
	}

	if err := fs.RemoveAll(ctx, dir+"/1.txt"); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir, "2.txt"); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func RemoveDirectoryWithChildren(ctx context.Context, fs webdav.FileSystem) error {
	dir := "/RemoveDirectoryWithChildren"

	if err := mkdirAll(ctx, fs, dir, dir+"/a", dir+"/a/b"); err != nil {
		return errors.WithStack(err)
	}

	if err := createFile(ctx, fs, dir+"/a/b/deep.txt", "deep"); err != nil {
		return errors.WithStack(err)
	}

	// Warm every level
	if err := expectNames(ctx, fs, dir, "a"); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir+"/a/b", "deep.txt"); err != nil {
		return errors.WithStack(err)
	}

	if err := fs.RemoveAll(ctx, dir+"/a"); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir); err != nil {
		return errors.WithStack(err)
	}

	// Recreate the subtree, the old deep listing must not resurface
	if err := mkdirAll(ctx, fs, dir+"/a", dir+"/a/b"); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir+"/a/b"); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func RenameFile(ctx context.Context, fs webdav.FileSystem) error {
	dir := "/RenameFile"

	if err := mkdirAll(ctx, fs, dir, dir+"/src", dir+"/dst"); err != nil {
		return errors.WithStack(err)
	}

	if err := createFile(ctx, fs, dir+"/src/file.txt", "content"); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir+"/src", "file.txt"); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir+"/dst"); err != nil {
		return errors.WithStack(err)
	}

	if err := fs.Rename(ctx, dir+"/src/file.txt", dir+"/dst/renamed.txt"); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir+"/src"); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir+"/dst", "renamed.txt"); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func RenameDirectoryWithChildren(ctx context.Context, fs webdav.FileSystem) error {
	dir := "/RenameDirectoryWithChildren"

	if err := mkdirAll(ctx, fs, dir, dir+"/old", dir+"/old/child"); err != nil {
		return errors.WithStack(err)
	}

	if err := createFile(ctx, fs, dir+"/old/child/file.txt", "content"); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir+"/old/child", "file.txt"); err != nil {
		return errors.WithStack(err)
	}

	if err := fs.Rename(ctx, dir+"/old", dir+"/new"); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir, "new"); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir+"/new/child", "file.txt"); err != nil {
		return errors.WithStack(err)
	}

	if _, err := fs.Stat(ctx, dir+"/old/child"); !errors.Is(err, os.ErrNotExist) {
		return errors.Errorf("stat('%s/old/child'): expected os.ErrNotExist, got '%v'", dir, err)
	}

	return nil
}

func ReplaceDirectory(ctx context.Context, fs webdav.FileSystem) error {
	dir := "/ReplaceDirectory"

	if err := mkdirAll(ctx, fs, dir, dir+"/current", dir+"/current/sub", dir+"/next", dir+"/next/sub"); err != nil {
		return errors.WithStack(err)
	}

	if err := createFile(ctx, fs, dir+"/next/sub/file.txt", "content"); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir+"/current/sub"); err != nil {
		return errors.WithStack(err)
	}

	if err := fs.RemoveAll(ctx, dir+"/current"); err != nil {
		return errors.WithStack(err)
	}

	if err := fs.Rename(ctx, dir+"/next", dir+"/current"); err != nil {
		return errors.WithStack(err)
	}

	if err := expectNames(ctx, fs, dir+"/current/sub", "file.txt"); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func RepeatedReads(ctx context.Context, fs webdav.FileSystem) error {
	dir := "/RepeatedReads"

	if err := mkdirAll(ctx, fs, dir); err != nil {
		return errors.WithStack(err)
	}

	for _, n := range []string{"a.txt", "b.txt", "c.txt"} {
		if err := createFile(ctx, fs, dir+"/"+n, n); err != nil {
			return errors.WithStack(err)
		}
	}

	for i := 0; i < 5; i++ {
		if err := expectNames(ctx, fs, dir, "a.txt", "b.txt", "c.txt"); err != nil {
			return errors.Wrapf(err, "read #%d", i)
		}
	}

	return nil
}
