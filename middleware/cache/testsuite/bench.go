package testsuite

import (
	"context"
	"fmt"
	"os"
	"testing"

	"golang.org/x/net/webdav"
)

type readdirBenchmark struct {
	Name    string
	Entries int
}

var readdirBenchmarks = []readdirBenchmark{
	{Name: "Readdir_10", Entries: 10},
	{Name: "Readdir_1000", Entries: 1000},
}

// RunBenchmarks measures repeated and concurrent listings of populated
// directories.
func RunBenchmarks(b *testing.B, fs webdav.FileSystem) {
	for _, bc := range readdirBenchmarks {
		b.Run(bc.Name, func(b *testing.B) {
			ctx := context.Background()
			dir := fmt.Sprintf("/bench_%d", bc.Entries)

			if err := mkdirAll(ctx, fs, dir); err != nil {
				b.Fatalf("%+v", err)
			}

			for i := 0; i < bc.Entries; i++ {
				if err := createFile(ctx, fs, fmt.Sprintf("%s/%d.txt", dir, i), ""); err != nil {
					b.Fatalf("%+v", err)
				}
			}

			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					f, err := fs.OpenFile(ctx, dir, os.O_RDONLY, 0)
					if err != nil {
						b.Fatalf("%+v", err)
					}

					infos, err := f.Readdir(-1)
					f.Close()

					if err != nil {
						b.Fatalf("%+v", err)
					}

					if len(infos) != bc.Entries {
						b.Fatalf("len(infos): expected '%d', got '%d'", bc.Entries, len(infos))
					}
				}
			})
		})
	}
}
