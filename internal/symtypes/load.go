package symtypes

import (
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Load loads symtypes data from path, which may be a single .symtypes
// file or a directory. Directories are walked recursively for every
// regular file with a ".symtypes" extension; symlinks are skipped.
// numWorkers fixed-size goroutines process the discovered files.
func (c *Corpus) Load(path string, numWorkers int) error {
	return c.LoadMultiple([]string{path}, numWorkers)
}

// LoadMultiple is Load over several paths, each independently a file or
// a directory tree.
func (c *Corpus) LoadMultiple(paths []string, numWorkers int) error {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return newIOError("Failed to query path '"+path+"'", err)
		}
		if info.IsDir() {
			collected, err := collectSymFiles(path)
			if err != nil {
				return err
			}
			files = append(files, collected...)
		} else {
			files = append(files, path)
		}
	}
	return c.loadFiles(files, numWorkers)
}

// collectSymFiles recursively gathers every ".symtypes" regular file
// under dir, skipping symlinks.
func collectSymFiles(dir string) ([]string, error) {
	var files []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, newIOError("Failed to read directory '"+dir+"'", err)
	}

	for _, entry := range entries {
		entryPath := filepath.Join(dir, entry.Name())

		info, err := os.Lstat(entryPath)
		if err != nil {
			return nil, newIOError("Failed to query path '"+entryPath+"'", err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			continue
		}
		if info.IsDir() {
			sub, err := collectSymFiles(entryPath)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
			continue
		}
		if filepath.Ext(entryPath) == ".symtypes" {
			files = append(files, entryPath)
		}
	}
	return files, nil
}

// loadFiles distributes files across a fixed-size worker pool. Each
// worker repeatedly claims the next file index from a shared atomic
// counter until the work list is exhausted. A plain errgroup.Group (no
// context) gives the first worker error priority at Wait while leaving
// every other in-flight worker to finish its current file uncancelled.
func (c *Corpus) loadFiles(files []string, numWorkers int) error {
	if numWorkers < 1 {
		numWorkers = 1
	}

	var nextIdx atomic.Int64
	var g errgroup.Group

	for w := 0; w < numWorkers; w++ {
		g.Go(func() error {
			for {
				i := nextIdx.Add(1) - 1
				if i >= int64(len(files)) {
					return nil
				}
				path := files[i]

				f, err := os.Open(path)
				if err != nil {
					return newIOError("Failed to open file '"+path+"'", err)
				}
				err = c.loadOne(path, f)
				f.Close()
				if err != nil {
					return err
				}
			}
		})
	}

	return g.Wait()
}
