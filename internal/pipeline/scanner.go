package pipeline

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Source is an image file found under the input directory.
type Source struct {
	AbsPath string
	RelPath string // slash-separated, relative to the input directory
	Key     string // RelPath without extension
	Format  string // normalized: jpg → jpeg, tif → tiff
	Size    int64
}

// formats maps recognized extensions to the decoder format name.
var formats = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".gif":  "gif",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
	".webp": "webp",
}

// ScanImages walks inputDir for decodable images, skipping hidden
// directories and files. Sources are returned sorted by key.
func ScanImages(inputDir string) ([]Source, error) {
	var sources []Source

	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		hidden := strings.HasPrefix(d.Name(), ".") && path != inputDir
		if d.IsDir() {
			if hidden {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		format, ok := formats[ext]
		if hidden || !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		sources = append(sources, Source{
			AbsPath: path,
			RelPath: rel,
			Key:     rel[:len(rel)-len(ext)],
			Format:  format,
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Key != sources[j].Key {
			return sources[i].Key < sources[j].Key
		}
		return sources[i].RelPath < sources[j].RelPath
	})
	return sources, nil
}

// uniqueKeys keeps the first source for each key and returns the rest as
// duplicates. Images differing only in extension (a.png, a.jpg) share a
// key, and a key names one rendering in the manifest. sources must be
// sorted as ScanImages returns them.
func uniqueKeys(sources []Source) (kept, dups []Source) {
	kept = sources[:0:0]
	for i, s := range sources {
		if i > 0 && s.Key == sources[i-1].Key {
			dups = append(dups, s)
			continue
		}
		kept = append(kept, s)
	}
	return kept, dups
}
