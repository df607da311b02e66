package storage

import (
	"os"
	"path/filepath"
	"strings"
)

// Search walks basePath for caption files whose name contains query.
func Search(basePath, query string, maxResults int) ([]*FileEntry, error) {
	query = strings.ToLower(query)
	results := []*FileEntry{}

	err := filepath.Walk(basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip errors
		}
		if len(results) >= maxResults {
			return filepath.SkipAll
		}
		if strings.HasPrefix(info.Name(), ".") && path != basePath {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		videoID, lang, ok := ParseCaptionName(info.Name())
		if !ok || !strings.Contains(strings.ToLower(info.Name()), query) {
			return nil
		}
		rel, _ := filepath.Rel(basePath, path)
		results = append(results, &FileEntry{
			Name:     info.Name(),
			Path:     rel,
			VideoID:  videoID,
			Language: lang,
			Size:     info.Size(),
		})
		return nil
	})
	return results, err
}
