package storage

import (
	"os"
	"path/filepath"
	"strings"
)

type FileEntry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	VideoID  string `json:"video_id"`
	Language string `json:"language,omitempty"`
	Size     int64  `json:"size"`
}

// captionExtensions are the formats caption.ParseVTT understands.
var captionExtensions = map[string]bool{
	".srt": true, ".vtt": true,
}

func IsSubtitleFile(name string) bool {
	return captionExtensions[strings.ToLower(filepath.Ext(name))]
}

// ParseCaptionName splits "<video>.<lang>.<ext>" into its video id and
// language. "<video>.<ext>" yields an empty language. ok is false for
// non-caption files.
func ParseCaptionName(name string) (videoID, lang string, ok bool) {
	base := filepath.Base(name)
	if !IsSubtitleFile(base) || strings.HasPrefix(base, ".") {
		return "", "", false
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.LastIndex(stem, "."); i > 0 {
		return stem[:i], strings.ToLower(stem[i+1:]), true
	}
	return stem, "", stem != ""
}

// ResolvePath joins relativePath onto basePath and rejects results outside
// basePath.
func ResolvePath(basePath, relativePath string) (string, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return "", err
	}
	absFull, err := filepath.Abs(filepath.Join(absBase, relativePath))
	if err != nil {
		return "", err
	}
	if absFull != absBase && !strings.HasPrefix(absFull, absBase+string(filepath.Separator)) {
		return "", os.ErrPermission
	}
	return absFull, nil
}

// ListSubtitles returns the caption files next to a video, e.g. for
// "show/ep1.mkv" the files "show/ep1.en.vtt" and "show/ep1.es.srt".
func ListSubtitles(basePath, videoPath string) ([]*FileEntry, error) {
	fullPath, err := ResolvePath(basePath, videoPath)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(fullPath)
	videoBase := strings.TrimSuffix(filepath.Base(fullPath), filepath.Ext(fullPath))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	relDir := filepath.Dir(filepath.Clean(videoPath))
	result := []*FileEntry{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		videoID, lang, ok := ParseCaptionName(entry.Name())
		if !ok || videoID != videoBase {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		result = append(result, &FileEntry{
			Name:     entry.Name(),
			Path:     filepath.Join(relDir, entry.Name()),
			VideoID:  videoID,
			Language: lang,
			Size:     info.Size(),
		})
	}
	return result, nil
}
