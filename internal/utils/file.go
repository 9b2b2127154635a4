package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsImageFile checks if a file has an image extension
func IsImageFile(filename string) bool {
	ext := GetFileExtension(filename)
	imageExts := []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp"}

	for _, imgExt := range imageExts {
		if ext == imgExt {
			return true
		}
	}
	return false
}

// CollectImagePaths expands the given arguments into a sorted, ordered
// list of image files. Directory arguments contribute their image files
// in lexical order; file arguments are kept in the order given.
// Non-image files inside directories are skipped silently; a non-image
// file argument is skipped with a warning. A nil logger falls back to
// the package default.
func CollectImagePaths(args []string, logger *log.Logger) ([]string, error) {
	if logger == nil {
		logger = log.Default()
	}
	var paths []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			entries, err := os.ReadDir(arg)
			if err != nil {
				return nil, fmt.Errorf("cannot read directory %s: %w", arg, err)
			}
			var found []string
			for _, entry := range entries {
				if entry.IsDir() || !IsImageFile(entry.Name()) {
					continue
				}
				found = append(found, filepath.Join(arg, entry.Name()))
			}
			sort.Strings(found)
			paths = append(paths, found...)
			continue
		}

		if !IsImageFile(arg) {
			logger.Warn("skipping non-image file", "path", arg)
			continue
		}
		paths = append(paths, arg)
	}

	return paths, nil
}

// NextAvailablePath returns path itself when nothing exists there, or
// the first name_N.ext variant that is free.
func NextAvailablePath(path string) string {
	if !FileExists(path) && !DirExists(path) {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if !FileExists(candidate) && !DirExists(candidate) {
			return candidate
		}
	}
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && info.IsDir()
}

// SanitizeFilename removes or replaces invalid characters in filenames
func SanitizeFilename(filename string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename

	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	result = strings.Trim(result, " .")

	return result
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
