// Package session ties an upload set to its workspace and its persisted
// chat history.
package session

import (
	"sort"
	"strconv"
	"strings"

	"ai-thumbnail-pro/internal/thumb"
)

const keyPrefix = "chatHistory-"

// Key derives the stable session key for an upload set. It depends only on
// file names and sizes, so re-uploading the same files reattaches to the
// same conversation.
func Key(files []thumb.SourceImage) string {
	sorted := make([]thumb.SourceImage, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].FileName != sorted[j].FileName {
			return sorted[i].FileName < sorted[j].FileName
		}
		return sorted[i].Size < sorted[j].Size
	})

	parts := make([]string, 0, len(sorted))
	for _, f := range sorted {
		parts = append(parts, f.FileName+"-"+strconv.FormatInt(f.Size, 10))
	}
	return keyPrefix + strings.Join(parts, "-")
}

func ValidKey(key string) bool {
	return strings.HasPrefix(key, keyPrefix) && len(key) > len(keyPrefix)
}
