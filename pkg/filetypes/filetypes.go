// Package filetypes holds the MIME allow-lists and content sniffing shared by
// uploads and upload settings.
package filetypes

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen matches the number of bytes mimetype inspects.
const sniffLen = 3072

type group string

const (
	groupImages    group = "images"
	groupVideos    group = "videos"
	groupAudio     group = "audio"
	groupDocuments group = "documents"
	groupArchives  group = "archives"
)

var groupTypes = map[group][]string{
	groupImages:    {"image/jpeg", "image/png", "image/gif", "image/webp", "image/svg+xml", "image/avif"},
	groupVideos:    {"video/mp4", "video/webm", "video/quicktime"},
	groupAudio:     {"audio/mpeg", "audio/wav", "audio/ogg"},
	groupDocuments: {"application/pdf", "text/plain", "text/csv", "application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/vnd.ms-excel", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	groupArchives:  {"application/zip"},
}

// AvatarTypes are the image types accepted for profile avatars.
var AvatarTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var allowed = buildAllowed()

func buildAllowed() map[string]struct{} {
	out := map[string]struct{}{}
	for _, types := range groupTypes {
		for _, t := range types {
			out[t] = struct{}{}
		}
	}
	return out
}

// Allowed returns the fixed allow-list an upload setting may contain, sorted.
func Allowed() []string {
	list := make([]string, 0, len(allowed))
	for t := range allowed {
		list = append(list, t)
	}
	sort.Strings(list)
	return list
}

// IsAllowed reports whether t is on the fixed allow-list.
func IsAllowed(t string) bool {
	_, ok := allowed[Normalize(t)]
	return ok
}

// Normalize lowercases a media type and strips its parameters.
func Normalize(value string) string {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return strings.ToLower(clean)
	}
	return strings.ToLower(mediaType)
}

// Sniff detects the content type of r from its leading bytes. The returned
// reader replays the full content.
func Sniff(r io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	return mimetype.Detect(head), io.MultiReader(bytes.NewReader(head), r), nil
}

// Match returns the first of accepted that detected or one of its parents
// satisfies, walking from the most specific type up.
func Match(detected *mimetype.MIME, accepted []string) (string, bool) {
	for m := detected; m != nil; m = m.Parent() {
		t := Normalize(m.String())
		for _, a := range accepted {
			if Normalize(a) == t {
				return t, true
			}
		}
	}
	return "", false
}

// Describe renders a list of types for error messages.
func Describe(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}
