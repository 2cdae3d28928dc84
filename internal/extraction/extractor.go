package extraction

import (
	"encoding/base64"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// keyAction tells the traversal what to do with a string value based on
// the key it was found under.
type keyAction int

const (
	// actionIgnore is the zero value, so any key absent from the
	// dispatch table is skipped. Provider payloads carry plenty of
	// non-image strings (prompts, messages, rephraser output).
	actionIgnore keyAction = iota
	// actionURL: the string is a ready-to-use image reference.
	actionURL
	// actionInline: the string is a candidate inline-encoded image,
	// decoded and stored in a second pass.
	actionInline
	// actionMaybeURL: generic result field, used only when it looks
	// like an absolute HTTP(S) location.
	actionMaybeURL
)

// keyActions is the dispatch table for keyed string values. Keys are
// compared lowercased. The provider's response schema is not under our
// control, so the table covers every field name observed to carry image
// data.
var keyActions = map[string]keyAction{
	"image_urls":         actionURL,
	"urls":               actionURL,
	"url_list":           actionURL,
	"image_url":          actionURL,
	"url":                actionURL,
	"image_base64":       actionInline,
	"binary_data_base64": actionInline,
	"binary_data":        actionInline,
	"image":              actionInline,
	"result":             actionMaybeURL,
	"data":               actionMaybeURL,
}

// Extractor collects image references out of the arbitrary nested
// payloads returned by the generation provider. Inline-encoded images
// discovered during traversal are decoded and written to outputDir,
// then referenced as /images/<name>.png.
type Extractor struct {
	outputDir string
	logger    *slog.Logger
}

// NewExtractor creates an Extractor storing decoded images under
// outputDir.
func NewExtractor(outputDir string, logger *slog.Logger) *Extractor {
	return &Extractor{
		outputDir: outputDir,
		logger:    logger.With("component", "extractor"),
	}
}

// ImageRefs walks the payload depth first and returns the de-duplicated
// set of image references it found: strings under URL-bearing keys,
// generic result fields that are absolute HTTP(S) locations, and inline
// base64 payloads that decoded and stored successfully. The order of
// the returned slice is unspecified.
//
// The payload is expected to be the shape produced by encoding/json
// unmarshaling into any: nested maps, slices and strings. Values of any
// other type are ignored.
func (e *Extractor) ImageRefs(payload any) []string {
	refs := make(map[string]struct{})
	var inline []string

	e.walk(payload, "", refs, &inline)

	for _, candidate := range inline {
		if ref, ok := e.saveInline(candidate); ok {
			refs[ref] = struct{}{}
		}
	}

	out := make([]string, 0, len(refs))
	for ref := range refs {
		out = append(out, ref)
	}
	return out
}

// walk recurses through the payload carrying the enclosing key name.
// Sequences inherit the parent's key; only mappings introduce new ones.
func (e *Extractor) walk(value any, key string, refs map[string]struct{}, inline *[]string) {
	switch v := value.(type) {
	case map[string]any:
		for k, child := range v {
			e.walk(child, k, refs, inline)
		}
	case []any:
		for _, child := range v {
			e.walk(child, key, refs, inline)
		}
	case []string:
		for _, child := range v {
			e.walk(child, key, refs, inline)
		}
	case string:
		e.visitString(v, key, refs, inline)
	}
}

// visitString applies the key dispatch table to a single string value.
func (e *Extractor) visitString(value, key string, refs map[string]struct{}, inline *[]string) {
	if key == "" {
		// Bare scalar at the root or inside an unkeyed sequence.
		if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
			refs[value] = struct{}{}
		} else if _, ok := normalizeBase64(value); ok {
			*inline = append(*inline, value)
		}
		return
	}

	switch keyActions[strings.ToLower(key)] {
	case actionURL:
		refs[value] = struct{}{}
	case actionInline:
		*inline = append(*inline, value)
	case actionMaybeURL:
		if strings.HasPrefix(value, "http") {
			refs[value] = struct{}{}
		}
	}
}

// saveInline decodes a base64 candidate and writes it to a fresh
// uniquely-named file under the output directory. Returns the location
// reference for the stored file, or false if the candidate could not be
// decoded or stored; a failed candidate contributes nothing to the
// extraction.
func (e *Extractor) saveInline(candidate string) (string, bool) {
	normalized, ok := normalizeBase64(candidate)
	if !ok {
		return "", false
	}

	raw, err := base64.StdEncoding.DecodeString(normalized)
	if err != nil {
		return "", false
	}

	id := uuid.New()
	name := hex.EncodeToString(id[:]) + ".png"
	if err := os.WriteFile(filepath.Join(e.outputDir, name), raw, 0o644); err != nil {
		e.logger.Warn("failed to store inline image", "error", err)
		return "", false
	}

	return "/images/" + name, true
}

// normalizeBase64 prepares a candidate string for strict base64
// decoding: an optional data-URI prefix up to the first comma is
// stripped, surrounding whitespace is trimmed and padding is restored
// to a multiple of four characters. Returns false for empty or
// undecodable input.
func normalizeBase64(s string) (string, bool) {
	if i := strings.Index(s, ","); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}

	if _, err := base64.StdEncoding.Strict().DecodeString(s); err != nil {
		return "", false
	}

	return s, true
}
