// Package keys builds the namespaced storage keys for cached learning data.
//
// Every key embeds SchemaVersion. Bumping it makes previously stored entries
// unreachable; LegacyPrefixes lists the superseded prefixes so they can be purged.
package keys

import (
	"net/url"
	"strings"
)

// SchemaVersion is the current stored-shape version
const SchemaVersion = "v2"

// Namespace is the prefix shared by every key this service writes
const Namespace = "learnpath"

// Kinds of cached entries
const (
	KindPath         = "path"
	KindProgress     = "progress"
	KindContent      = "content"
	KindCustomLevels = "levels"
)

// previousVersions lists versioned schemas that are no longer read
var previousVersions = []string{"v1"}

// legacyUnversioned are the prefixes of the original unversioned scheme
var legacyUnversioned = []string{
	"LEARNING_PATH_",
	"PROGRESS_",
	"TECHNIQUE_CONTENT_",
	"CUSTOM_LEVELS_",
}

// PathKey returns the key of the learning path for a hobby+level pair
func PathKey(hobbyID, levelID string) string {
	return build(KindPath, hobbyID, levelID)
}

// ProgressKey returns the key of the progress map for a hobby+level pair
func ProgressKey(hobbyID, levelID string) string {
	return build(KindProgress, hobbyID, levelID)
}

// ContentKey returns the key of a technique's study content
func ContentKey(hobbyID, levelID, techniqueID string) string {
	return build(KindContent, hobbyID, levelID, techniqueID)
}

// CustomLevelsKey returns the key of the learner-authored levels of a hobby
func CustomLevelsKey(hobbyID string) string {
	return build(KindCustomLevels, hobbyID)
}

// Prefix returns the prefix shared by all keys of the current schema
func Prefix() string {
	return Namespace + ":" + SchemaVersion + ":"
}

// LegacyPrefixes returns every prefix written by a superseded key scheme
func LegacyPrefixes() []string {
	out := make([]string, 0, len(legacyUnversioned)+len(previousVersions))
	out = append(out, legacyUnversioned...)
	for _, v := range previousVersions {
		out = append(out, Namespace+":"+v+":")
	}
	return out
}

func build(kind string, parts ...string) string {
	var b strings.Builder
	b.WriteString(Prefix())
	b.WriteString(kind)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(escape(p))
	}
	return b.String()
}

// escape keeps ':' out of key parts so part boundaries stay unambiguous
func escape(part string) string {
	return url.QueryEscape(part)
}
