// Package diff parses unified diff text into file-level change records
// with deterministic, content-derived identities.
//
// Every parsed line, hunk, and file receives its identity during parsing:
// a positional hunk id that follows the @@ header, a stable hunk id that
// follows the change content itself, and an anchor id that annotations
// attach to. Parsing the same diff text twice always yields the same ids.
//
// The parser accepts git-style unified diffs: quoted paths, arbitrary
// single-character path prefixes (a/, b/, w/, 1/, ...), rename and binary
// markers, and /dev/null sides. Malformed @@ headers are hard errors;
// anything else degrades gracefully.
package diff
