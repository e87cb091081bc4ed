// Package textutil provides text processing utilities for tokenization,
// fingerprinting, similarity, and title normalization.
//
// The primary use cases are:
//   - Creating token-based fingerprints from video titles for comparison
//   - Computing cosine similarity between fingerprints
//   - Cleaning raw titles extracted from filenames and playlists
//   - Natural ordering of titles with embedded episode numbers
//
// Fingerprints use term frequency vectors with cached norms for efficient
// comparison. The tokenization process folds diacritics, lowercases text,
// splits on non-alphanumeric characters, and filters short tokens plus
// common stop words.
package textutil
