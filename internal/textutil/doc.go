// Package textutil provides text normalization shared by the content policy,
// the AniList converter, and CLI rendering.
//
// Fold produces case-insensitive comparison keys, FoldSet builds lookup sets
// from configured lists, and StripMarkup turns AniList's HTML-flavoured
// descriptions into plain text.
package textutil
