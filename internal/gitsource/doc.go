// Package gitsource clones, fetches, and reads git content sources with
// go-git. Remote repositories are mirrored as bare clones in the cache
// directory; files are read from ref trees without checking anything out.
package gitsource
