package model

import "slices"

// Collection is implemented by every catalog handed to the publisher.
type Collection interface {
	AllFiles() []*File
}

// FileList is a flat, read-only collection of files.
type FileList struct {
	files []*File
}

// NewFileList wraps files in a read-only collection. The slice is copied.
func NewFileList(files []*File) *FileList {
	return &FileList{files: slices.Clone(files)}
}

// AllFiles returns the files in insertion order.
func (l *FileList) AllFiles() []*File {
	return slices.Clone(l.files)
}

// Len reports the number of files.
func (l *FileList) Len() int { return len(l.files) }
