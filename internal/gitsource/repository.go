package gitsource

import (
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// RefType distinguishes branches from tags.
type RefType string

const (
	RefBranch RefType = "branch"
	RefTag    RefType = "tag"
)

// ErrStartPathNotFound is returned when a start path is missing from a ref.
var ErrStartPathNotFound = errors.New("start path not found in ref")

// Ref is a branch or tag selected for aggregation.
type Ref struct {
	Name string
	Type RefType
	Hash plumbing.Hash
	// Current is set for the branch checked out in a local worktree.
	Current bool
}

// File is a blob read from a ref tree.
type File struct {
	Path     string
	Contents []byte
}

// Repository is an opened content source repository.
type Repository struct {
	URL         string
	Path        string
	Local       bool
	WorktreeDir string
	repo        *git.Repository
}

// Refs returns the branches and tags matching the given patterns, ordered
// branches first then by name. A pattern prefixed with ! excludes matches;
// the pattern HEAD selects the current branch.
func (r *Repository) Refs(branchPatterns, tagPatterns []string) ([]Ref, error) {
	current := ""
	if head, err := r.repo.Head(); err == nil && head.Name().IsBranch() {
		current = head.Name().Short()
	}

	var refs []Ref
	iter, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		switch {
		case name.IsBranch():
			short := name.Short()
			if matchRef(short, short == current, branchPatterns) {
				refs = append(refs, Ref{Name: short, Type: RefBranch, Hash: ref.Hash(), Current: short == current && r.WorktreeDir != ""})
			}
		case name.IsTag():
			short := name.Short()
			if !matchRef(short, false, tagPatterns) {
				return nil
			}
			hash, herr := r.peel(ref.Hash())
			if herr != nil {
				return herr
			}
			refs = append(refs, Ref{Name: short, Type: RefTag, Hash: hash})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Type != refs[j].Type {
			return refs[i].Type == RefBranch
		}
		return refs[i].Name < refs[j].Name
	})
	return refs, nil
}

// peel resolves annotated tags to the commit they point at.
func (r *Repository) peel(h plumbing.Hash) (plumbing.Hash, error) {
	tag, err := r.repo.TagObject(h)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return h, nil
	}
	if err != nil {
		return plumbing.ZeroHash, err
	}
	c, err := tag.Commit()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return c.Hash, nil
}

func matchRef(name string, isCurrent bool, patterns []string) bool {
	included := false
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if neg, ok := strings.CutPrefix(p, "!"); ok {
			if m, _ := doublestar.Match(neg, name); m {
				return false
			}
			continue
		}
		if p == "HEAD" || p == "." {
			if isCurrent {
				included = true
			}
			continue
		}
		if m, _ := doublestar.Match(p, name); m {
			included = true
		}
	}
	return included
}

// Files reads every regular file under startPath in the tree of ref. Paths
// are relative to startPath.
func (r *Repository) Files(ref Ref, startPath string) ([]File, error) {
	commit, err := r.repo.CommitObject(ref.Hash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", ref.Name, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree %s: %w", ref.Name, err)
	}
	startPath = path.Clean(startPath)
	if startPath != "." && startPath != "" {
		tree, err = tree.Tree(startPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s@%s:%s", ErrStartPathNotFound, r.URL, ref.Name, startPath)
		}
	}

	var files []File
	err = tree.Files().ForEach(func(f *object.File) error {
		if f.Mode != filemode.Regular && f.Mode != filemode.Executable {
			return nil
		}
		rc, rerr := f.Reader()
		if rerr != nil {
			return rerr
		}
		data, rerr := io.ReadAll(rc)
		_ = rc.Close()
		if rerr != nil {
			return fmt.Errorf("read %s: %w", f.Name, rerr)
		}
		files = append(files, File{Path: f.Name, Contents: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
