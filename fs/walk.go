package fs

import (
	"sort"
)

type WalkFunc func(filenode *FilewalkNode) error

/*
	Walks a filesystem, depth-first.

	This is much like the standard library's `path/filepath.Walk`,
	except it supports both pre- and post-order visit functions,
	and it uses fs.RelPath (of course) to normalize path names.

	The walk starts at the filesystem's base path; the first path visited
	is always `.`.  Symlinks are not followed.  The children of each
	directory are visited in sorted name order (the order a *whole tree*
	is visited in is therefore deterministic for identical trees, but no
	particular order should be assumed across platforms by callers who
	go on to consume paths positionally).

	If lstat'ing a path fails, the node is visited anyway with its Err
	field set (and Info nil); the visit funcs choose whether that's fatal.
	Returning a non-nil error from either visit func halts the whole walk
	and returns that error.
*/
func Walk(afs FS, preVisit WalkFunc, postVisit WalkFunc) error {
	return walk(afs, newFileWalkNode(afs, RelPath{}), preVisit, postVisit)
}

type FilewalkNode struct {
	Path RelPath   // The path this node describes, relative to the walk root.
	Info *Metadata // Lstat results; nil if and only if Err is set.
	Err  error     // Lstat error for this path, if any.
}

func newFileWalkNode(afs FS, path RelPath) (filenode *FilewalkNode) {
	// Fill in attributes.
	//  We could leave it to the user's code to do this, but we need to
	//  know if we're dealing with a dir in order to expand the children
	//  list, so, might as well keep and expose that info.
	filenode = &FilewalkNode{Path: path}
	filenode.Info, filenode.Err = afs.LStat(path)
	return
}

func walk(afs FS, node *FilewalkNode, preVisit WalkFunc, postVisit WalkFunc) error {
	if preVisit != nil {
		if err := preVisit(node); err != nil {
			return err
		}
	}
	if node.Err == nil && node.Info.Type == Type_Dir {
		names, err := afs.ReadDirNames(node.Path)
		if err != nil {
			return err
		}
		sort.Strings(names)
		for _, name := range names {
			// We don't expand grandchildren until each child's own visit,
			//  so the whole tree never crashes into memory at once.
			child := newFileWalkNode(afs, node.Path.Join(RelPath{name, -1}))
			if err := walk(afs, child, preVisit, postVisit); err != nil {
				return err
			}
		}
	}
	if postVisit != nil {
		return postVisit(node)
	}
	return nil
}
