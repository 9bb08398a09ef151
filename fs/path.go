package fs

import (
	"path"
	"strings"
)

// Meta: yep, these *are not* interchangeable.
// It's expected that if you *can* accept an AbsolutePath,
//  then you should normalize to that ASAP;
// and if you can't, then clearly it's correct to use the RelPath,
//  through and through the whole way.

type RelPath struct {
	path      string
	lastSplit int
}

func MustRelPath(p string) RelPath {
	p = path.Clean(p)
	if p[0] == '/' {
		panic("nope")
	}
	if p == "." { // We can't stop people from using the zero value, so, use it.
		return RelPath{}
	}
	return RelPath{p, strings.LastIndexByte(p, '/')}
}
func (p RelPath) String() string {
	if p.path == "" {
		return "."
	} else if p.path[0] == '.' { // a '..' prefix
		return p.path
	} else {
		return "./" + p.path
	}
}
func (p RelPath) Dir() RelPath {
	if p.path == "" {
		return p
	} else if p.lastSplit == -1 {
		return RelPath{}
	} else {
		p2 := p.path[0:p.lastSplit]
		return RelPath{p2, strings.LastIndexByte(p2, '/')}
	}
}
func (p RelPath) Last() string {
	if p.path == "" {
		return "."
	} else if p.lastSplit == -1 {
		return p.path
	} else {
		return p.path[p.lastSplit+1:]
	}
}
func (p RelPath) Join(p2 RelPath) RelPath {
	switch {
	case p2.path == "":
		return p
	case p.path == "":
		return p2
	default:
		// Constructing rather than string-smashing because the join may
		//  need a re-clean (e.g. the second path may go upwards).
		return MustRelPath(p.path + "/" + p2.path)
	}
}

/*
	Returns each path from the root to this one: e.g. for "./a/bb/c",
	returns [".", "./a", "./a/bb", "./a/bb/c"].
*/
func (p RelPath) Split() []RelPath {
	if p.path == "" {
		return []RelPath{p}
	}
	n := strings.Count(p.path, "/") + 2
	res := make([]RelPath, n)
	for i := n - 1; i > 0; i-- {
		res[i] = p
		p = p.Dir()
	}
	res[0] = p
	return res
}

/*
	Same as Split, but excluding the path itself: just its parents.
	The empty path has no parents, and yields an empty (non-nil) slice.
*/
func (p RelPath) SplitParent() []RelPath {
	if p.path == "" {
		return []RelPath{}
	}
	split := p.Split()
	return split[:len(split)-1]
}

/*
	Returns true if the (cleaned) path starts with an upward traversal.
	Since paths are normalized at construction, any ".." segments can
	only appear at the front.
*/
func (p RelPath) GoesUp() bool {
	return p.path == ".." || strings.HasPrefix(p.path, "../")
}

type AbsolutePath struct {
	path      string
	lastSplit int
}

func MustAbsolutePath(p string) AbsolutePath {
	p = path.Clean(p)
	if p[0] != '/' {
		panic("nope")
	}
	if p == "/" { // We can't stop people from using the zero value, so, use it.
		return AbsolutePath{}
	}
	return AbsolutePath{p, strings.LastIndexByte(p, '/')}
}
func (p AbsolutePath) String() string {
	if p.path == "" {
		return "/"
	}
	return p.path
}
func (p AbsolutePath) Dir() AbsolutePath {
	if p.path == "" {
		return p
	} else if p.lastSplit == 0 {
		return AbsolutePath{}
	} else {
		p2 := p.path[0:p.lastSplit]
		return AbsolutePath{p2, strings.LastIndexByte(p2, '/')}
	}
}
func (p AbsolutePath) Last() string {
	if p.path == "" {
		return "/"
	} else {
		return p.path[p.lastSplit+1:]
	}
}
func (p AbsolutePath) Join(p2 RelPath) AbsolutePath {
	if p2.path == "" {
		return p
	}
	// As with RelPath.Join: construct, don't concat; cleaning matters.
	return MustAbsolutePath(p.path + "/" + p2.path)
}

/*
	Returns the same path, reinterpreted as relative (to the root).
	Handy when you have an absolute path and an FS based at "/".
*/
func (p AbsolutePath) CoerceRelative() RelPath {
	if p.path == "" {
		return RelPath{}
	}
	p2 := p.path[1:]
	return RelPath{p2, strings.LastIndexByte(p2, '/')}
}
