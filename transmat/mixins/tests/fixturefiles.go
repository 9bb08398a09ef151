package tests

import (
	"bytes"
	"path"
	"sort"

	"github.com/polydawn/duffel/fs"
	"github.com/polydawn/duffel/fsOp"
)

type FixtureFile struct {
	Metadata fs.Metadata
	Body     []byte
}

// Fixture files are listed in walk order (depth-first, sorted names);
//  FlattenFixture leans on that ordering to resolve collisions the same
//  way an archive does.

var FixtureAlpha = []FixtureFile{
	{fs.Metadata{Name: fs.MustRelPath("."), Type: fs.Type_Dir, Perms: 0755}, nil},
	{fs.Metadata{Name: fs.MustRelPath("./a"), Type: fs.Type_File, Perms: 0644, Size: 3}, []byte("zyx")},
}

var FixtureAlphaDiffContent = []FixtureFile{
	{fs.Metadata{Name: fs.MustRelPath("."), Type: fs.Type_Dir, Perms: 0755}, nil},
	{fs.Metadata{Name: fs.MustRelPath("./a"), Type: fs.Type_File, Perms: 0644, Size: 3}, []byte("qwe")},
}

var FixtureEmpty = []FixtureFile{
	{fs.Metadata{Name: fs.MustRelPath("."), Type: fs.Type_Dir, Perms: 0755}, nil},
}

var FixtureMultifile = []FixtureFile{
	{fs.Metadata{Name: fs.MustRelPath("."), Type: fs.Type_Dir, Perms: 0755}, nil},
	{fs.Metadata{Name: fs.MustRelPath("./a.txt"), Type: fs.Type_File, Perms: 0644, Size: 2}, []byte("hi")},
	{fs.Metadata{Name: fs.MustRelPath("./b.bin"), Type: fs.Type_File, Perms: 0644, Size: 3}, []byte{0x00, 0x01, 0x02}},
}

var FixtureDepth = []FixtureFile{
	{fs.Metadata{Name: fs.MustRelPath("."), Type: fs.Type_Dir, Perms: 0755}, nil},
	{fs.Metadata{Name: fs.MustRelPath("./a"), Type: fs.Type_File, Perms: 0644, Size: 3}, []byte("zyx")},
	{fs.Metadata{Name: fs.MustRelPath("./d"), Type: fs.Type_Dir, Perms: 0750}, nil},
	{fs.Metadata{Name: fs.MustRelPath("./d/c"), Type: fs.Type_File, Perms: 0664, Size: 4}, []byte("asdf")},
}

// The same basename at two depths: both become records, and the one the
//  walk reaches last wins at unpack time.
var FixtureCollision = []FixtureFile{
	{fs.Metadata{Name: fs.MustRelPath("."), Type: fs.Type_Dir, Perms: 0755}, nil},
	{fs.Metadata{Name: fs.MustRelPath("./a"), Type: fs.Type_File, Perms: 0644, Size: 3}, []byte("old")},
	{fs.Metadata{Name: fs.MustRelPath("./d"), Type: fs.Type_Dir, Perms: 0755}, nil},
	{fs.Metadata{Name: fs.MustRelPath("./d/a"), Type: fs.Type_File, Perms: 0644, Size: 4}, []byte("new!")},
}

var FixtureBinary = []FixtureFile{
	{fs.Metadata{Name: fs.MustRelPath("."), Type: fs.Type_Dir, Perms: 0755}, nil},
	{fs.Metadata{Name: fs.MustRelPath("./blob"), Type: fs.Type_File, Perms: 0644, Size: 4}, []byte{'q', 0x00, 'w', 'e'}},
	{fs.Metadata{Name: fs.MustRelPath("./empty"), Type: fs.Type_File, Perms: 0644, Size: 0}, nil},
}

var FixtureSymlinks = []FixtureFile{
	{fs.Metadata{Name: fs.MustRelPath("."), Type: fs.Type_Dir, Perms: 0755}, nil},
	{fs.Metadata{Name: fs.MustRelPath("./a"), Type: fs.Type_File, Perms: 0644, Size: 3}, []byte("zyx")},
	// Perms on the link are set to 777, not because that works, but because *that's what you get* on a linux system.
	{fs.Metadata{Name: fs.MustRelPath("./ln"), Type: fs.Type_Symlink, Perms: 0777, Linkname: "./a"}, nil},
}

// deep and varied structure; every basename unique, so it flattens losslessly.
// subtle: a dir with a sibling that's a suffix of its name (dirent sorting puts
//  "init" ahead of "init.d", and the walk descends in that order).
var FixtureGamma = []FixtureFile{
	{fs.Metadata{Name: fs.MustRelPath("."), Type: fs.Type_Dir, Perms: 0755}, nil},
	{fs.Metadata{Name: fs.MustRelPath("./etc"), Type: fs.Type_Dir, Perms: 0755}, nil},
	{fs.Metadata{Name: fs.MustRelPath("./etc/init"), Type: fs.Type_Dir, Perms: 0755}, nil},
	{fs.Metadata{Name: fs.MustRelPath("./etc/init/zed"), Type: fs.Type_File, Perms: 0644, Size: 4}, []byte("grue")},
	{fs.Metadata{Name: fs.MustRelPath("./etc/init.d"), Type: fs.Type_Dir, Perms: 0755}, nil},
	{fs.Metadata{Name: fs.MustRelPath("./etc/init.d/service-p"), Type: fs.Type_File, Perms: 0644, Size: 2}, []byte("p!")},
	{fs.Metadata{Name: fs.MustRelPath("./etc/init.d/service-q"), Type: fs.Type_File, Perms: 0644, Size: 2}, []byte("q!")},
	{fs.Metadata{Name: fs.MustRelPath("./etc/trick"), Type: fs.Type_File, Perms: 0644, Size: 3}, []byte("sib")},
	{fs.Metadata{Name: fs.MustRelPath("./etc/tricky"), Type: fs.Type_File, Perms: 0644, Size: 3}, []byte("sob")},
	{fs.Metadata{Name: fs.MustRelPath("./var"), Type: fs.Type_Dir, Perms: 0755}, nil},
	{fs.Metadata{Name: fs.MustRelPath("./var/fun"), Type: fs.Type_File, Perms: 0644, Size: 3}, []byte("zyx")},
}

var AllFixtures = []struct {
	Name  string
	Files []FixtureFile
}{
	{"Alpha", FixtureAlpha},
	{"AlphaDiffContent", FixtureAlphaDiffContent},
	{"Empty", FixtureEmpty},
	{"Multifile", FixtureMultifile},
	{"Depth", FixtureDepth},
	{"Collision", FixtureCollision},
	{"Binary", FixtureBinary},
	{"Symlinks", FixtureSymlinks},
	{"Gamma", FixtureGamma},
}

/*
	Create files described by the fixtures on the filesystem given.
	Any errors will be panicked, since this is meant to be used in test setup.
*/
func PlaceFixture(afs fs.FS, fixture []FixtureFile) {
	for _, ff := range fixture {
		if err := fsOp.PlaceFile(afs, ff.Metadata, bytes.NewBuffer(ff.Body)); err != nil {
			panic(err)
		}
	}
}

/*
	Counts the records an archive of the fixture will hold: one per
	regular file, plus one per symlink resolving to a regular file.
*/
func FixtureCensus(fixture []FixtureFile) int {
	n := 0
	for _, ff := range fixture {
		switch ff.Metadata.Type {
		case fs.Type_File:
			n++
		case fs.Type_Symlink:
			if _, ok := resolveFixtureLink(fixture, ff.Metadata.Linkname); ok {
				n++
			}
		}
	}
	return n
}

/*
	Projects a fixture to the flat file list a round-trip through a
	container should produce: every regular file keyed by basename,
	later entries winning collisions, symlinks replaced by the file
	they reference.  The result is sorted by name.
*/
func FlattenFixture(fixture []FixtureFile) []FixtureFile {
	flat := map[string][]byte{}
	for _, ff := range fixture {
		switch ff.Metadata.Type {
		case fs.Type_File:
			flat[ff.Metadata.Name.Last()] = ff.Body
		case fs.Type_Symlink:
			if body, ok := resolveFixtureLink(fixture, ff.Metadata.Linkname); ok {
				flat[ff.Metadata.Name.Last()] = body
			}
		}
	}
	names := make([]string, 0, len(flat))
	for name := range flat {
		names = append(names, name)
	}
	sort.Strings(names)
	result := make([]FixtureFile, 0, len(names))
	for _, name := range names {
		result = append(result, FixtureFile{
			Metadata: fs.Metadata{Name: fs.MustRelPath(name), Type: fs.Type_File, Perms: 0644, Size: int64(len(flat[name]))},
			Body:     flat[name],
		})
	}
	return result
}

// Looks up the fixture file a symlink target names.  Only the simple
//  "./name" sibling form the fixtures use is understood.
func resolveFixtureLink(fixture []FixtureFile, linkname string) ([]byte, bool) {
	target := path.Base(linkname)
	for _, ff := range fixture {
		if ff.Metadata.Type == fs.Type_File && ff.Metadata.Name.Last() == target {
			return ff.Body, true
		}
	}
	return nil, false
}
