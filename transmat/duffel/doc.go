/*
	The duffel transmat packs filesystems into duffel's own container
	format: a flat, headerless concatenation of file records.

	Each record on the wire is

		name '\0' size payload

	where name is the file's basename (directory components never appear
	on the wire), '\0' is a single zero byte, size is an eight-byte
	big-endian unsigned integer, and payload is exactly size bytes of
	file content.  Records repeat until the stream ends; a clean EOF at
	a record boundary is the only end-of-stream marker.  There is no
	magic number, no index, and no checksum.

	Filesystems are flattened on the way in: every regular file in the
	source tree is recorded under its basename alone, however deeply it
	was nested.  Basename collisions are not an error; colliding records
	are all written, and the last one wins at unpack time.
*/
package duffel
