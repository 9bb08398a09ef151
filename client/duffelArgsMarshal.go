package duffelexecclient

import (
	"github.com/polydawn/duffel/api"
)

// The argv builders are split from the exec'ing so they can be tested
//  flat, and so anyone wrapping duffel in another supervisor can reuse
//  the marshalling.
//
// All of them put the positional args after a "--" terminator (which
//  matters because, well, what if someone really does want to archive
//  a folder named "--lol"?), and ask for json format (we are decidedly
//  not a human reader).

func ArchiveArgs(sourcePath string, container api.ContainerAddr) []string {
	return []string{"--archive", "--format=json", "--", sourcePath, string(container)}
}

func UnarchiveArgs(container api.ContainerAddr, targetPath string) []string {
	return []string{"--unarchive", "--format=json", "--", string(container), targetPath}
}

func CheckArgs(sourcePath string, container api.ContainerAddr) []string {
	return []string{"--check", "--format=json", "--", string(container), sourcePath}
}

func ScanArgs(container api.ContainerAddr) []string {
	return []string{"--scan", "--format=json", "--", string(container)}
}
