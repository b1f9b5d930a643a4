// Lists the SVG icons of a source folder.
// Only the immediate entries of the folder are considered; sub folders
// are never visited.
package svgscan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extension is the (lower case) file extension retained by the scanner.
const Extension = ".svg"

// DirectoryAccessError is returned when the source folder
// does not exist or can't be read.
type DirectoryAccessError struct {
	Dir string
	Err error
}

func (e *DirectoryAccessError) Error() string {
	return fmt.Sprintf("unable to list SVG files in '%s': %v", e.Dir, e.Err)
}

func (e *DirectoryAccessError) Unwrap() error { return e.Err }

// ListSVGFiles returns the paths of the files of `dir` whose extension,
// compared case-insensitively, is `.svg`. Each path is `dir` followed by
// the entry name, with a separator added only when `dir` does not end
// with one: `dir` itself is not cleaned.
// The order is the one of the underlying directory enumeration, which
// depends on the platform; use Sorted to get a stable order.
// The result may be empty.
func ListSVGFiles(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, &DirectoryAccessError{Dir: dir, Err: err}
	}
	defer f.Close()

	// f.ReadDir keeps the enumeration order (os.ReadDir would sort)
	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, &DirectoryAccessError{Dir: dir, Err: err}
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !IsSVG(entry.Name()) {
			continue
		}
		files = append(files, join(dir, entry.Name()))
	}
	return files, nil
}

func join(dir, name string) string {
	if dir == "" {
		return name
	}
	if os.IsPathSeparator(dir[len(dir)-1]) {
		return dir + name
	}
	return dir + string(filepath.Separator) + name
}

// IsSVG reports whether `name` has the `.svg` extension, in any case.
func IsSVG(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == Extension
}

// Sorted returns a lexicographically sorted copy of `files`.
func Sorted(files []string) []string {
	out := append([]string(nil), files...)
	sort.Strings(out)
	return out
}
