package catalogue

import "strings"

const (
	libPrefix = "lib"
	libSuffix = ".so"
)

// FileName maps a short library name to its file name the way the platform
// loader does: "glog" becomes "libglog.so". Names that already carry the
// ".so" suffix are returned unchanged.
func FileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasSuffix(name, libSuffix) {
		return name
	}
	return libPrefix + name + libSuffix
}

// ShortName is the inverse of FileName: "libglog.so" becomes "glog".
func ShortName(fileName string) string {
	if !strings.HasPrefix(fileName, libPrefix) || !strings.HasSuffix(fileName, libSuffix) {
		return fileName
	}
	short := strings.TrimSuffix(strings.TrimPrefix(fileName, libPrefix), libSuffix)
	if short == "" {
		return fileName
	}
	return short
}
