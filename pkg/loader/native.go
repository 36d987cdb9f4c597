package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// NativeLoader links a shared library into the process.
// Implementations are expected to be synchronous and return once the library
// is either loaded or known to be unloadable.
type NativeLoader interface {
	LoadLibrary(ctx context.Context, fileName string) error
}

// NativeLoaderFunc adapts an ordinary function to the NativeLoader interface
type NativeLoaderFunc func(ctx context.Context, fileName string) error

// LoadLibrary calls f(ctx, fileName)
func (f NativeLoaderFunc) LoadLibrary(ctx context.Context, fileName string) error {
	return f(ctx, fileName)
}

// DirectoryNativeLoader treats a library as loadable when its file is present
// in Dir. It is used to verify a packaged library set without linking it.
type DirectoryNativeLoader struct {
	Dir string
}

// LoadLibrary returns a *LinkError unless Dir contains fileName
func (d DirectoryNativeLoader) LoadLibrary(_ context.Context, fileName string) error {
	info, err := os.Stat(filepath.Join(d.Dir, fileName))
	if err != nil {
		return &LinkError{Name: fileName, Err: err}
	}
	if info.IsDir() {
		return &LinkError{Name: fileName, Err: fmt.Errorf("%s is a directory", info.Name())}
	}
	return nil
}
