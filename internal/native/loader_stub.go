//go:build !darwin && !linux

package native

// OpenShared always fails on platforms without dlopen.
func OpenShared(path string) (Library, error) {
	return nil, ErrUnsupportedPlatform
}
