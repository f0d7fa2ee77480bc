package ports

// FileSystem abstracts where preview output lands, so sinks can be
// tested without touching the disk.
type FileSystem interface {
	// WriteFile writes data to path, creating parent directories as
	// needed.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error
}
