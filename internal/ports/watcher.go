package ports

// Watcher monitors the alias overlay directory and reports changed YAML files.
// Only one Watch call should be active at a time.
type Watcher interface {
	// Watch starts monitoring dir. onChange is called with the absolute path
	// of each changed alias file. The callback may be invoked from any
	// goroutine. Returns an error if the directory doesn't exist.
	Watch(dir string, onChange func(filePath string)) error

	// Stop ends monitoring and releases all resources. After Stop returns,
	// no further onChange calls will fire. Safe to call multiple times.
	Stop() error
}
