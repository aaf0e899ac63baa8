// Package config defines configuration backends and the read-only snapshot
// backend.
//
// A Backend is any source of "section[.subsection].name" values: the live,
// layered store in the layer sub-package, or a Snapshot of another backend.
// Keys are compared after NormalizeKey, which lowercases the section and
// name and keeps the subsection as written.
//
// # Snapshots
//
// A Snapshot copies its source once, on Open, and serves every read from
// that copy. Values read through a snapshot never change, even while the
// source is being written:
//
//	snap, err := config.TakeSnapshot(ctx, store)
//	if err != nil {
//	    return err
//	}
//	defer snap.Close()
//
//	h, err := snap.Get("core.editor")
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//	fmt.Println(h.Value)
//
// All mutating operations on a snapshot fail with an error matching
// ErrReadOnly, so callers that need to write can fall back to the source.
//
// # Reference counting
//
// The copied table is an Entries value with an atomic reference count.
// Each EntryHandle and Iterator holds a reference, so results stay valid
// after the snapshot is re-opened or closed.
//
// # Typed values
//
// Values are strings. GetBool, GetInt64, GetInt32 and GetStringSlice read
// them from any Backend with git's rules: "yes", "on" and non-zero
// integers are true, and integers take k, m or g suffixes.
//
// # Sub-packages
//
//   - layer: the live store, a set of prioritized layers implementing Backend
//   - loader: TOML, YAML and environment loaders for layer data
//   - watcher: fsnotify-based file watching for layer reloads
//   - notify: change notification for the live store
package config
