// Package workspace manages the per-build scratch directories.
//
// Every build owns one directory under a fixed scratch root, named after the
// repository URL's path stem. Prepare removes any leftover directory and
// recreates it, retrying on transient filesystem errors; Teardown removes it
// best-effort when the build finishes. Builds deriving the same name are
// serialized with per-name locks. Sweep removes directories a crashed process
// left behind.
package workspace
