// Package fileutil moves files between directories and filesystems.
package fileutil
