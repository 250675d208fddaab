// Package textutil sanitizes user-supplied titles into safe filename segments.
package textutil
