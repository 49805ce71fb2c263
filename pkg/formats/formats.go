// Package formats provides codecs for heightfield terrain files.
package formats
