// Package model defines the data structures shared by the mutation testing engine.
package model

import "path/filepath"

// Path represents a file system path. Paths stored in a Plan are relative to
// the project root and use forward slashes.
type Path string

// Canonical returns the slash-separated, cleaned form of the path.
func (p Path) Canonical() Path {
	return Path(filepath.ToSlash(filepath.Clean(string(p))))
}

// File represents a project file copied into sandboxes.
type File struct {
	Path Path
	Hash string
}

// Plan is the input handed over by the mutation generator: which project to
// copy and which mutants to test against it.
type Plan struct {
	ProjectRoot Path     `json:"projectRoot" yaml:"projectRoot"`
	Files       []Path   `json:"files,omitempty" yaml:"files,omitempty"`
	Mutants     []Mutant `json:"mutants" yaml:"mutants"`
}
