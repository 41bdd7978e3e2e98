package tools

// Registry exposes shared tool instances.
type Registry struct {
	FS       *Filesystem
	Terminal *Terminal
	Git      *GitTool
}

// NewRegistry builds a registry from instantiated tools.
func NewRegistry(fs *Filesystem, term *Terminal, git *GitTool) *Registry {
	return &Registry{FS: fs, Terminal: term, Git: git}
}

// Schema returns the schema for a tool name if present.
func (r *Registry) Schema(name string) (Schema, bool) {
	for _, s := range r.Schemas() {
		if s.Name == name {
			return s, true
		}
	}
	return Schema{}, false
}
