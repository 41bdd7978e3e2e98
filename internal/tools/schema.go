package tools

// Schema describes a tool for prompt rendering and argument validation.
type Schema struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Parameters  []SchemaField `json:"parameters"`
}

// SchemaField describes a single parameter.
type SchemaField struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
}

// Schemas returns descriptors for all available tools.
func (r *Registry) Schemas() []Schema {
	s := []Schema{
		{
			Name:        "fs.read_file",
			Description: "Read a file relative to the workspace root",
			Parameters: []SchemaField{
				{Name: "path", Type: "string", Description: "Relative file path", Required: true},
			},
		},
		{
			Name:        "fs.write_file",
			Description: "Write content to a file, creating parent directories",
			Parameters: []SchemaField{
				{Name: "path", Type: "string", Required: true},
				{Name: "content", Type: "string", Required: true},
			},
		},
		{
			Name:        "fs.list_dir",
			Description: "List directory entries; directories end with /",
			Parameters: []SchemaField{
				{Name: "path", Type: "string", Description: "Directory path, defaults to workspace root", Required: false},
			},
		},
		{
			Name:        "fs.search",
			Description: "Search files under a directory for a literal pattern",
			Parameters: []SchemaField{
				{Name: "pattern", Type: "string", Required: true},
				{Name: "root", Type: "string", Description: "Directory to search, defaults to workspace root", Required: false},
				{Name: "max_results", Type: "integer", Required: false},
			},
		},
		{
			Name:        "fs.tree",
			Description: "Show a tree outline of a directory",
			Parameters: []SchemaField{
				{Name: "path", Type: "string", Required: false},
				{Name: "max_depth", Type: "integer", Required: false},
			},
		},
		{
			Name:        "terminal.exec",
			Description: "Execute a command in the workspace",
			Parameters: []SchemaField{
				{Name: "command", Type: "string", Required: true},
				{Name: "args", Type: "array", Description: "Arguments", Required: false},
			},
		},
		{
			Name:        "git.status",
			Description: "Show short git status",
			Parameters:  []SchemaField{},
		},
		{
			Name:        "git.diff",
			Description: "Show the working tree diff, optionally for one path",
			Parameters: []SchemaField{
				{Name: "path", Type: "string", Required: false},
			},
		},
		{
			Name:        "git.apply_patch",
			Description: "Apply a unified diff; use dry_run true to validate without applying",
			Parameters: []SchemaField{
				{Name: "patch", Type: "string", Required: true},
				{Name: "dry_run", Type: "boolean", Required: false},
			},
		},
	}
	return s
}

// DelegateSchema describes the delegation pseudo-tool handled by the
// agent loop itself rather than the dispatcher.
func DelegateSchema(roles []string) Schema {
	return Schema{
		Name:        "agent.delegate",
		Description: "Hand a sub-task to a specialist agent and receive its final answer",
		Parameters: []SchemaField{
			{Name: "role", Type: "string", Description: "Specialist role", Required: true, Enum: roles},
			{Name: "task", Type: "string", Description: "Task for the specialist", Required: true},
		},
	}
}
