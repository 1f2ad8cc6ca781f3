package prompts

// ToolPrompts contains the descriptions of every MCP tool
type ToolPrompts struct {
	TodoCreate string
	TodoList   string
	TodoUpdate string
	TodoDelete string
}

// Default returns the default prompts configuration
func Default() *ToolPrompts {
	return &ToolPrompts{
		TodoCreate: TodoCreateToolDescription,
		TodoList:   TodoListToolDescription,
		TodoUpdate: TodoUpdateToolDescription,
		TodoDelete: TodoDeleteToolDescription,
	}
}
