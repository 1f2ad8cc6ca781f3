// Package prompts contains all description strings used by the todo tools and resources.
package prompts

// Todo tool descriptions
const (
	// TodoCreateToolDescription is the description for the todo_create tool
	TodoCreateToolDescription = "Create a new TODO item"

	// TodoListToolDescription is the description for the todo_list tool
	TodoListToolDescription = "Get list of TODOs with filtering capabilities"

	// TodoUpdateToolDescription is the description for the todo_update tool
	TodoUpdateToolDescription = "Update the fields of an existing TODO"

	// TodoDeleteToolDescription is the description for the todo_delete tool
	TodoDeleteToolDescription = "Delete a TODO"
)

// Argument descriptions shared by the tool input schemas
const (
	IDArgDescription          = "ID of the TODO"
	TitleArgDescription       = "Title of the TODO"
	DescriptionArgDescription = "Detailed description of the TODO"
	PriorityArgDescription    = "Priority of the TODO"
	TagsArgDescription        = "List of tags"
	CompletedArgDescription   = "Completion status"

	CompletedFilterDescription = "Filter by completion status"
	PriorityFilterDescription  = "Filter by priority level"
	TagsFilterDescription      = "Filter by tags; a TODO matches when it has at least one of them"
	SearchFilterDescription    = "Search in title and description"
	SortByDescription          = "Sort by field"
	SortOrderDescription       = "Sort order"
)

// Resource descriptions
const (
	// TodoInterfaceResourceName is the display name of the TODO UI resource
	TodoInterfaceResourceName = "TODO Interface"

	// TodoInterfaceResourceDescription describes the TODO UI resource
	TodoInterfaceResourceDescription = "Interactive TODO management interface"
)
