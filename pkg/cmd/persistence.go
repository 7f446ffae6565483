package cmd

import (
	"github.com/dukex/dno/pkg/persistence/memory"
	"github.com/dukex/dno/pkg/workflow"
)

// NewStores creates the task table and the action store. They live for the
// lifetime of the process.
func NewStores() (workflow.TaskStore, workflow.ActionStore) {
	return memory.NewTaskTable[*workflow.Task](), memory.NewActionStore()
}
