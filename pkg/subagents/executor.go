package subagents

import (
	"context"
	"sync"
)

// CodeExecutor is the backend of a local_code agent: arbitrary compiled-in
// logic behind a task-in, report-out contract. Implementations register at
// startup under the name their agent.md declares in the entry field.
type CodeExecutor interface {
	Execute(ctx context.Context, task string) (string, error)
}

// CodeExecutorFunc adapts a function to the CodeExecutor interface.
type CodeExecutorFunc func(ctx context.Context, task string) (string, error)

func (f CodeExecutorFunc) Execute(ctx context.Context, task string) (string, error) {
	return f(ctx, task)
}

var (
	codeExecMu    sync.RWMutex
	codeExecutors = make(map[string]CodeExecutor)
)

// RegisterCodeExecutor binds an executor to an entry name. Later
// registrations under the same name win, which lets applications replace
// a builtin executor.
func RegisterCodeExecutor(entry string, executor CodeExecutor) {
	codeExecMu.Lock()
	defer codeExecMu.Unlock()
	codeExecutors[entry] = executor
}

func lookupCodeExecutor(entry string) (CodeExecutor, bool) {
	codeExecMu.RLock()
	defer codeExecMu.RUnlock()
	executor, ok := codeExecutors[entry]
	return executor, ok
}
