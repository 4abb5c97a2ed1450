// Package tasks provides the lifecycle task registry and its depth-first,
// memoized runner. Tasks are registered once at process start; a run resolves
// a named task's prerequisites in declaration order, executes each task at
// most once, and aborts on the first failure.
package tasks
