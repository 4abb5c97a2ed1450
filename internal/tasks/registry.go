package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	taskNameMissingMessageConstant            = "task name not provided"
	taskActionMissingTemplateConstant         = "task %q has no action"
	duplicateTaskTemplateConstant             = "task %q defined multiple times"
	unknownPrerequisiteTemplateConstant       = "task %q requires unknown task %q"
	selfPrerequisiteTemplateConstant          = "task %q cannot require itself"
	prerequisiteCycleDetectedMessageConstant  = "task prerequisites contain a cycle"
	registryDescriptorsMissingMessageConstant = "no task descriptors provided"
)

// Task describes a named unit of work with declared prerequisites and an action.
type Task struct {
	Name          string
	Prerequisites []string
	Action        func(executionContext context.Context) error
}

// Registry holds an immutable, ordered collection of task descriptors.
type Registry struct {
	orderedTaskNames []string
	tasksByName      map[string]Task
}

var (
	// ErrTaskNameMissing indicates a descriptor without a name.
	ErrTaskNameMissing = errors.New(taskNameMissingMessageConstant)
	// ErrPrerequisiteCycle indicates the prerequisite graph is not acyclic.
	ErrPrerequisiteCycle = errors.New(prerequisiteCycleDetectedMessageConstant)
	// ErrNoTaskDescriptors indicates the registry was built without tasks.
	ErrNoTaskDescriptors = errors.New(registryDescriptorsMissingMessageConstant)
)

// DuplicateTaskError indicates two descriptors share a name.
type DuplicateTaskError struct {
	TaskName string
}

// Error implements the error interface.
func (errorDetails DuplicateTaskError) Error() string {
	return fmt.Sprintf(duplicateTaskTemplateConstant, errorDetails.TaskName)
}

// UnknownPrerequisiteError indicates a descriptor references an unregistered task.
type UnknownPrerequisiteError struct {
	TaskName         string
	PrerequisiteName string
}

// Error implements the error interface.
func (errorDetails UnknownPrerequisiteError) Error() string {
	return fmt.Sprintf(unknownPrerequisiteTemplateConstant, errorDetails.TaskName, errorDetails.PrerequisiteName)
}

// NewRegistry validates the descriptors and builds an immutable registry.
//
// Descriptors keep their declaration order. Validation rejects missing names,
// missing actions, duplicates, unknown or self prerequisites, and cycles.
func NewRegistry(descriptors []Task) (*Registry, error) {
	if len(descriptors) == 0 {
		return nil, ErrNoTaskDescriptors
	}

	orderedTaskNames := make([]string, 0, len(descriptors))
	tasksByName := make(map[string]Task, len(descriptors))

	for descriptorIndex := range descriptors {
		descriptor := descriptors[descriptorIndex]
		taskName := strings.TrimSpace(descriptor.Name)
		if len(taskName) == 0 {
			return nil, ErrTaskNameMissing
		}
		if descriptor.Action == nil {
			return nil, fmt.Errorf(taskActionMissingTemplateConstant, taskName)
		}
		if _, exists := tasksByName[taskName]; exists {
			return nil, DuplicateTaskError{TaskName: taskName}
		}

		sanitizedPrerequisites := make([]string, 0, len(descriptor.Prerequisites))
		seenPrerequisites := make(map[string]struct{}, len(descriptor.Prerequisites))
		for prerequisiteIndex := range descriptor.Prerequisites {
			prerequisiteName := strings.TrimSpace(descriptor.Prerequisites[prerequisiteIndex])
			if len(prerequisiteName) == 0 {
				continue
			}
			if prerequisiteName == taskName {
				return nil, fmt.Errorf(selfPrerequisiteTemplateConstant, taskName)
			}
			if _, alreadyIncluded := seenPrerequisites[prerequisiteName]; alreadyIncluded {
				continue
			}
			seenPrerequisites[prerequisiteName] = struct{}{}
			sanitizedPrerequisites = append(sanitizedPrerequisites, prerequisiteName)
		}
		descriptor.Name = taskName
		descriptor.Prerequisites = sanitizedPrerequisites

		orderedTaskNames = append(orderedTaskNames, taskName)
		tasksByName[taskName] = descriptor
	}

	for _, taskName := range orderedTaskNames {
		for _, prerequisiteName := range tasksByName[taskName].Prerequisites {
			if _, exists := tasksByName[prerequisiteName]; !exists {
				return nil, UnknownPrerequisiteError{TaskName: taskName, PrerequisiteName: prerequisiteName}
			}
		}
	}

	if cycleError := verifyAcyclic(orderedTaskNames, tasksByName); cycleError != nil {
		return nil, cycleError
	}

	return &Registry{orderedTaskNames: orderedTaskNames, tasksByName: tasksByName}, nil
}

// Lookup returns the descriptor registered under the provided name.
func (registry *Registry) Lookup(taskName string) (Task, bool) {
	descriptor, exists := registry.tasksByName[strings.TrimSpace(taskName)]
	return descriptor, exists
}

// TaskNames returns the registered task names in declaration order.
func (registry *Registry) TaskNames() []string {
	names := make([]string, len(registry.orderedTaskNames))
	copy(names, registry.orderedTaskNames)
	return names
}

// verifyAcyclic performs Kahn-style elimination over the prerequisite graph.
func verifyAcyclic(orderedTaskNames []string, tasksByName map[string]Task) error {
	inDegree := make(map[string]int, len(orderedTaskNames))
	dependents := make(map[string][]string, len(orderedTaskNames))

	for _, taskName := range orderedTaskNames {
		inDegree[taskName] += 0
		for _, prerequisiteName := range tasksByName[taskName].Prerequisites {
			inDegree[taskName]++
			dependents[prerequisiteName] = append(dependents[prerequisiteName], taskName)
		}
	}

	ready := make([]string, 0, len(orderedTaskNames))
	for _, taskName := range orderedTaskNames {
		if inDegree[taskName] == 0 {
			ready = append(ready, taskName)
		}
	}

	processed := 0
	for len(ready) > 0 {
		currentName := ready[0]
		ready = ready[1:]
		processed++

		for _, dependentName := range dependents[currentName] {
			inDegree[dependentName]--
			if inDegree[dependentName] == 0 {
				ready = append(ready, dependentName)
			}
		}
	}

	if processed != len(orderedTaskNames) {
		return ErrPrerequisiteCycle
	}
	return nil
}
