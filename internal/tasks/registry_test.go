package tasks_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/creachadair/kmeans/internal/tasks"
)

const registrySubtestNameTemplateConstant = "%d_%s"

func noopAction(context.Context) error { return nil }

func TestNewRegistryValidation(testInstance *testing.T) {
	testCases := []struct {
		name        string
		descriptors []tasks.Task
		expectError bool
		verifyError func(*testing.T, error)
	}{
		{
			name:        "empty_descriptor_list",
			descriptors: nil,
			expectError: true,
			verifyError: func(t *testing.T, err error) {
				require.ErrorIs(t, err, tasks.ErrNoTaskDescriptors)
			},
		},
		{
			name:        "missing_task_name",
			descriptors: []tasks.Task{{Name: "  ", Action: noopAction}},
			expectError: true,
			verifyError: func(t *testing.T, err error) {
				require.ErrorIs(t, err, tasks.ErrTaskNameMissing)
			},
		},
		{
			name:        "missing_action",
			descriptors: []tasks.Task{{Name: "clean"}},
			expectError: true,
		},
		{
			name: "duplicate_task_name",
			descriptors: []tasks.Task{
				{Name: "clean", Action: noopAction},
				{Name: "clean", Action: noopAction},
			},
			expectError: true,
			verifyError: func(t *testing.T, err error) {
				var duplicateError tasks.DuplicateTaskError
				require.ErrorAs(t, err, &duplicateError)
				require.Equal(t, "clean", duplicateError.TaskName)
			},
		},
		{
			name: "unknown_prerequisite",
			descriptors: []tasks.Task{
				{Name: "dist", Prerequisites: []string{"distclean"}, Action: noopAction},
			},
			expectError: true,
			verifyError: func(t *testing.T, err error) {
				var unknownError tasks.UnknownPrerequisiteError
				require.ErrorAs(t, err, &unknownError)
				require.Equal(t, "dist", unknownError.TaskName)
				require.Equal(t, "distclean", unknownError.PrerequisiteName)
			},
		},
		{
			name: "self_prerequisite",
			descriptors: []tasks.Task{
				{Name: "clean", Prerequisites: []string{"clean"}, Action: noopAction},
			},
			expectError: true,
		},
		{
			name: "prerequisite_cycle",
			descriptors: []tasks.Task{
				{Name: "first", Prerequisites: []string{"second"}, Action: noopAction},
				{Name: "second", Prerequisites: []string{"first"}, Action: noopAction},
			},
			expectError: true,
			verifyError: func(t *testing.T, err error) {
				require.ErrorIs(t, err, tasks.ErrPrerequisiteCycle)
			},
		},
		{
			name: "valid_lifecycle_graph",
			descriptors: []tasks.Task{
				{Name: "clean", Action: noopAction},
				{Name: "install", Prerequisites: []string{"clean"}, Action: noopAction},
				{Name: "distclean", Prerequisites: []string{"clean"}, Action: noopAction},
				{Name: "dist", Prerequisites: []string{"distclean"}, Action: noopAction},
			},
			expectError: false,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(registrySubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			registry, registryError := tasks.NewRegistry(testCase.descriptors)
			if testCase.expectError {
				require.Error(testInstance, registryError)
				require.Nil(testInstance, registry)
				if testCase.verifyError != nil {
					testCase.verifyError(testInstance, registryError)
				}
				return
			}
			require.NoError(testInstance, registryError)
			require.NotNil(testInstance, registry)
		})
	}
}

func TestRegistryPreservesDeclarationOrder(testInstance *testing.T) {
	registry, registryError := tasks.NewRegistry([]tasks.Task{
		{Name: "clean", Action: noopAction},
		{Name: "install", Prerequisites: []string{"clean"}, Action: noopAction},
		{Name: "distclean", Prerequisites: []string{"clean"}, Action: noopAction},
		{Name: "dist", Prerequisites: []string{"distclean"}, Action: noopAction},
	})
	require.NoError(testInstance, registryError)
	require.Equal(testInstance, []string{"clean", "install", "distclean", "dist"}, registry.TaskNames())

	descriptor, exists := registry.Lookup("dist")
	require.True(testInstance, exists)
	require.Equal(testInstance, []string{"distclean"}, descriptor.Prerequisites)
}

func TestRegistryDeduplicatesPrerequisites(testInstance *testing.T) {
	registry, registryError := tasks.NewRegistry([]tasks.Task{
		{Name: "clean", Action: noopAction},
		{Name: "install", Prerequisites: []string{"clean", " clean ", ""}, Action: noopAction},
	})
	require.NoError(testInstance, registryError)

	descriptor, exists := registry.Lookup("install")
	require.True(testInstance, exists)
	require.Equal(testInstance, []string{"clean"}, descriptor.Prerequisites)
}
