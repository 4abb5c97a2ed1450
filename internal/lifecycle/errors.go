package lifecycle

import "fmt"

const (
	installFailureTemplateConstant         = "install failed: %v"
	packagingFailureTemplateConstant       = "packaging failed: %v"
	missingArtifactTemplateConstant        = "manifest entry %q does not exist in the source tree"
	missingArtifactWithCauseTemplateFormat = "manifest entry %q is not readable: %v"
)

// InstallError reports a failed installation collaborator invocation.
type InstallError struct {
	Cause error
}

// Error implements the error interface.
func (errorDetails InstallError) Error() string {
	return fmt.Sprintf(installFailureTemplateConstant, errorDetails.Cause)
}

// Unwrap exposes the collaborator failure verbatim.
func (errorDetails InstallError) Unwrap() error {
	return errorDetails.Cause
}

// PackagingError reports a failed archiving collaborator invocation.
type PackagingError struct {
	Cause error
}

// Error implements the error interface.
func (errorDetails PackagingError) Error() string {
	return fmt.Sprintf(packagingFailureTemplateConstant, errorDetails.Cause)
}

// Unwrap exposes the collaborator failure verbatim.
func (errorDetails PackagingError) Unwrap() error {
	return errorDetails.Cause
}

// MissingArtifactError indicates a manifest entry without a matching source file.
type MissingArtifactError struct {
	ArtifactName string
	Cause        error
}

// Error implements the error interface.
func (errorDetails MissingArtifactError) Error() string {
	if errorDetails.Cause == nil {
		return fmt.Sprintf(missingArtifactTemplateConstant, errorDetails.ArtifactName)
	}
	return fmt.Sprintf(missingArtifactWithCauseTemplateFormat, errorDetails.ArtifactName, errorDetails.Cause)
}

// Unwrap exposes the underlying filesystem error when present.
func (errorDetails MissingArtifactError) Unwrap() error {
	return errorDetails.Cause
}
