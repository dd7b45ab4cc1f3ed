package domain

import (
	"fmt"
	"strings"
)

// Forge is the source-code host a git project lives on
type Forge string

const (
	ForgeGitHub Forge = "GitHub"
	ForgeGitLab Forge = "GitLab"
)

// ForgeFromUint8 maps the RepoDriver forge enum to a Forge
func ForgeFromUint8(v uint8) (Forge, error) {
	switch v {
	case 0:
		return ForgeGitHub, nil
	case 1:
		return ForgeGitLab, nil
	}
	return "", fmt.Errorf("%w: unsupported forge %d", ErrInvariantViolation, v)
}

func (f Forge) baseURL() string {
	switch f {
	case ForgeGitLab:
		return "https://gitlab.com"
	default:
		return "https://github.com"
	}
}

// ProjectVerificationStatus is the claim state of a git project
type ProjectVerificationStatus string

const (
	ProjectStatusUnclaimed            ProjectVerificationStatus = "Unclaimed"
	ProjectStatusOwnerUpdateRequested ProjectVerificationStatus = "OwnerUpdateRequested"
	ProjectStatusOwnerUpdated         ProjectVerificationStatus = "OwnerUpdated"
	ProjectStatusClaimed              ProjectVerificationStatus = "Claimed"
)

// ProjectStatusInput holds the facts the verification status is derived from
type ProjectStatusInput struct {
	// LatestRequest is the newest OwnerUpdateRequested key for the project, nil if none
	LatestRequest *OrderingKey
	// LatestConfirmation is the newest OwnerUpdated key for the project, nil if none
	LatestConfirmation *OrderingKey
	// HasValidMetadata is true once metadata matching the on-chain splits was applied
	HasValidMetadata bool
}

// OwnerConfirmed reports whether an owner has been confirmed on-chain
func (in ProjectStatusInput) OwnerConfirmed() bool {
	return in.LatestConfirmation != nil
}

// RequestOutstanding reports whether the newest request has not been answered by a later confirmation
func (in ProjectStatusInput) RequestOutstanding() bool {
	if in.LatestRequest == nil {
		return false
	}
	if in.LatestConfirmation == nil {
		return true
	}
	return in.LatestRequest.After(*in.LatestConfirmation)
}

// DeriveProjectStatus computes the verification status. It is never set directly.
func DeriveProjectStatus(in ProjectStatusInput) ProjectVerificationStatus {
	switch {
	case in.RequestOutstanding():
		return ProjectStatusOwnerUpdateRequested
	case in.OwnerConfirmed() && in.HasValidMetadata:
		return ProjectStatusClaimed
	case in.OwnerConfirmed():
		return ProjectStatusOwnerUpdated
	}
	return ProjectStatusUnclaimed
}

// ProjectSource describes where a project's repository lives
type ProjectSource struct {
	Forge     Forge
	OwnerName string
	RepoName  string
	URL       string
}

// ParseProjectName splits "owner/repo" into a source descriptor
func ParseProjectName(forge Forge, name string) (ProjectSource, error) {
	owner, repo, ok := strings.Cut(name, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return ProjectSource{}, fmt.Errorf("%w: project name %q", ErrInvalidProjectName, name)
	}
	return ProjectSource{
		Forge:     forge,
		OwnerName: owner,
		RepoName:  repo,
		URL:       fmt.Sprintf("%s/%s/%s", forge.baseURL(), owner, repo),
	}, nil
}
