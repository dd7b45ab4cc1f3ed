package handlers

import (
	"context"

	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/providers/ethereum"
	"github.com/feral-file/drips-indexer/internal/store"
	"github.com/feral-file/drips-indexer/internal/store/schema"
)

// ownerUpdateRequestedHandler creates git projects and tracks their requested name and forge
type ownerUpdateRequestedHandler struct{}

func (h *ownerUpdateRequestedHandler) handle(ctx context.Context, req *request) error {
	decoded, err := ethereum.DecodeOwnerUpdateRequested(req.event.Log)
	if err != nil {
		return err
	}

	forge, err := domain.ForgeFromUint8(decoded.Forge)
	if err != nil {
		return err
	}
	name := sanitizeText(decoded.Name)
	projectID := domain.NewAccountID(decoded.AccountId).String()

	base, err := req.eventLog()
	if err != nil {
		return err
	}
	record := &schema.OwnerUpdateRequestedEvent{
		EventLog:  base,
		AccountID: projectID,
		Forge:     string(forge),
		Name:      name,
	}
	isNew, err := req.record(ctx, record)
	if err != nil {
		return err
	}

	// a name that is not owner/repo still names the project, its source columns stay empty
	source, err := domain.ParseProjectName(forge, name)
	if err != nil {
		req.audit.Unparsed(schema.SubjectTypeGitProject, projectID, "name", err.Error())
	}

	fields := map[string]interface{}{
		"name":       name,
		"forge":      string(forge),
		"owner_name": source.OwnerName,
		"repo_name":  source.RepoName,
		"url":        source.URL,
	}
	project := &schema.GitProject{
		ID:                 projectID,
		Name:               name,
		Forge:              string(forge),
		OwnerName:          source.OwnerName,
		RepoName:           source.RepoName,
		URL:                source.URL,
		VerificationStatus: string(domain.ProjectStatusOwnerUpdateRequested),
		IsValid:            true,
	}
	created, err := req.tx.FindOrCreateGitProject(ctx, project)
	if err != nil {
		return err
	}
	req.audit.FoundOrCreated(schema.SubjectTypeGitProject, projectID, created, fields)
	if created {
		return nil
	}
	if !isNew {
		req.audit.Skipped(skipAlreadyProcessed)
		return nil
	}

	newest, err := req.isNewest(ctx, record, store.Scope{"account_id": projectID}, schema.SubjectTypeGitProject, projectID)
	if err != nil || !newest {
		return err
	}

	status, err := projectStatus(ctx, req.tx, projectID, project.HasValidMetadata())
	if err != nil {
		return err
	}
	fields["verification_status"] = string(status)

	if err := req.tx.UpdateGitProject(ctx, projectID, fields); err != nil {
		return err
	}
	req.audit.Updated(schema.SubjectTypeGitProject, projectID, fields)
	return nil
}

// ownerUpdatedHandler confirms the owner of an existing git project
type ownerUpdatedHandler struct{}

func (h *ownerUpdatedHandler) handle(ctx context.Context, req *request) error {
	decoded, err := ethereum.DecodeOwnerUpdated(req.event.Log)
	if err != nil {
		return err
	}
	projectID := domain.NewAccountID(decoded.AccountId).String()

	base, err := req.eventLog()
	if err != nil {
		return err
	}
	record := &schema.OwnerUpdatedEvent{
		EventLog:  base,
		AccountID: projectID,
		Owner:     decoded.Owner.Hex(),
	}
	isNew, err := req.record(ctx, record)
	if err != nil {
		return err
	}

	project, err := req.tx.LockGitProject(ctx, projectID)
	if err != nil {
		return err
	}
	req.audit.FoundOrCreated(schema.SubjectTypeGitProject, projectID, false, nil)
	if !isNew {
		req.audit.Skipped(skipAlreadyProcessed)
		return nil
	}

	newest, err := req.isNewest(ctx, record, store.Scope{"account_id": projectID}, schema.SubjectTypeGitProject, projectID)
	if err != nil || !newest {
		return err
	}

	status, err := projectStatus(ctx, req.tx, projectID, project.HasValidMetadata())
	if err != nil {
		return err
	}
	fields := map[string]interface{}{
		"owner_address":       decoded.Owner.Hex(),
		"owner_account_id":    domain.AddressAccountID(decoded.Owner).String(),
		"verification_status": string(status),
	}

	if err := req.tx.UpdateGitProject(ctx, projectID, fields); err != nil {
		return err
	}
	req.audit.Updated(schema.SubjectTypeGitProject, projectID, fields)
	return nil
}
