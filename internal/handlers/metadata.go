package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/datatypes"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/metadata"
	"github.com/feral-file/drips-indexer/internal/providers/ethereum"
	"github.com/feral-file/drips-indexer/internal/splits"
	"github.com/feral-file/drips-indexer/internal/store"
	"github.com/feral-file/drips-indexer/internal/store/schema"
)

// accountMetadataEmittedHandler applies IPFS metadata to git projects and drip lists
type accountMetadataEmittedHandler struct {
	fetcher   metadata.Fetcher
	validator splits.Validator
	json      adapter.JSON
}

// typedReceiver is a declared receiver with the edge type it is stored as
type typedReceiver struct {
	metadata.Receiver
	edgeType domain.SplitReceiverType
}

func (h *accountMetadataEmittedHandler) handle(ctx context.Context, req *request) error {
	decoded, err := ethereum.DecodeAccountMetadataEmitted(req.event.Log)
	if err != nil {
		return err
	}
	accountID := domain.NewAccountID(decoded.AccountId)
	key := decoded.KeyString()
	ipfsHash := sanitizeText(decoded.Value)

	base, err := req.eventLog()
	if err != nil {
		return err
	}
	record := &schema.AccountMetadataEmittedEvent{
		EventLog:  base,
		AccountID: accountID.String(),
		Key:       sanitizeText([]byte(key)),
		Value:     ipfsHash,
	}
	isNew, err := req.record(ctx, record)
	if err != nil {
		return err
	}
	if !isNew {
		req.audit.Skipped(skipAlreadyProcessed)
		return nil
	}
	if key != domain.METADATA_KEY_IPFS {
		req.audit.Skipped(fmt.Sprintf("metadata key %q is not handled", record.Key))
		return nil
	}

	driver, err := accountID.Driver()
	if err != nil {
		return err
	}

	// the aggregate is locked before the ordering check, so a concurrent older event
	// waits here and then sees this one as committed
	scope := store.Scope{"account_id": accountID.String(), "key": record.Key}
	switch driver {
	case domain.DriverRepo:
		project, err := req.tx.LockGitProject(ctx, accountID.String())
		if err != nil {
			return err
		}
		req.audit.FoundOrCreated(schema.SubjectTypeGitProject, project.ID, false, nil)

		newest, err := req.isNewest(ctx, record, scope, schema.SubjectTypeGitProject, project.ID)
		if err != nil || !newest {
			return err
		}
		return h.applyProjectMetadata(ctx, req, accountID, project, ipfsHash)
	case domain.DriverNft:
		list, err := req.tx.LockDripList(ctx, accountID.String())
		if err != nil {
			return err
		}
		req.audit.FoundOrCreated(schema.SubjectTypeDripList, list.ID, false, nil)

		newest, err := req.isNewest(ctx, record, scope, schema.SubjectTypeDripList, list.ID)
		if err != nil || !newest {
			return err
		}
		return h.applyDripListMetadata(ctx, req, accountID, list, ipfsHash)
	default:
		req.audit.Skipped(fmt.Sprintf("metadata of %s driver accounts is not handled", driver))
		return nil
	}
}

func (h *accountMetadataEmittedHandler) applyProjectMetadata(ctx context.Context, req *request, accountID domain.AccountID, project *schema.GitProject, ipfsHash string) error {
	projectID := project.ID
	fields := map[string]interface{}{
		"last_metadata_ipfs_hash": ipfsHash,
	}

	meta, err := h.fetcher.FetchProjectMetadata(ctx, ipfsHash)
	if err == nil && meta.Describes.AccountID != projectID {
		err = fmt.Errorf("%w: describes account %s", metadata.ErrInvalidMetadata, meta.Describes.AccountID)
	}
	if err != nil {
		if !errors.Is(err, metadata.ErrInvalidMetadata) {
			return err
		}
		req.audit.Validated(schema.SubjectTypeGitProject, projectID, false, err.Error())
		fields["is_valid"] = false
		return h.updateProject(ctx, req, projectID, fields, false)
	}

	fields["emoji"] = meta.Emoji
	fields["color"] = meta.Color
	fields["description"] = meta.Description

	receivers := make([]typedReceiver, 0, len(meta.Maintainers)+len(meta.Dependencies))
	for _, r := range meta.Maintainers {
		receivers = append(receivers, typedReceiver{Receiver: r, edgeType: domain.SplitReceiverProjectMaintainer})
	}
	for _, r := range meta.Dependencies {
		receivers = append(receivers, typedReceiver{Receiver: r, edgeType: domain.SplitReceiverProjectDependency})
	}

	valid, err := h.applySplits(ctx, req, accountID, store.Funder{Kind: store.FunderProject, ID: projectID}, schema.SubjectTypeGitProject, receivers, fields)
	if err != nil {
		return err
	}
	return h.updateProject(ctx, req, projectID, fields, valid)
}

func (h *accountMetadataEmittedHandler) updateProject(ctx context.Context, req *request, projectID string, fields map[string]interface{}, valid bool) error {
	status, err := projectStatus(ctx, req.tx, projectID, valid)
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

func (h *accountMetadataEmittedHandler) applyDripListMetadata(ctx context.Context, req *request, accountID domain.AccountID, list *schema.DripList, ipfsHash string) error {
	listID := list.ID

	fields := map[string]interface{}{
		"last_metadata_ipfs_hash": ipfsHash,
	}

	meta, err := h.fetcher.FetchDripListMetadata(ctx, ipfsHash)
	if err == nil && meta.Describes.AccountID != listID {
		err = fmt.Errorf("%w: describes account %s", metadata.ErrInvalidMetadata, meta.Describes.AccountID)
	}
	if err != nil {
		if !errors.Is(err, metadata.ErrInvalidMetadata) {
			return err
		}
		req.audit.Validated(schema.SubjectTypeDripList, listID, false, err.Error())
		fields["is_valid"] = false
		return h.updateDripList(ctx, req, listID, fields)
	}

	fields["name"] = meta.Name
	fields["description"] = meta.Description

	receivers := make([]typedReceiver, 0, len(meta.Receivers))
	for _, r := range meta.Receivers {
		receivers = append(receivers, typedReceiver{Receiver: r, edgeType: domain.SplitReceiverDripListDependency})
	}

	if _, err := h.applySplits(ctx, req, accountID, store.Funder{Kind: store.FunderDripList, ID: listID}, schema.SubjectTypeDripList, receivers, fields); err != nil {
		return err
	}
	return h.updateDripList(ctx, req, listID, fields)
}

func (h *accountMetadataEmittedHandler) updateDripList(ctx context.Context, req *request, listID string, fields map[string]interface{}) error {
	if err := req.tx.UpdateDripList(ctx, listID, fields); err != nil {
		return err
	}
	req.audit.Updated(schema.SubjectTypeDripList, listID, fields)
	return nil
}

// applySplits validates the declared receivers against the chain at the event's block.
// Canonical splits and validity are added to fields. Receiver rows are only rebuilt when valid.
func (h *accountMetadataEmittedHandler) applySplits(
	ctx context.Context,
	req *request,
	accountID domain.AccountID,
	funder store.Funder,
	subjectType schema.SubjectType,
	receivers []typedReceiver,
	fields map[string]interface{},
) (bool, error) {
	declared := make([]domain.SplitReceiver, 0, len(receivers))
	for _, r := range receivers {
		declared = append(declared, r.SplitReceiver())
	}

	result, err := h.validator.Validate(ctx, accountID, declared, req.event.Log.BlockNumber)
	if err != nil {
		return false, err
	}
	req.audit.Validated(subjectType, funder.ID, result.Valid, result.Reason)

	splitsJSON, err := h.json.MarshalCanonical(result.Receivers)
	if err != nil {
		return false, fmt.Errorf("failed to marshal splits: %w", err)
	}
	fields["splits_json"] = datatypes.JSON(splitsJSON)
	fields["is_valid"] = result.Valid

	if !result.Valid {
		return false, nil
	}

	edges, err := h.buildReceivers(ctx, req, receivers)
	if err != nil {
		return false, err
	}
	if err := req.tx.ReplaceSplitReceivers(ctx, funder, edges); err != nil {
		return false, err
	}
	req.audit.Replaced(funder.ID, edges.Len())
	return true, nil
}

// buildReceivers turns declared receivers into receiver rows, following the same
// weight and duplicate rules as splits.Canonicalize. Unknown fundee projects are created unclaimed.
func (h *accountMetadataEmittedHandler) buildReceivers(ctx context.Context, req *request, receivers []typedReceiver) (*store.SplitReceivers, error) {
	type edgeKey struct {
		accountID string
		weight    int64
	}
	seen := make(map[edgeKey]bool, len(receivers))

	edges := &store.SplitReceivers{}
	for _, r := range receivers {
		if r.Weight <= 0 {
			continue
		}
		id, err := domain.ParseAccountID(r.AccountID)
		if err != nil {
			return nil, err
		}
		k := edgeKey{accountID: id.String(), weight: r.Weight}
		if seen[k] {
			continue
		}
		seen[k] = true

		switch r.Type {
		case metadata.ReceiverTypeAddress:
			n, err := id.Big()
			if err != nil {
				return nil, err
			}
			edges.Addresses = append(edges.Addresses, schema.AddressDriverSplitReceiver{
				FundeeAccountID:      id.String(),
				FundeeAccountAddress: common.BigToAddress(n).Hex(),
				Weight:               r.Weight,
				Type:                 string(r.edgeType),
			})
		case metadata.ReceiverTypeRepoDriver:
			if err := h.ensureFundeeProject(ctx, req, id, r.Source); err != nil {
				return nil, err
			}
			edges.Projects = append(edges.Projects, schema.RepoDriverSplitReceiver{
				FundeeProjectID: id.String(),
				Weight:          r.Weight,
				Type:            string(r.edgeType),
			})
		case metadata.ReceiverTypeDripList:
			edges.DripLists = append(edges.DripLists, schema.DripListSplitReceiver{
				FundeeDripListID: id.String(),
				Weight:           r.Weight,
				Type:             string(r.edgeType),
			})
		default:
			return nil, fmt.Errorf("%w: receiver type %q", domain.ErrInvariantViolation, r.Type)
		}
	}
	return edges, nil
}

// ensureFundeeProject creates an unclaimed git project for a dependency that was never claimed
func (h *accountMetadataEmittedHandler) ensureFundeeProject(ctx context.Context, req *request, id domain.AccountID, source *metadata.Source) error {
	project := &schema.GitProject{
		ID:                 id.String(),
		VerificationStatus: string(domain.ProjectStatusUnclaimed),
		IsValid:            true,
	}
	if source != nil {
		project.Forge = string(source.DomainForge())
		project.OwnerName = source.OwnerName
		project.RepoName = source.RepoName
		project.Name = fmt.Sprintf("%s/%s", source.OwnerName, source.RepoName)
		project.URL = source.URL
	}

	created, err := req.tx.FindOrCreateGitProject(ctx, project)
	if err != nil {
		return err
	}
	req.audit.FoundOrCreated(schema.SubjectTypeGitProject, project.ID, created, map[string]interface{}{
		"name":                project.Name,
		"forge":               project.Forge,
		"url":                 project.URL,
		"verification_status": project.VerificationStatus,
	})
	return nil
}
