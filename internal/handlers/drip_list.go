package handlers

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/providers/ethereum"
	"github.com/feral-file/drips-indexer/internal/store"
	"github.com/feral-file/drips-indexer/internal/store/schema"
)

// dripListSaltLookahead extends the salt search past the transfers recorded so far,
// since transfers to the same minter can be applied out of order
const dripListSaltLookahead = 16

// TokenIDCalculator computes NftDriver token ids on chain
type TokenIDCalculator interface {
	// CalcTokenIDWithSalt returns the token id minter gets when minting with salt
	CalcTokenIDWithSalt(ctx context.Context, minter common.Address, salt uint64, blockNumber uint64) (*big.Int, error)
}

// transferHandler creates drip lists and tracks their ownership and visibility
type transferHandler struct {
	threshold uint64
	tokens    TokenIDCalculator
}

func (h *transferHandler) handle(ctx context.Context, req *request) error {
	decoded, err := ethereum.DecodeTransfer(req.event.Log)
	if err != nil {
		return err
	}
	listID := domain.NewAccountID(decoded.TokenId).String()
	from, to := decoded.From.Hex(), decoded.To.Hex()
	visible := domain.IsDripListVisible(req.event.Log.BlockNumber, h.threshold, decoded.From)

	base, err := req.eventLog()
	if err != nil {
		return err
	}
	record := &schema.TransferEvent{
		EventLog: base,
		TokenID:  listID,
		From:     from,
		To:       to,
	}
	isNew, err := req.record(ctx, record)
	if err != nil {
		return err
	}

	if _, err := req.tx.LockDripList(ctx, listID); err != nil {
		if !errors.Is(err, domain.ErrDripListNotFound) {
			return err
		}
		isList, err := h.isDripList(ctx, req, decoded.TokenId)
		if err != nil {
			return err
		}
		if !isList {
			req.audit.Skipped("token is not a drip list")
			return nil
		}
	}

	list := &schema.DripList{
		ID:                   listID,
		Creator:              to,
		OwnerAddress:         to,
		PreviousOwnerAddress: from,
		OwnerAccountID:       domain.AddressAccountID(decoded.To).String(),
		IsVisible:            visible,
		IsValid:              true,
	}
	created, err := req.tx.FindOrCreateDripList(ctx, list)
	if err != nil {
		return err
	}
	req.audit.FoundOrCreated(schema.SubjectTypeDripList, listID, created, map[string]interface{}{
		"creator":                to,
		"owner_address":          to,
		"previous_owner_address": from,
		"owner_account_id":       list.OwnerAccountID,
		"is_visible":             visible,
	})
	if created {
		return nil
	}
	if !isNew {
		req.audit.Skipped(skipAlreadyProcessed)
		return nil
	}

	fields := map[string]interface{}{}
	// the mint names the creator whatever order transfers arrive in
	if domain.IsMint(decoded.From) && list.Creator != to {
		fields["creator"] = to
	}

	newest, err := req.isNewest(ctx, record, store.Scope{"token_id": listID}, schema.SubjectTypeDripList, listID)
	if err != nil {
		return err
	}
	if newest {
		fields["owner_address"] = to
		fields["previous_owner_address"] = from
		fields["owner_account_id"] = domain.AddressAccountID(decoded.To).String()
		fields["is_visible"] = visible
	}
	if len(fields) == 0 {
		return nil
	}

	if err := req.tx.UpdateDripList(ctx, listID, fields); err != nil {
		return err
	}
	req.audit.Updated(schema.SubjectTypeDripList, listID, fields)
	return nil
}

// isDripList reports whether an NftDriver token was minted with one of the salts the Drips app
// derives for drip lists. The token id carries its minter and salt, the chain confirms the pair.
func (h *transferHandler) isDripList(ctx context.Context, req *request, tokenID *big.Int) (bool, error) {
	minter := domain.NftTokenMinter(tokenID)
	salt := domain.NftTokenSalt(tokenID)

	received, err := req.tx.CountTransfersTo(ctx, minter.Hex())
	if err != nil {
		return false, err
	}

	for index := uint64(0); index <= received+dripListSaltLookahead; index++ {
		if domain.DripListSalt(minter, index) != salt {
			continue
		}
		onChain, err := h.tokens.CalcTokenIDWithSalt(ctx, minter, salt, req.event.Log.BlockNumber)
		if err != nil {
			return false, err
		}
		return onChain.Cmp(tokenID) == 0, nil
	}
	return false, nil
}
