package handlers

import (
	"context"

	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/providers/ethereum"
	"github.com/feral-file/drips-indexer/internal/store/schema"
)

// givenHandler only records Given logs, they feed no aggregate
type givenHandler struct{}

func (h *givenHandler) handle(ctx context.Context, req *request) error {
	decoded, err := ethereum.DecodeGiven(req.event.Log)
	if err != nil {
		return err
	}

	base, err := req.eventLog()
	if err != nil {
		return err
	}
	record := &schema.GivenEvent{
		EventLog:  base,
		AccountID: domain.NewAccountID(decoded.AccountId).String(),
		Receiver:  domain.NewAccountID(decoded.Receiver).String(),
		Erc20:     decoded.Erc20.Hex(),
		Amt:       decoded.Amt.String(),
	}
	isNew, err := req.record(ctx, record)
	if err != nil {
		return err
	}
	if !isNew {
		req.audit.Skipped(skipAlreadyProcessed)
	}
	return nil
}
