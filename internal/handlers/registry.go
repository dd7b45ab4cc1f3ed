package handlers

import (
	"fmt"

	"github.com/feral-file/drips-indexer/internal/domain"
)

// handlerFor maps a signature to its handler. The switch covers every registered signature.
func (d *dispatcher) handlerFor(sig domain.EventSignature) (eventHandler, error) {
	switch sig {
	case domain.SignatureOwnerUpdateRequested:
		return &ownerUpdateRequestedHandler{}, nil
	case domain.SignatureOwnerUpdated:
		return &ownerUpdatedHandler{}, nil
	case domain.SignatureAccountMetadataEmitted:
		return &accountMetadataEmittedHandler{
			fetcher:   d.fetcher,
			validator: d.validator,
			json:      d.json,
		}, nil
	case domain.SignatureTransfer:
		return &transferHandler{
			threshold: d.config.VisibilityThresholdBlock,
			tokens:    d.tokens,
		}, nil
	case domain.SignatureGiven:
		return &givenHandler{}, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEventSignature, sig)
}
