package uri

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/logger"
)

// ErrInvalidCID is returned when an IPFS reference has no usable CID
var ErrInvalidCID = errors.New("invalid ipfs cid")

// Config holds configuration for the URI resolver
type Config struct {
	// IPFSGateways is the list of IPFS gateways to try, without trailing slash
	IPFSGateways []string
}

// Resolver defines the interface for resolving IPFS references to gateway URLs
//
//go:generate mockgen -source=resolver.go -destination=../mocks/uri_resolver.go -package=mocks -mock_names=Resolver=MockURIResolver
type Resolver interface {
	// Resolve returns the URL of the first gateway that serves the referenced content.
	// ref may be a bare CID, an ipfs:// URI or a gateway URL containing /ipfs/.
	Resolve(ctx context.Context, ref string) (string, error)
}

type resolver struct {
	httpClient adapter.HTTPClient
	config     *Config
}

func NewResolver(httpClient adapter.HTTPClient, config *Config) Resolver {
	return &resolver{
		httpClient: httpClient,
		config:     config,
	}
}

// CID extracts the content path from an IPFS reference
func CID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if rest, ok := strings.CutPrefix(ref, "ipfs://"); ok {
		ref = strings.TrimPrefix(rest, "ipfs/")
	} else if _, rest, ok := strings.Cut(ref, "/ipfs/"); ok {
		ref = rest
	}

	ref = strings.Trim(ref, "/")
	if ref == "" || strings.ContainsAny(ref, " ?#") {
		return "", fmt.Errorf("%w: %q", ErrInvalidCID, ref)
	}
	return ref, nil
}

func (r *resolver) Resolve(ctx context.Context, ref string) (string, error) {
	cid, err := CID(ref)
	if err != nil {
		return "", err
	}
	if len(r.config.IPFSGateways) == 0 {
		return "", fmt.Errorf("no IPFS gateways configured")
	}

	logger.DebugCtx(ctx, "Resolving IPFS CID", zap.String("cid", cid), zap.Int("gateways", len(r.config.IPFSGateways)))

	// Try all gateways in parallel
	type result struct {
		url string
		err error
	}

	resultCh := make(chan result, len(r.config.IPFSGateways))
	var wg sync.WaitGroup

	for _, gateway := range r.config.IPFSGateways {
		wg.Add(1)
		go func(gw string) {
			defer wg.Done()

			url := fmt.Sprintf("%s/ipfs/%s", strings.TrimRight(gw, "/"), cid)
			status, err := r.httpClient.Head(ctx, url)
			if err != nil {
				resultCh <- result{err: err}
				return
			}
			if status == http.StatusOK {
				resultCh <- result{url: url}
			} else {
				resultCh <- result{err: fmt.Errorf("gateway returned status %d", status)}
			}
		}(gateway)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Return the first successful result
	var errs []error
	for res := range resultCh {
		if res.err == nil {
			logger.DebugCtx(ctx, "Found working IPFS gateway", zap.String("url", res.url))
			return res.url, nil
		}
		errs = append(errs, res.err)
	}

	return "", fmt.Errorf("no working IPFS gateway found for CID %s: %w", cid, errors.Join(errs...))
}
