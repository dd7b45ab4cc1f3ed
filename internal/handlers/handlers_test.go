package handlers_test

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/handlers"
	"github.com/feral-file/drips-indexer/internal/logger"
	mockspkg "github.com/feral-file/drips-indexer/internal/mocks"
	"github.com/feral-file/drips-indexer/internal/splits"
	"github.com/feral-file/drips-indexer/internal/store"
	"github.com/feral-file/drips-indexer/internal/testutil"
)

const visibilityThreshold = uint64(100)

var testPG *testutil.Postgres

func TestMain(m *testing.M) {
	ctx := context.Background()

	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	var err error
	testPG, err = testutil.StartPostgres(ctx)
	if err != nil {
		fmt.Printf("Failed to start test database: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	testPG.Terminate(ctx)
	os.Exit(code)
}

// testDispatcherMocks contains the dispatcher under test and its collaborators
type testDispatcherMocks struct {
	ctrl       *gomock.Controller
	chain      *mockspkg.MockEthereumClient
	fetcher    *mockspkg.MockMetadataFetcher
	validator  *mockspkg.MockSplitsValidator
	hashReader *mockspkg.MockSplitsHashReader
	store      store.Store
	dispatcher handlers.Dispatcher
}

// setupTestDispatcher empties the database and wires a dispatcher with a mocked validator
func setupTestDispatcher(t *testing.T) *testDispatcherMocks {
	return setup(t, false)
}

// setupTestDispatcherWithHashReader wires the real splits validator over a mocked chain reader
func setupTestDispatcherWithHashReader(t *testing.T) *testDispatcherMocks {
	return setup(t, true)
}

func setup(t *testing.T, realValidator bool) *testDispatcherMocks {
	require.NoError(t, testPG.Truncate())

	ctrl := gomock.NewController(t)
	tm := &testDispatcherMocks{
		ctrl:       ctrl,
		chain:      mockspkg.NewMockEthereumClient(ctrl),
		fetcher:    mockspkg.NewMockMetadataFetcher(ctrl),
		validator:  mockspkg.NewMockSplitsValidator(ctrl),
		hashReader: mockspkg.NewMockSplitsHashReader(ctrl),
		store:      store.NewPGStore(testPG.DB),
	}

	tm.chain.EXPECT().
		BlockTimestamp(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, block uint64) (time.Time, error) {
			return time.Unix(int64(block)*12, 0).UTC(), nil //nolint:gosec,G115
		}).
		AnyTimes()

	// salt-minted drip list ids are confirmed on chain
	tm.chain.EXPECT().
		CalcTokenIDWithSalt(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, minter common.Address, salt, _ uint64) (*big.Int, error) {
			return nftTokenID(minter, salt), nil
		}).
		AnyTimes()

	var validator splits.Validator = tm.validator
	if realValidator {
		validator = splits.NewValidator(tm.hashReader)
	}

	tm.dispatcher = handlers.NewDispatcher(
		tm.store,
		tm.chain,
		tm.chain,
		tm.fetcher,
		validator,
		adapter.NewClock(),
		adapter.NewJSON(),
		handlers.Config{VisibilityThresholdBlock: visibilityThreshold},
	)
	return tm
}

// =============================================================================
// Log builders
// =============================================================================

func mustType(name string) abi.Type {
	typ, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

var (
	uint8Type   = mustType("uint8")
	uint128Type = mustType("uint128")
	bytesType   = mustType("bytes")
	addressType = mustType("address")
)

func pack(t *testing.T, typs []abi.Type, values ...interface{}) []byte {
	t.Helper()
	args := make(abi.Arguments, 0, len(typs))
	for _, typ := range typs {
		args = append(args, abi.Argument{Type: typ})
	}
	data, err := args.Pack(values...)
	require.NoError(t, err)
	return data
}

// accountID builds an account id of the given driver
func accountID(driver domain.Driver, n int64) *big.Int {
	id := new(big.Int).Lsh(big.NewInt(int64(driver)), 224)
	return id.Add(id, big.NewInt(n))
}

// nftTokenID lays out an NftDriver token id as driver | minter | salt
func nftTokenID(minter common.Address, salt uint64) *big.Int {
	id := new(big.Int).Lsh(big.NewInt(int64(domain.DriverNft)), 224)
	id.Or(id, new(big.Int).Lsh(new(big.Int).SetBytes(minter.Bytes()), 64))
	return id.Or(id, new(big.Int).SetUint64(salt))
}

// dripListID is the token id of the index-th drip list minted by minter
func dripListID(minter common.Address, index uint64) *big.Int {
	return nftTokenID(minter, domain.DripListSalt(minter, index))
}

func newEvent(sig domain.EventSignature, block uint64, index uint, topics []common.Hash, data []byte) *domain.DripsEvent {
	return &domain.DripsEvent{
		Signature: sig,
		Log: types.Log{
			Address:     common.HexToAddress("0xd0Dd053392db676D57317CD4fe96Fc2cCf42D0b4"),
			Topics:      append([]common.Hash{sig.Topic()}, topics...),
			Data:        data,
			BlockNumber: block,
			TxHash:      crypto.Keccak256Hash([]byte(fmt.Sprintf("tx-%d-%d", block, index))),
			Index:       index,
		},
	}
}

func ownerUpdateRequested(t *testing.T, block uint64, index uint, projectID *big.Int, forge uint8, name string) *domain.DripsEvent {
	return newEvent(domain.SignatureOwnerUpdateRequested, block, index,
		[]common.Hash{common.BigToHash(projectID)},
		pack(t, []abi.Type{uint8Type, bytesType}, forge, []byte(name)))
}

func ownerUpdated(t *testing.T, block uint64, index uint, projectID *big.Int, owner common.Address) *domain.DripsEvent {
	return newEvent(domain.SignatureOwnerUpdated, block, index,
		[]common.Hash{common.BigToHash(projectID)},
		pack(t, []abi.Type{addressType}, owner))
}

func accountMetadataEmitted(t *testing.T, block uint64, index uint, id *big.Int, key, value string) *domain.DripsEvent {
	var keyTopic common.Hash
	copy(keyTopic[:], key)
	return newEvent(domain.SignatureAccountMetadataEmitted, block, index,
		[]common.Hash{common.BigToHash(id), keyTopic},
		pack(t, []abi.Type{bytesType}, []byte(value)))
}

func transfer(block uint64, index uint, from, to common.Address, tokenID *big.Int) *domain.DripsEvent {
	return newEvent(domain.SignatureTransfer, block, index,
		[]common.Hash{common.BytesToHash(from.Bytes()), common.BytesToHash(to.Bytes()), common.BigToHash(tokenID)},
		nil)
}

func given(t *testing.T, block uint64, index uint, id, receiver *big.Int, erc20 common.Address, amt *big.Int) *domain.DripsEvent {
	return newEvent(domain.SignatureGiven, block, index,
		[]common.Hash{common.BigToHash(id), common.BigToHash(receiver), common.BytesToHash(erc20.Bytes())},
		pack(t, []abi.Type{uint128Type}, amt))
}

// countRows counts the rows of a table
func countRows(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, testPG.DB.Table(table).Count(&n).Error)
	return n
}

// dispatchConcurrently dispatches each event from its own goroutine, starting them in the given order
func dispatchConcurrently(t *testing.T, dispatcher handlers.Dispatcher, events ...*domain.DripsEvent) {
	t.Helper()

	start := make(chan struct{})
	var g errgroup.Group
	for i, event := range events {
		delay := time.Duration(i) * 5 * time.Millisecond
		g.Go(func() error {
			<-start
			time.Sleep(delay)
			return dispatcher.Dispatch(context.Background(), event)
		})
	}
	close(start)
	require.NoError(t, g.Wait())
}
