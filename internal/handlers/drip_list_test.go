package handlers_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/handlers"
	mockspkg "github.com/feral-file/drips-indexer/internal/mocks"
	"github.com/feral-file/drips-indexer/internal/store"
)

var (
	zeroAddress = common.HexToAddress(domain.ETHEREUM_ZERO_ADDRESS)
	alice       = common.HexToAddress("0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa")
	bob         = common.HexToAddress("0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB")
)

func TestTransfer_MintCreatesDripList(t *testing.T) {
	tm := setupTestDispatcher(t)
	ctx := context.Background()
	listID := dripListID(alice, 0)

	require.NoError(t, tm.dispatcher.Dispatch(ctx, transfer(50, 0, zeroAddress, alice, listID)))

	list, err := tm.store.GetDripList(ctx, listID.String())
	require.NoError(t, err)
	assert.Equal(t, alice.Hex(), list.Creator)
	assert.Equal(t, alice.Hex(), list.OwnerAddress)
	assert.Equal(t, zeroAddress.Hex(), list.PreviousOwnerAddress)
	assert.Equal(t, domain.AddressAccountID(alice).String(), list.OwnerAccountID)
	assert.True(t, list.IsVisible)
	assert.True(t, list.IsValid)
}

func TestTransfer_VisibilityThreshold(t *testing.T) {
	tests := []struct {
		name    string
		block   uint64
		from    common.Address
		visible bool
	}{
		{name: "mint after threshold", block: visibilityThreshold + 1, from: zeroAddress, visible: true},
		{name: "transfer after threshold", block: visibilityThreshold + 1, from: alice, visible: false},
		{name: "transfer at threshold", block: visibilityThreshold, from: alice, visible: true},
		{name: "transfer before threshold", block: visibilityThreshold - 1, from: alice, visible: true},
		{name: "mint before threshold", block: visibilityThreshold - 1, from: zeroAddress, visible: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestDispatcher(t)
			ctx := context.Background()
			listID := dripListID(alice, 0)

			require.NoError(t, tm.dispatcher.Dispatch(ctx, transfer(tt.block, 0, tt.from, bob, listID)))

			list, err := tm.store.GetDripList(ctx, listID.String())
			require.NoError(t, err)
			assert.Equal(t, tt.visible, list.IsVisible)
		})
	}
}

func TestTransfer_NewestTransferOwns(t *testing.T) {
	listID := dripListID(alice, 0)
	mint := transfer(10, 0, zeroAddress, alice, listID)
	move := transfer(visibilityThreshold+5, 3, alice, bob, listID)

	for name, order := range map[string][]*domain.DripsEvent{
		"in order": {mint, move},
		"reversed": {move, mint},
	} {
		t.Run(name, func(t *testing.T) {
			tm := setupTestDispatcher(t)
			ctx := context.Background()

			for _, event := range order {
				require.NoError(t, tm.dispatcher.Dispatch(ctx, event))
			}

			list, err := tm.store.GetDripList(ctx, listID.String())
			require.NoError(t, err)
			assert.Equal(t, alice.Hex(), list.Creator)
			assert.Equal(t, bob.Hex(), list.OwnerAddress)
			assert.Equal(t, alice.Hex(), list.PreviousOwnerAddress)
			assert.Equal(t, domain.AddressAccountID(bob).String(), list.OwnerAccountID)
			assert.False(t, list.IsVisible)
			assert.Equal(t, int64(2), countRows(t, "transfer_events"))
		})
	}
}

func TestTransfer_Idempotent(t *testing.T) {
	tm := setupTestDispatcher(t)
	ctx := context.Background()
	listID := dripListID(alice, 0)

	require.NoError(t, tm.dispatcher.Dispatch(ctx, transfer(10, 0, zeroAddress, alice, listID)))
	require.NoError(t, tm.dispatcher.Dispatch(ctx, transfer(20, 0, alice, bob, listID)))
	before, err := tm.store.GetDripList(ctx, listID.String())
	require.NoError(t, err)

	// redelivering both transfers changes nothing
	require.NoError(t, tm.dispatcher.Dispatch(ctx, transfer(10, 0, zeroAddress, alice, listID)))
	require.NoError(t, tm.dispatcher.Dispatch(ctx, transfer(20, 0, alice, bob, listID)))
	after, err := tm.store.GetDripList(ctx, listID.String())
	require.NoError(t, err)

	assert.Equal(t, before, after)
	assert.Equal(t, int64(2), countRows(t, "transfer_events"))
	assert.Equal(t, int64(1), countRows(t, "drip_lists"))
}

func TestTransfer_EqualKeyIsNotNewer(t *testing.T) {
	tm := setupTestDispatcher(t)
	ctx := context.Background()
	listID := dripListID(alice, 0)

	require.NoError(t, tm.dispatcher.Dispatch(ctx, transfer(10, 0, zeroAddress, alice, listID)))

	// the same ordering key under a different transaction hash is a distinct log but not newer
	replay := transfer(10, 0, alice, bob, listID)
	replay.Log.TxHash = common.HexToHash("0xfeed")
	require.NoError(t, tm.dispatcher.Dispatch(ctx, replay))

	list, err := tm.store.GetDripList(ctx, listID.String())
	require.NoError(t, err)
	assert.Equal(t, alice.Hex(), list.OwnerAddress)
}

func TestTransfer_NonDripListTokenIsSkipped(t *testing.T) {
	tm := setupTestDispatcher(t)
	ctx := context.Background()

	// minted by alice with a salt the app never derives
	tokenID := nftTokenID(alice, 42)
	require.NoError(t, tm.dispatcher.Dispatch(ctx, transfer(10, 0, zeroAddress, alice, tokenID)))

	_, err := tm.store.GetDripList(ctx, tokenID.String())
	assert.ErrorIs(t, err, domain.ErrDripListNotFound)
	assert.Equal(t, int64(1), countRows(t, "transfer_events"))
	assert.Zero(t, countRows(t, "drip_lists"))
}

func TestTransfer_LaterDripListOfMinter(t *testing.T) {
	tm := setupTestDispatcher(t)
	ctx := context.Background()

	// the third list is applied before the transfers of the first two
	listID := dripListID(alice, 2)
	require.NoError(t, tm.dispatcher.Dispatch(ctx, transfer(30, 0, zeroAddress, alice, listID)))

	list, err := tm.store.GetDripList(ctx, listID.String())
	require.NoError(t, err)
	assert.Equal(t, alice.Hex(), list.OwnerAddress)
}

func TestTransfer_ChainConfirmsDripList(t *testing.T) {
	listID := dripListID(alice, 0)

	newDispatcher := func(t *testing.T, tokenID *big.Int, callErr error) handlers.Dispatcher {
		require.NoError(t, testPG.Truncate())

		ctrl := gomock.NewController(t)
		chain := mockspkg.NewMockEthereumClient(ctrl)
		chain.EXPECT().
			BlockTimestamp(gomock.Any(), gomock.Any()).
			Return(time.Unix(120, 0).UTC(), nil).
			AnyTimes()
		chain.EXPECT().
			CalcTokenIDWithSalt(gomock.Any(), alice, domain.NftTokenSalt(listID), uint64(10)).
			Return(tokenID, callErr)

		return handlers.NewDispatcher(
			store.NewPGStore(testPG.DB),
			chain,
			chain,
			mockspkg.NewMockMetadataFetcher(ctrl),
			mockspkg.NewMockSplitsValidator(ctrl),
			adapter.NewClock(),
			adapter.NewJSON(),
			handlers.Config{VisibilityThresholdBlock: visibilityThreshold},
		)
	}

	t.Run("different token id", func(t *testing.T) {
		dispatcher := newDispatcher(t, nftTokenID(bob, 1), nil)

		require.NoError(t, dispatcher.Dispatch(context.Background(), transfer(10, 0, zeroAddress, alice, listID)))
		assert.Zero(t, countRows(t, "drip_lists"))
	})

	t.Run("call failure", func(t *testing.T) {
		dispatcher := newDispatcher(t, nil, errors.New("execution reverted"))

		err := dispatcher.Dispatch(context.Background(), transfer(10, 0, zeroAddress, alice, listID))
		assert.Error(t, err)
		assert.Zero(t, countRows(t, "drip_lists"))
		assert.Zero(t, countRows(t, "transfer_events"))
	})
}

func TestTransfer_ConcurrentTransfersApplyNewest(t *testing.T) {
	listID := dripListID(alice, 0)
	mint := transfer(10, 0, zeroAddress, alice, listID)
	move := transfer(visibilityThreshold+5, 3, alice, bob, listID)

	for name, order := range map[string][]*domain.DripsEvent{
		"in order": {mint, move},
		"reversed": {move, mint},
	} {
		t.Run(name, func(t *testing.T) {
			tm := setupTestDispatcher(t)
			ctx := context.Background()

			dispatchConcurrently(t, tm.dispatcher, order...)

			list, err := tm.store.GetDripList(ctx, listID.String())
			require.NoError(t, err)
			assert.Equal(t, alice.Hex(), list.Creator)
			assert.Equal(t, bob.Hex(), list.OwnerAddress)
			assert.Equal(t, alice.Hex(), list.PreviousOwnerAddress)
			assert.False(t, list.IsVisible)
			assert.Equal(t, int64(1), countRows(t, "drip_lists"))
		})
	}
}
