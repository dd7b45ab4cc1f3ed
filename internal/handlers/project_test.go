package handlers_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/drips-indexer/internal/domain"
	"github.com/feral-file/drips-indexer/internal/store/schema"
)

var ownerAddress = common.HexToAddress("0x1111111111111111111111111111111111111111")

func TestOwnerUpdateRequested_CreatesProject(t *testing.T) {
	tm := setupTestDispatcher(t)
	ctx := context.Background()
	projectID := accountID(domain.DriverRepo, 1)

	require.NoError(t, tm.dispatcher.Dispatch(ctx, ownerUpdateRequested(t, 10, 0, projectID, 1, "drips-network/app")))

	project, err := tm.store.GetGitProject(ctx, projectID.String())
	require.NoError(t, err)
	assert.Equal(t, "drips-network/app", project.Name)
	assert.Equal(t, string(domain.ForgeGitLab), project.Forge)
	assert.Equal(t, "drips-network", project.OwnerName)
	assert.Equal(t, "app", project.RepoName)
	assert.Equal(t, "https://gitlab.com/drips-network/app", project.URL)
	assert.Equal(t, string(domain.ProjectStatusOwnerUpdateRequested), project.VerificationStatus)
	assert.True(t, project.IsValid)
	assert.Nil(t, project.OwnerAddress)

	var journal []schema.ChangesJournal
	require.NoError(t, testPG.DB.Order("\"cursor\"").Find(&journal).Error)
	require.Len(t, journal, 2)
	assert.Equal(t, schema.SubjectTypeEvent, journal[0].SubjectType)
	assert.Equal(t, schema.SubjectTypeGitProject, journal[1].SubjectType)
	assert.Equal(t, projectID.String(), journal[1].SubjectID)
	assert.Equal(t, journal[0].RequestID, journal[1].RequestID)
}

func TestOwnerUpdateRequested_Idempotent(t *testing.T) {
	tm := setupTestDispatcher(t)
	ctx := context.Background()
	projectID := accountID(domain.DriverRepo, 1)
	event := ownerUpdateRequested(t, 10, 0, projectID, 0, "drips-network/app")

	require.NoError(t, tm.dispatcher.Dispatch(ctx, event))
	before, err := tm.store.GetGitProject(ctx, projectID.String())
	require.NoError(t, err)
	journalBefore := countRows(t, "changes_journal")

	require.NoError(t, tm.dispatcher.Dispatch(ctx, event))
	after, err := tm.store.GetGitProject(ctx, projectID.String())
	require.NoError(t, err)

	assert.Equal(t, before, after)
	assert.Equal(t, int64(1), countRows(t, "owner_update_requested_events"))
	assert.Equal(t, journalBefore, countRows(t, "changes_journal"))
}

func TestOwnerUpdateRequested_StaleEventRejected(t *testing.T) {
	tm := setupTestDispatcher(t)
	ctx := context.Background()
	projectID := accountID(domain.DriverRepo, 1)

	require.NoError(t, tm.dispatcher.Dispatch(ctx, ownerUpdateRequested(t, 20, 0, projectID, 0, "drips-network/renamed")))
	require.NoError(t, tm.dispatcher.Dispatch(ctx, ownerUpdateRequested(t, 10, 0, projectID, 0, "drips-network/app")))

	project, err := tm.store.GetGitProject(ctx, projectID.String())
	require.NoError(t, err)
	assert.Equal(t, "drips-network/renamed", project.Name)
	assert.Equal(t, int64(2), countRows(t, "owner_update_requested_events"))
}

func TestOwnerUpdateRequested_NewerEventUpdates(t *testing.T) {
	tm := setupTestDispatcher(t)
	ctx := context.Background()
	projectID := accountID(domain.DriverRepo, 1)

	require.NoError(t, tm.dispatcher.Dispatch(ctx, ownerUpdateRequested(t, 10, 0, projectID, 0, "drips-network/app")))
	require.NoError(t, tm.dispatcher.Dispatch(ctx, ownerUpdateRequested(t, 10, 1, projectID, 1, "drips/app")))

	project, err := tm.store.GetGitProject(ctx, projectID.String())
	require.NoError(t, err)
	assert.Equal(t, "drips/app", project.Name)
	assert.Equal(t, string(domain.ForgeGitLab), project.Forge)
	assert.Equal(t, "https://gitlab.com/drips/app", project.URL)
}

func TestOwnerUpdateRequested_UnparsableNameIsStored(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "no slash", raw: "no-slash", expected: "no-slash"},
		{name: "nested path", raw: "a/b/c", expected: "a/b/c"},
		{name: "invalid utf-8", raw: "drips\xff", expected: "drips\uFFFD"},
		{name: "nul byte", raw: "drips\x00app", expected: "dripsapp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestDispatcher(t)
			ctx := context.Background()
			projectID := accountID(domain.DriverRepo, 1)

			require.NoError(t, tm.dispatcher.Dispatch(ctx, ownerUpdateRequested(t, 10, 0, projectID, 0, tt.raw)))

			project, err := tm.store.GetGitProject(ctx, projectID.String())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, project.Name)
			assert.Equal(t, string(domain.ForgeGitHub), project.Forge)
			assert.Empty(t, project.OwnerName)
			assert.Empty(t, project.RepoName)
			assert.Empty(t, project.URL)
			assert.Equal(t, string(domain.ProjectStatusOwnerUpdateRequested), project.VerificationStatus)
			assert.Equal(t, int64(1), countRows(t, "owner_update_requested_events"))
		})
	}
}

func TestOwnerUpdateRequested_LaterValidNameFillsSource(t *testing.T) {
	tm := setupTestDispatcher(t)
	ctx := context.Background()
	projectID := accountID(domain.DriverRepo, 1)

	require.NoError(t, tm.dispatcher.Dispatch(ctx, ownerUpdateRequested(t, 10, 0, projectID, 0, "no-slash")))
	require.NoError(t, tm.dispatcher.Dispatch(ctx, ownerUpdateRequested(t, 11, 0, projectID, 0, "drips-network/app")))

	project, err := tm.store.GetGitProject(ctx, projectID.String())
	require.NoError(t, err)
	assert.Equal(t, "drips-network/app", project.Name)
	assert.Equal(t, "drips-network", project.OwnerName)
	assert.Equal(t, "app", project.RepoName)
	assert.Equal(t, "https://github.com/drips-network/app", project.URL)
}

func TestOwnerUpdated_MissingProjectIsReferential(t *testing.T) {
	tm := setupTestDispatcher(t)

	err := tm.dispatcher.Dispatch(context.Background(), ownerUpdated(t, 11, 0, accountID(domain.DriverRepo, 1), ownerAddress))
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	assert.True(t, domain.IsReferential(err))
	assert.False(t, domain.IsFatal(err))

	// the transaction rolled back, so a redelivery is not a duplicate
	assert.Zero(t, countRows(t, "owner_updated_events"))
}

func TestOwnerUpdated_ConfirmsOwner(t *testing.T) {
	tm := setupTestDispatcher(t)
	ctx := context.Background()
	projectID := accountID(domain.DriverRepo, 1)

	require.NoError(t, tm.dispatcher.Dispatch(ctx, ownerUpdateRequested(t, 10, 0, projectID, 0, "drips-network/app")))
	require.NoError(t, tm.dispatcher.Dispatch(ctx, ownerUpdated(t, 11, 0, projectID, ownerAddress)))

	project, err := tm.store.GetGitProject(ctx, projectID.String())
	require.NoError(t, err)
	require.NotNil(t, project.OwnerAddress)
	assert.Equal(t, ownerAddress.Hex(), *project.OwnerAddress)
	require.NotNil(t, project.OwnerAccountID)
	assert.Equal(t, domain.AddressAccountID(ownerAddress).String(), *project.OwnerAccountID)
	assert.Equal(t, string(domain.ProjectStatusOwnerUpdated), project.VerificationStatus)
}

func TestProjectStatus_Transitions(t *testing.T) {
	tm := setupTestDispatcher(t)
	ctx := context.Background()
	projectID := accountID(domain.DriverRepo, 1)
	other := common.HexToAddress("0x3333333333333333333333333333333333333333")

	steps := []struct {
		name   string
		event  func() *domain.DripsEvent
		status domain.ProjectVerificationStatus
		owner  common.Address
	}{
		{
			name:   "request creates the project",
			event:  func() *domain.DripsEvent { return ownerUpdateRequested(t, 10, 0, projectID, 0, "drips-network/app") },
			status: domain.ProjectStatusOwnerUpdateRequested,
		},
		{
			name:   "confirmation answers the request",
			event:  func() *domain.DripsEvent { return ownerUpdated(t, 11, 0, projectID, ownerAddress) },
			status: domain.ProjectStatusOwnerUpdated,
			owner:  ownerAddress,
		},
		{
			name:   "a new request is outstanding",
			event:  func() *domain.DripsEvent { return ownerUpdateRequested(t, 12, 0, projectID, 0, "drips-network/app") },
			status: domain.ProjectStatusOwnerUpdateRequested,
			owner:  ownerAddress,
		},
		{
			name:   "a stale confirmation does not answer it",
			event:  func() *domain.DripsEvent { return ownerUpdated(t, 9, 0, projectID, other) },
			status: domain.ProjectStatusOwnerUpdateRequested,
			owner:  ownerAddress,
		},
		{
			name:   "a later confirmation answers it",
			event:  func() *domain.DripsEvent { return ownerUpdated(t, 13, 0, projectID, other) },
			status: domain.ProjectStatusOwnerUpdated,
			owner:  other,
		},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			require.NoError(t, tm.dispatcher.Dispatch(ctx, step.event()))

			project, err := tm.store.GetGitProject(ctx, projectID.String())
			require.NoError(t, err)
			assert.Equal(t, string(step.status), project.VerificationStatus)
			if step.owner != (common.Address{}) {
				require.NotNil(t, project.OwnerAddress)
				assert.Equal(t, step.owner.Hex(), *project.OwnerAddress)
			}
		})
	}
}

func TestProject_OrderIndependence(t *testing.T) {
	projectID := accountID(domain.DriverRepo, 1)

	apply := func(t *testing.T, order []func() *domain.DripsEvent) *schema.GitProject {
		tm := setupTestDispatcher(t)
		ctx := context.Background()

		pending := order
		// redeliver referential failures until everything applied, as the queue does
		for attempt := 0; len(pending) > 0 && attempt < 5; attempt++ {
			var retry []func() *domain.DripsEvent
			for _, build := range pending {
				if err := tm.dispatcher.Dispatch(ctx, build()); err != nil {
					require.True(t, domain.IsReferential(err), "unexpected error: %v", err)
					retry = append(retry, build)
				}
			}
			pending = retry
		}
		require.Empty(t, pending)

		project, err := tm.store.GetGitProject(ctx, projectID.String())
		require.NoError(t, err)
		return project
	}

	request := func() *domain.DripsEvent { return ownerUpdateRequested(t, 10, 0, projectID, 0, "drips-network/app") }
	rename := func() *domain.DripsEvent { return ownerUpdateRequested(t, 14, 0, projectID, 0, "drips-network/renamed") }
	confirm := func() *domain.DripsEvent { return ownerUpdated(t, 11, 0, projectID, ownerAddress) }
	reconfirm := func() *domain.DripsEvent { return ownerUpdated(t, 15, 0, projectID, ownerAddress) }

	inOrder := apply(t, []func() *domain.DripsEvent{request, confirm, rename, reconfirm})
	reversed := apply(t, []func() *domain.DripsEvent{reconfirm, rename, confirm, request})
	shuffled := apply(t, []func() *domain.DripsEvent{confirm, rename, reconfirm, request})

	for _, got := range []*schema.GitProject{reversed, shuffled} {
		assert.Equal(t, inOrder.Name, got.Name)
		assert.Equal(t, inOrder.URL, got.URL)
		assert.Equal(t, inOrder.OwnerAddress, got.OwnerAddress)
		assert.Equal(t, inOrder.OwnerAccountID, got.OwnerAccountID)
		assert.Equal(t, inOrder.VerificationStatus, got.VerificationStatus)
	}
	assert.Equal(t, "drips-network/renamed", inOrder.Name)
	assert.Equal(t, string(domain.ProjectStatusOwnerUpdated), inOrder.VerificationStatus)
}
