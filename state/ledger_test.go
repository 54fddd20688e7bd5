package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"fundvault/native/fundme"
	"fundvault/storage"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(storage.NewMemDB())
}

func sampleTransaction(id uint64) *fundme.Transaction {
	return &fundme.Transaction{
		ID:             id,
		Token:          "FVT",
		WithdrawGrace:  50,
		TotalFunded:    big.NewInt(100),
		RemainingFunds: big.NewInt(80),
		Milestones: []*fundme.Milestone{
			{ID: 0, UnlockBps: 4_000, AmountClaimable: big.NewInt(32), Round: fundme.NewDisputeRound()},
			{ID: 1, UnlockBps: 6_000, Round: fundme.NewDisputeRound()},
		},
	}
}

func TestVaultAddressDeterministic(t *testing.T) {
	require.Equal(t, VaultAddress("escrow"), VaultAddress("escrow"))
	require.NotEqual(t, VaultAddress("escrow"), VaultAddress("treasury"))
	require.NotEqual(t, [20]byte{}, VaultAddress("escrow"))
}

func TestTransactionRoundTrip(t *testing.T) {
	ledger := testLedger(t)
	tx := sampleTransaction(1)
	require.NoError(t, ledger.FundMePut(tx))

	loaded, ok := ledger.FundMeGet(1)
	require.True(t, ok)
	require.Equal(t, tx.ID, loaded.ID)
	require.Zero(t, loaded.TotalFunded.Cmp(tx.TotalFunded))
	require.Len(t, loaded.Milestones, 2)
	require.Zero(t, loaded.Milestones[0].AmountClaimable.Cmp(big.NewInt(32)))
	require.NotNil(t, loaded.Milestones[1].Round)

	_, ok = ledger.FundMeGet(2)
	require.False(t, ok)
}

func TestFundMePutRejectsMalformed(t *testing.T) {
	ledger := testLedger(t)
	tx := sampleTransaction(1)
	tx.Milestones[0].UnlockBps = 1
	require.ErrorIs(t, ledger.FundMePut(tx), fundme.ErrInvalidTransaction)
}

func TestSequencesAreIndependent(t *testing.T) {
	ledger := testLedger(t)
	id1, err := ledger.FundMeNextID()
	require.NoError(t, err)
	id2, err := ledger.FundMeNextID()
	require.NoError(t, err)
	require.Equal(t, id1+1, id2)

	directID, err := ledger.DirectNextID()
	require.NoError(t, err)
	require.Equal(t, uint64(1), directID)
}

func TestContributionRoundTrip(t *testing.T) {
	ledger := testLedger(t)
	var funder [20]byte
	funder[19] = 0x42

	_, ok := ledger.ContributionGet(1, funder)
	require.False(t, ok)
	require.NoError(t, ledger.ContributionPut(1, funder, big.NewInt(77)))
	total, ok := ledger.ContributionGet(1, funder)
	require.True(t, ok)
	require.Zero(t, total.Cmp(big.NewInt(77)))
}

func TestDisputeIndexRoundTrip(t *testing.T) {
	ledger := testLedger(t)
	require.NoError(t, ledger.DisputeIndexPut(5, 1, 2))
	txID, milestoneID, ok := ledger.DisputeIndexGet(5)
	require.True(t, ok)
	require.Equal(t, uint64(1), txID)
	require.Equal(t, uint64(2), milestoneID)

	require.NoError(t, ledger.DirectDisputeIndexPut(5, 9))
	escrowID, ok := ledger.DirectDisputeIndexGet(5)
	require.True(t, ok)
	require.Equal(t, uint64(9), escrowID)
}

func TestDirectEscrowRoundTrip(t *testing.T) {
	ledger := testLedger(t)
	esc := &fundme.DirectEscrow{
		ID:       3,
		Token:    "FVT",
		Amount:   big.NewInt(500),
		Deadline: 2_000,
		Round:    fundme.NewDisputeRound(),
	}
	require.NoError(t, ledger.DirectPut(esc))
	loaded, ok := ledger.DirectGet(3)
	require.True(t, ok)
	require.Zero(t, loaded.Amount.Cmp(big.NewInt(500)))
	require.Equal(t, fundme.DirectNoDispute, loaded.Status)
}

func TestAccountDefaultsWhenAbsent(t *testing.T) {
	ledger := testLedger(t)
	var addr [20]byte
	addr[19] = 0x07
	account, err := ledger.GetAccount(addr[:])
	require.NoError(t, err)
	require.Zero(t, account.BalanceNative.Sign())
	require.NotNil(t, account.TokenBalances)

	account.BalanceNative = big.NewInt(42)
	account.SetTokenBalance("FVT", big.NewInt(9))
	require.NoError(t, ledger.PutAccount(addr[:], account))

	loaded, err := ledger.GetAccount(addr[:])
	require.NoError(t, err)
	require.Zero(t, loaded.BalanceNative.Cmp(big.NewInt(42)))
	require.Zero(t, loaded.TokenBalance("FVT").Cmp(big.NewInt(9)))
}
