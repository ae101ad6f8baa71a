package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLockTable_SerializesSameKey(t *testing.T) {
	locks := newLockTable()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lockUser(1)
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()
	require.Equal(t, 50, counter)
}

func TestLockTable_KeysAreIndependent(t *testing.T) {
	locks := newLockTable()
	unlockUser := locks.lockUser(1)
	defer unlockUser()

	// Same numeric id in another namespace must not block.
	unlockTournament := locks.lockTournament(1)
	unlockTournament()
	unlockOther := locks.lockUser(2)
	unlockOther()
}

func TestOrderIDRoundTrip(t *testing.T) {
	id, ok := userIDFromOrderID("KIRDA_42_1700000000000")
	require.True(t, ok)
	require.EqualValues(t, 42, id)

	for _, bad := range []string{"", "KIRDA_x_1", "OTHER_42_1", "KIRDA_42", "KIRDA_0_1"} {
		_, ok := userIDFromOrderID(bad)
		require.False(t, ok, bad)
	}
}

func TestMaskAccountAndTransferStatus(t *testing.T) {
	require.Equal(t, "XXXXXXXX9012", maskAccount("123456789012"))
	require.Equal(t, "123", maskAccount("123"))

	require.Equal(t, "SUCCESS", normalizeTransferStatus("success"))
	require.Equal(t, "FAILED", normalizeTransferStatus("ERROR"))
	require.Equal(t, "PENDING", normalizeTransferStatus("RECEIVED"))
}
