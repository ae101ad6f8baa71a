package service

import (
	"strconv"
	"sync"

	"github.com/puzpuzpuz/xsync"
)

// lockTable hands out one mutex per key. Entries are never evicted; the
// key space is bounded by the number of users and tournaments.
type lockTable struct {
	locks *xsync.MapOf[string, *sync.Mutex]
}

func newLockTable() *lockTable {
	return &lockTable{locks: xsync.NewMapOf[*sync.Mutex]()}
}

func (t *lockTable) lock(key string) func() {
	mu, _ := t.locks.LoadOrCompute(key, func() *sync.Mutex { return &sync.Mutex{} })
	mu.Lock()
	return mu.Unlock
}

func (t *lockTable) lockUser(userID int64) func() {
	return t.lock("user:" + strconv.FormatInt(userID, 10))
}

func (t *lockTable) lockTournament(tournamentID int64) func() {
	return t.lock("tournament:" + strconv.FormatInt(tournamentID, 10))
}
