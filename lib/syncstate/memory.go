package syncstate

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend keeps states in memory, it is used by tests and dry runs.
type MemoryBackend struct {
	mutex  sync.Mutex
	states map[string]State
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{states: map[string]State{}}
}

func (b *MemoryBackend) ForAccount(account string) Store {
	return memoryStore{backend: b, account: account}
}

func (b *MemoryBackend) Accounts(ctx context.Context) ([]string, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	accounts := make([]string, 0, len(b.states))
	for account := range b.states {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts, nil
}

type memoryStore struct {
	backend *MemoryBackend
	account string
}

func (s memoryStore) Get(ctx context.Context) (State, error) {
	s.backend.mutex.Lock()
	defer s.backend.mutex.Unlock()
	return copyState(s.backend.states[s.account]), nil
}

func (s memoryStore) Set(ctx context.Context, state State, opts SetOptions) error {
	s.backend.mutex.Lock()
	defer s.backend.mutex.Unlock()

	next, err := apply(s.backend.states[s.account], copyState(state), opts)
	if err != nil {
		return err
	}
	s.backend.states[s.account] = next
	return nil
}

// the cursor is a pointer, states handed out must not alias the stored one
func copyState(state State) State {
	if state.LastSyncedPeriod != nil {
		state.LastSyncedPeriod = Cursor(*state.LastSyncedPeriod)
	}
	return state
}
