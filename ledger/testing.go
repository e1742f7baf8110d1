package ledger

import cledger "github.com/next-trace/scg-ledger-bus/contract/ledger"

// SeedBalance is a test helper that force-sets a balance on a MemoryStore,
// bypassing the compare-and-set.
func SeedBalance(store cledger.Store, id cledger.AccountID, balance cledger.Balance) {
	if mem, ok := store.(*MemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.accounts[id] = cledger.Account{ID: id, Balance: balance}
	}
}
