package config

import (
	"fmt"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/crypto"
	"github.com/liganite/liganite/events"
	"github.com/liganite/liganite/ledger"
	"github.com/liganite/liganite/storage"
	"github.com/liganite/liganite/tags"
	"github.com/liganite/liganite/vm/modules/publish"
)

// discard drops genesis events; genesis writes are not notifications.
type discard struct{}

func (discard) Emit(events.Event) {}

// ApplyGenesis writes the initial accounts, publisher deposit, tag
// vocabulary and genesis publishers into state, marks height 0, commits,
// and returns the resulting state root. It must only run on empty state.
func ApplyGenesis(g *GenesisConfig, state *storage.StateDB) (string, error) {
	if g.Admin != "" {
		if _, err := crypto.PublicKeyFromHex(g.Admin); err != nil {
			return "", fmt.Errorf("genesis admin: %w", err)
		}
	}

	l := ledger.New(state, ledger.DefaultExistentialDeposit)
	for account, balance := range g.Alloc {
		if err := l.SetBalance(core.AccountID(account), balance); err != nil {
			return "", fmt.Errorf("genesis alloc %s: %w", account, err)
		}
	}

	if err := state.SetPublisherDeposit(g.PublisherDeposit); err != nil {
		return "", err
	}

	vocab := g.Tags
	if len(vocab) == 0 {
		vocab = tags.Default
	}
	if err := tags.Load(state, vocab); err != nil {
		return "", fmt.Errorf("genesis tags: %w", err)
	}

	registry := publish.New(state, l, discard{})
	for _, p := range g.Publishers {
		details := core.PublisherDetails{Name: p.Name, URL: p.URL}
		if err := registry.InsertPublisher(core.AccountID(p.Account), details); err != nil {
			return "", fmt.Errorf("genesis publisher: %w", err)
		}
	}

	if err := state.SetHeight(0); err != nil {
		return "", err
	}
	root := state.ComputeRoot()
	if err := state.Commit(); err != nil {
		return "", err
	}
	return root, nil
}
