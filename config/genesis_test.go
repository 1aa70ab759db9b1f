package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liganite/liganite/config"
	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/crypto"
	"github.com/liganite/liganite/internal/testutil"
	"github.com/liganite/liganite/tags"
)

func genesis(t *testing.T) *config.GenesisConfig {
	t.Helper()
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	admin := priv.Public().Hex()
	return &config.GenesisConfig{
		ChainID:          "market-1",
		Admin:            admin,
		Alloc:            map[string]uint64{admin: 1_000, "cd02": 50},
		PublisherDeposit: 250,
		Publishers:       []config.GenesisPublisher{{Account: "cd02", Name: "Studio", URL: "https://studio.example"}},
	}
}

func TestApplyGenesis(t *testing.T) {
	g := genesis(t)
	st := testutil.NewStateDB()

	root, err := config.ApplyGenesis(g, st)
	require.NoError(t, err)
	assert.NotEmpty(t, root)

	h, ok, err := st.Height()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, h)

	acc, err := st.GetAccount(core.AccountID(g.Admin))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), acc.Free)

	deposit, err := st.GetPublisherDeposit()
	require.NoError(t, err)
	assert.Equal(t, uint64(250), deposit)

	vocab, err := st.Tags()
	require.NoError(t, err)
	assert.Len(t, vocab, len(tags.Default), "empty tag list falls back to the default vocabulary")

	pub, err := st.GetPublisher("cd02")
	require.NoError(t, err)
	assert.Equal(t, "Studio", pub.Name)
	studio, err := st.GetAccount("cd02")
	require.NoError(t, err)
	assert.Zero(t, studio.Held(core.HoldPublisherDeposit), "genesis publishers hold no deposit")

	again, err := config.ApplyGenesis(g, testutil.NewStateDB())
	require.NoError(t, err)
	assert.Equal(t, root, again, "genesis is deterministic")
}

func TestApplyGenesisRejects(t *testing.T) {
	t.Run("admin", func(t *testing.T) {
		g := genesis(t)
		g.Admin = "not-hex"
		_, err := config.ApplyGenesis(g, testutil.NewStateDB())
		assert.Error(t, err)
	})
	t.Run("tags", func(t *testing.T) {
		g := genesis(t)
		g.Tags = []string{"Action", ""}
		_, err := config.ApplyGenesis(g, testutil.NewStateDB())
		assert.Error(t, err)
	})
	t.Run("publisher", func(t *testing.T) {
		g := genesis(t)
		g.Publishers[0].URL = "studio.example"
		_, err := config.ApplyGenesis(g, testutil.NewStateDB())
		assert.ErrorIs(t, err, core.ErrInvalidDetails)
	})
}
