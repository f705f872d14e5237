package cmd

import (
	"context"
	"fmt"

	adapterstorage "github.com/renato0307/forge/internal/adapters/storage"
	"github.com/renato0307/forge/internal/config"
	"github.com/renato0307/forge/internal/domain"
	"github.com/renato0307/forge/internal/ports"
)

// MemoryCmd groups the workspace memory subcommands
type MemoryCmd struct {
	Store  MemoryStoreCmd  `cmd:"" help:"Store (or update) a memory"`
	Search MemorySearchCmd `cmd:"" help:"Full-text search memories"`
	List   MemoryListCmd   `cmd:"" help:"List memories newest-first"`
	Del    MemoryDelCmd    `cmd:"" help:"Delete a memory"`
}

func openStore() (ports.Store, error) {
	return adapterstorage.NewSQLiteRepository(config.GetDBPath())
}

// MemoryStoreCmd upserts one memory
type MemoryStoreCmd struct {
	Workspace string `arg:"" help:"Workspace id"`
	Key       string `arg:"" help:"Memory key"`
	Content   string `arg:"" help:"Memory content"`
	Category  string `help:"Memory category (core, daily, conversation)" default:"core"`
}

func (m *MemoryStoreCmd) Run(cli *CLI) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	return store.StoreMemory(context.Background(), m.Workspace, m.Key, m.Content,
		domain.MemoryCategory(m.Category))
}

// MemorySearchCmd runs a ranked search
type MemorySearchCmd struct {
	Workspace string `arg:"" help:"Workspace id"`
	Query     string `arg:"" help:"Search query"`
}

func (m *MemorySearchCmd) Run(cli *CLI) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	memories, err := store.SearchMemory(context.Background(), m.Workspace, m.Query)
	if err != nil {
		return err
	}
	printMemories(memories)
	return nil
}

// MemoryListCmd lists memories newest-first
type MemoryListCmd struct {
	Workspace string `arg:"" help:"Workspace id"`
	Category  string `help:"Filter by category"`
}

func (m *MemoryListCmd) Run(cli *CLI) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	memories, err := store.ListMemories(context.Background(), m.Workspace,
		domain.MemoryCategory(m.Category))
	if err != nil {
		return err
	}
	printMemories(memories)
	return nil
}

// MemoryDelCmd deletes one memory by key
type MemoryDelCmd struct {
	Workspace string `arg:"" help:"Workspace id"`
	Key       string `arg:"" help:"Memory key"`
}

func (m *MemoryDelCmd) Run(cli *CLI) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	return store.DeleteMemory(context.Background(), m.Workspace, m.Key)
}

func printMemories(memories []domain.Memory) {
	if len(memories) == 0 {
		fmt.Println("No memories found.")
		return
	}
	for _, m := range memories {
		fmt.Printf("[%s] %s: %s\n", m.Category, m.Key, m.Content)
	}
}
