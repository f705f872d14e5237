package cmd

import (
	"context"
	"fmt"

	adapterstorage "github.com/renato0307/forge/internal/adapters/storage"
	"github.com/renato0307/forge/internal/config"
)

// WorkspacesCmd lists known workspaces, pinned first
type WorkspacesCmd struct{}

// Run lists workspaces
func (w *WorkspacesCmd) Run(cli *CLI) error {
	store, err := adapterstorage.NewSQLiteRepository(config.GetDBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	workspaces, err := store.ListWorkspaces(context.Background())
	if err != nil {
		return err
	}

	if len(workspaces) == 0 {
		fmt.Println("No workspaces yet.")
		return nil
	}

	for _, ws := range workspaces {
		pin := " "
		if ws.Pinned {
			pin = "*"
		}
		fmt.Printf("%s %s  %-20s %s\n", pin, ws.ID, ws.Name, ws.Path)
	}
	return nil
}
