// Package main prints the system prompt and context a message would be sent
// with, using a backup file instead of a live database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/easeaico/custom-chats/internal/chat"
	"github.com/easeaico/custom-chats/internal/models"
)

func main() {
	file := flag.String("file", "", "Backup file exported from the app (optional)")
	characterID := flag.String("character", "", "Character id (defaults to the backup's current character)")
	message := flag.String("message", "", "User message to match lorebook triggers against")
	historyLimit := flag.Int("history", 10, "Number of messages kept as context")
	flag.Parse()

	ctx := context.Background()
	store := chat.NewStore(nil, nil, nil, chat.Options{HistoryLimit: *historyLimit})
	if err := store.Init(ctx); err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("failed to read backup: %v", err)
		}
		if err := store.ImportAllData(ctx, data); err != nil {
			log.Fatalf("failed to load backup: %v", err)
		}
	}
	if *characterID != "" {
		if err := store.SelectCharacter(ctx, *characterID); err != nil {
			log.Fatalf("failed to select character %q: %v", *characterID, err)
		}
	}

	preview, err := store.PreviewPrompt(*message)
	if err != nil {
		log.Fatalf("failed to build prompt: %v", err)
	}
	st := store.Snapshot()

	fmt.Printf("Character: %s (%s)\n", st.CurrentCharacter.Name, st.CurrentCharacter.ID)
	fmt.Printf("Provider:  %s / %s\n", st.APISettings.Provider, models.DisplayName(st.APISettings.SelectedModel))

	fmt.Printf("\nLorebook matches (%d):\n", len(preview.Lore))
	for _, entry := range preview.Lore {
		fmt.Printf("  - %s [%s]\n", entry.Name, strings.Join(entry.Triggers, ", "))
	}

	fmt.Println("\n=== System prompt ===")
	fmt.Println(preview.SystemPrompt)

	fmt.Printf("\n=== Context (%d turns) ===\n", len(preview.Turns))
	for _, turn := range preview.Turns {
		fmt.Printf("[%s] %s\n", turn.Role, turn.Content)
	}
}
