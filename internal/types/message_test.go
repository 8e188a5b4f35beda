package types

import (
	"testing"
	"time"
)

func TestAddVersionMaterializesOriginal(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := Message{ID: "m1", Type: MessageTypeCharacter, Content: "first", CreatedAt: created}

	got := msg.AddVersion(Version{ID: "v2", Content: "second"})

	if len(got.Versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(got.Versions))
	}
	if got.Versions[0].ID != "ver_m1_1" || got.Versions[0].Content != "first" || got.Versions[0].VersionIndex != 1 {
		t.Fatalf("unexpected materialized version: %#v", got.Versions[0])
	}
	if got.Versions[1].VersionIndex != 2 || got.CurrentVersionIndex != 2 || got.Content != "second" {
		t.Fatalf("expected second version current, got %#v", got)
	}
	if len(msg.Versions) != 0 {
		t.Fatalf("expected original message untouched")
	}
}

func TestAddVersionCarriesErrorFlags(t *testing.T) {
	msg := Message{ID: "m1", Content: "ok"}
	got := msg.AddVersion(Version{Content: "boom", IsError: true, ErrorType: ErrorTypeTimeout})
	if !got.IsError || got.ErrorType != ErrorTypeTimeout {
		t.Fatalf("expected error flags mirrored, got %#v", got)
	}

	got, _ = got.ShiftVersion(-1)
	if got.IsError || got.ErrorType != "" || got.Content != "ok" {
		t.Fatalf("expected first version restored, got %#v", got)
	}
}

func TestShiftVersionClamps(t *testing.T) {
	msg := Message{ID: "m1", Content: "a"}
	msg = msg.AddVersion(Version{Content: "b"})
	msg = msg.AddVersion(Version{Content: "c"})

	if _, changed := msg.ShiftVersion(1); changed {
		t.Fatalf("expected no change past the last version")
	}

	msg, _ = msg.ShiftVersion(-1)
	msg, _ = msg.ShiftVersion(-1)
	if msg.CurrentVersionIndex != 1 || msg.Content != "a" {
		t.Fatalf("expected first version, got %d %q", msg.CurrentVersionIndex, msg.Content)
	}
	if _, changed := msg.ShiftVersion(-1); changed {
		t.Fatalf("expected no change before the first version")
	}
}

func TestShiftVersionSingleVersionNoop(t *testing.T) {
	msg := Message{ID: "m1", Content: "a"}
	if _, changed := msg.ShiftVersion(1); changed {
		t.Fatalf("expected no-op without versions")
	}
}

func TestStateCloneIsDeep(t *testing.T) {
	st := DefaultState(DefaultAPISettings())
	st.Messages = []Message{{ID: "a", Versions: []Version{{ID: "v"}}}}
	st.Conversations[DefaultCharacterID] = st.Messages

	cp := st.Clone()
	cp.Messages[0].Versions[0].Content = "changed"
	cp.Conversations[DefaultCharacterID][0].Content = "changed"

	if st.Messages[0].Versions[0].Content != "" || st.Conversations[DefaultCharacterID][0].Content != "" {
		t.Fatalf("clone shares memory with original")
	}
}

func TestCardToCharacter(t *testing.T) {
	card := CharactorCard{
		Name:        " Aria ",
		Description: "A bard.",
		Personality: "cheerful",
		FirstMes:    "Hi {{user}}",
		CharacterBook: &CardBook{Entries: []CardBookEntry{
			{Comment: "Lute", Keys: []string{"lute"}, Content: "Her lute.", Enabled: true},
		}},
	}

	got := card.ToCharacter()
	if got.Name != "Aria" || got.Description != "A bard.\n\nPersonality: cheerful" {
		t.Fatalf("unexpected character: %#v", got)
	}
	if len(got.Lorebook) != 1 || got.Lorebook[0].Name != "Lute" || !got.Lorebook[0].IsActive {
		t.Fatalf("unexpected lorebook: %#v", got.Lorebook)
	}
	if got.ImageGallery.Mode != GalleryModeDefault {
		t.Fatalf("expected default gallery mode, got %s", got.ImageGallery.Mode)
	}
}
