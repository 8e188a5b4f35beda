package emotion

import (
	"testing"

	"github.com/easeaico/custom-chats/internal/types"
)

func TestExtractEmotion(t *testing.T) {
	cases := map[string]string{
		"https://example.com/aria-happy.png":   "happy",
		"https://example.com/x/ARIA-Sad.JPG":   "sad",
		"angry.webp":                           "angry",
		"https://example.com/my_char-calm.gif": "calm",
		"no-extension":                         "",
		"":                                     "",
	}
	for input, want := range cases {
		if got := ExtractEmotion(input); got != want {
			t.Fatalf("ExtractEmotion(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestAvailableEmotionsDistinctInOrder(t *testing.T) {
	images := []types.Image{
		{PreviewURL: "a/aria-happy.png"},
		{PreviewURL: "a/aria-sad.png"},
		{PreviewURL: "b/other-happy.jpg"},
		{PreviewURL: "no-extension"},
	}
	got := AvailableEmotions(images)
	if len(got) != 2 || got[0] != "happy" || got[1] != "sad" {
		t.Fatalf("unexpected emotions: %v", got)
	}
}

func TestDetectAndRemoveTags(t *testing.T) {
	text := `I'm thrilled! <emotion="Happy">`
	if got := DetectFromResponse(text); got != "happy" {
		t.Fatalf("expected happy, got %q", got)
	}
	if got := RemoveTags(text); got != "I'm thrilled!" {
		t.Fatalf("unexpected stripped text: %q", got)
	}
	if got := DetectFromResponse("no tag here"); got != "" {
		t.Fatalf("expected no emotion, got %q", got)
	}
}

func TestMapToImage(t *testing.T) {
	images := []types.Image{
		{PreviewURL: "x/aria-angry.png"},
		{PreviewURL: "x/aria-neutral.png"},
	}
	if got := MapToImage("angry", images); got != "x/aria-angry.png" {
		t.Fatalf("exact match failed: %s", got)
	}
	if got := MapToImage("Rage", images); got != "x/aria-angry.png" {
		t.Fatalf("synonym match failed: %s", got)
	}
	if got := MapToImage("joy", images); got != "x/aria-neutral.png" {
		t.Fatalf("expected neutral fallback, got %s", got)
	}
	if got := MapToImage("joy", images[:1]); got != "x/aria-angry.png" {
		t.Fatalf("expected first image, got %s", got)
	}
	if got := MapToImage("happy", nil); got != "" {
		t.Fatalf("expected empty result without images, got %s", got)
	}

	both := []types.Image{
		{PreviewURL: "x/aria-anger.png"},
		{PreviewURL: "x/aria-angry.png"},
	}
	if got := MapToImage("anger", both); got != "x/aria-angry.png" {
		t.Fatalf("synonym should win over raw emotion, got %s", got)
	}
	if got := MapToImage("anger", both[:1]); got != "x/aria-anger.png" {
		t.Fatalf("expected raw emotion when synonym is missing, got %s", got)
	}
}

func TestFallbackEmotion(t *testing.T) {
	if got := FallbackEmotion([]string{"sad", "happy", "neutral"}); got != "neutral" {
		t.Fatalf("expected neutral, got %s", got)
	}
	if got := FallbackEmotion([]string{"sad", "default", "happy"}); got != "happy" {
		t.Fatalf("expected happy, got %s", got)
	}
	if got := FallbackEmotion([]string{"sad"}); got != "sad" {
		t.Fatalf("expected first available, got %s", got)
	}
	if got := FallbackEmotion(nil); got != "" {
		t.Fatalf("expected empty, got %s", got)
	}
}
