package emotion

import (
	"regexp"
	"strings"

	"github.com/easeaico/custom-chats/internal/types"
)

var (
	filenamePattern = regexp.MustCompile(`([a-z0-9]+)\.[a-z]+$`)
	tagPattern      = regexp.MustCompile(`(?i)<Emotion="(.*?)">`)
)

var synonyms = map[string]string{
	"anger":      "angry",
	"rage":       "angry",
	"fury":       "angry",
	"mad":        "angry",
	"sadness":    "sad",
	"sorrow":     "sad",
	"grief":      "sad",
	"happiness":  "happy",
	"joy":        "happy",
	"delight":    "happy",
	"excitement": "excited",
	"enthusiasm": "excited",
	"surprise":   "surprised",
	"shock":      "surprised",
	"confusion":  "confused",
	"puzzled":    "confused",
}

var fallbackOrder = []string{"neutral", "happy", "normal", "default"}

// ExtractEmotion derives an emotion name from an image URL. The last path
// segment is lowercased and the alphanumeric run right before the extension
// is taken, so ".../aria-happy.png" yields "happy". It returns "" when the
// filename has no extension.
func ExtractEmotion(imageURL string) string {
	if imageURL == "" {
		return ""
	}
	name := imageURL
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	m := filenamePattern.FindStringSubmatch(strings.ToLower(name))
	if m == nil {
		return ""
	}
	parts := strings.Split(m[1], "-")
	return parts[len(parts)-1]
}

// AvailableEmotions returns the distinct emotions of images in first-seen order.
func AvailableEmotions(images []types.Image) []string {
	seen := make(map[string]struct{}, len(images))
	var out []string
	for _, img := range images {
		e := ExtractEmotion(img.PreviewURL)
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// DetectFromResponse returns the lowercased emotion of the first
// <Emotion="..."> tag in text, or "".
func DetectFromResponse(text string) string {
	m := tagPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(m[1]))
}

// RemoveTags strips every emotion tag and trims the result.
func RemoveTags(text string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(text, ""))
}

// MapToImage picks the image URL for emotion: the normalized synonym, then
// the emotion as given, then a neutral fallback, then the first image. It
// returns "" only when there are no images.
func MapToImage(emotion string, images []types.Image) string {
	if len(images) == 0 {
		return ""
	}
	emotion = strings.ToLower(strings.TrimSpace(emotion))
	if emotion != "" {
		mapped := emotion
		if syn, ok := synonyms[emotion]; ok {
			mapped = syn
		}
		if url := findImage(mapped, images); url != "" {
			return url
		}
		if mapped != emotion {
			if url := findImage(emotion, images); url != "" {
				return url
			}
		}
	}
	if url := findImage("neutral", images); url != "" {
		return url
	}
	return images[0].PreviewURL
}

// FallbackEmotion returns the preferred default among available emotions.
func FallbackEmotion(available []string) string {
	for _, candidate := range fallbackOrder {
		for _, e := range available {
			if e == candidate {
				return e
			}
		}
	}
	if len(available) > 0 {
		return available[0]
	}
	return ""
}

// ValidateEmotion reports whether emotion is one of available.
func ValidateEmotion(emotion string, available []string) bool {
	emotion = strings.ToLower(strings.TrimSpace(emotion))
	for _, e := range available {
		if e == emotion {
			return true
		}
	}
	return false
}

func findImage(emotion string, images []types.Image) string {
	for _, img := range images {
		if ExtractEmotion(img.PreviewURL) == emotion {
			return img.PreviewURL
		}
	}
	return ""
}
