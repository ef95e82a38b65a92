package analyzer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/reshetovitsme/channel-digest/internal/modules/post/domain"
)

// supplementaryPlane is the first code point outside the Basic Multilingual Plane.
// Emoji are counted as supplementary-plane code points; BMP emoji are missed and
// rare supplementary ideographs are counted.
const supplementaryPlane = 0x10000

var (
	linkPattern    = regexp.MustCompile(`https?://[^\s\v\x{85}\p{Z}]+`)
	hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
)

// Analyze computes text statistics. It never fails, including on empty input.
func Analyze(text string) domain.TextStats {
	emojis := 0
	for _, r := range text {
		if r >= supplementaryPlane {
			emojis++
		}
	}

	return domain.TextStats{
		Length:       utf8.RuneCountInString(text),
		WordCount:    len(strings.Fields(text)),
		EmojiCount:   emojis,
		LinkCount:    len(linkPattern.FindAllStringIndex(text, -1)),
		HashtagCount: len(hashtagPattern.FindAllStringIndex(text, -1)),
	}
}
