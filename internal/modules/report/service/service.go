package service

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	postDomain "github.com/reshetovitsme/channel-digest/internal/modules/post/domain"
	"github.com/reshetovitsme/channel-digest/internal/modules/report/domain"
	"github.com/samber/lo"
)

const (
	// NoPostsText is sent when the collection found nothing new
	NoPostsText = "За последние сутки новых постов не было."

	topWordsLimit = 10
	minWordLength = 4
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Service renders daily digests
type Service struct{}

// New creates a new report service
func New() *Service {
	return &Service{}
}

// Build renders the digest for posts. It has no side effects.
func (s *Service) Build(posts []postDomain.PostStats) string {
	if len(posts) == 0 {
		return NoPostsText
	}
	return Render(Summarize(posts))
}

// Summarize aggregates post statistics. Averages are rounded half to even.
func Summarize(posts []postDomain.PostStats) domain.Summary {
	if len(posts) == 0 {
		return domain.Summary{}
	}

	n := float64(len(posts))
	return domain.Summary{
		PostCount:   len(posts),
		TotalViews:  lo.SumBy(posts, func(p postDomain.PostStats) int64 { return p.Views }),
		AvgLength:   int(math.RoundToEven(float64(lo.SumBy(posts, func(p postDomain.PostStats) int { return p.Length })) / n)),
		AvgWords:    int(math.RoundToEven(float64(lo.SumBy(posts, func(p postDomain.PostStats) int { return p.WordCount })) / n)),
		TotalEmojis: lo.SumBy(posts, func(p postDomain.PostStats) int { return p.EmojiCount }),
		TotalLinks:  lo.SumBy(posts, func(p postDomain.PostStats) int { return p.LinkCount }),
		TopWords:    TopWords(posts, topWordsLimit),
	}
}

// TopWords ranks lowercase words of at least four characters by frequency.
// Ties keep the order in which words were first seen.
func TopWords(posts []postDomain.PostStats, limit int) []domain.WordCount {
	var ranking []domain.WordCount
	index := make(map[string]int)

	for _, post := range posts {
		for _, token := range wordPattern.FindAllString(post.RawText, -1) {
			if utf8.RuneCountInString(token) < minWordLength {
				continue
			}
			word := strings.ToLower(token)
			if i, ok := index[word]; ok {
				ranking[i].Count++
				continue
			}
			index[word] = len(ranking)
			ranking = append(ranking, domain.WordCount{Word: word, Count: 1})
		}
	}

	slices.SortStableFunc(ranking, func(a, b domain.WordCount) int {
		return b.Count - a.Count
	})

	if len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking
}

// Render formats a summary with the fixed digest template
func Render(summary domain.Summary) string {
	topWords := strings.Join(lo.Map(summary.TopWords, func(w domain.WordCount, _ int) string {
		return fmt.Sprintf("%s (%d)", w.Word, w.Count)
	}), ", ")

	var text strings.Builder
	fmt.Fprintf(&text, "📊 Отчёт за сутки — %d пост(ов)\n", summary.PostCount)
	fmt.Fprintf(&text, "👁 Всего просмотров: %d\n", summary.TotalViews)
	fmt.Fprintf(&text, "✍️ Средняя длина текста: %d символов / %d слов\n", summary.AvgLength, summary.AvgWords)
	fmt.Fprintf(&text, "😊 Эмодзи всего: %d\n", summary.TotalEmojis)
	fmt.Fprintf(&text, "🔗 Ссылок всего: %d\n", summary.TotalLinks)
	fmt.Fprintf(&text, "💬 Частые слова: %s", topWords)
	return text.String()
}
