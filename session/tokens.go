package session

import (
	"sync"

	"github.com/mohammad-safakhou/searchchat/models"
	"github.com/tiktoken-go/tokenizer"
)

var (
	codec     tokenizer.Codec
	codecOnce sync.Once
	codecErr  error
)

func getCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	return codec, codecErr
}

// countTokens estimates text with cl100k_base, or four bytes per token when
// the tokenizer is unavailable.
func countTokens(text string) int {
	if text == "" {
		return 0
	}
	if c, err := getCodec(); err == nil {
		if ids, _, err := c.Encode(text); err == nil {
			return len(ids)
		}
	}
	return (len(text) + 3) / 4
}

// EstimateTokens approximates the transcript size.
func (s *Session) EstimateTokens() int {
	total := 0
	for _, e := range s.Entries() {
		total += countTokens(e.Text)
	}
	return total
}

// HistoryWithin returns the most recent transcript messages, oldest first,
// whose combined estimate fits budget tokens. A message that would overflow
// the budget is dropped along with everything older. budget <= 0 returns the
// whole transcript.
func (s *Session) HistoryWithin(budget int) []models.Message {
	msgs := s.History()
	if budget <= 0 {
		return msgs
	}
	used, start := 0, len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		n := countTokens(msgs[i].Content)
		if used+n > budget {
			break
		}
		used += n
		start = i
	}
	return msgs[start:]
}
