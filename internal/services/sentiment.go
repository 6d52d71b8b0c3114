package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"unisphere/internal/utils"
)

type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

const (
	sentimentCacheTTL = 6 * time.Hour
	companionPrompt   = "You are an empathetic mental health support assistant for university students. " +
		"Respond in a compassionate, understanding and supportive way. Keep responses concise but meaningful. " +
		"Acknowledge the user's feelings and offer helpful guidance."
)

var (
	positiveWords = map[string]bool{
		"happy": true, "good": true, "great": true, "excellent": true, "wonderful": true,
		"amazing": true, "fantastic": true, "love": true, "like": true, "enjoy": true,
		"pleased": true, "satisfied": true, "blessed": true, "grateful": true, "thankful": true,
		"joy": true, "excited": true, "thrilled": true, "delighted": true,
	}
	negativeWords = map[string]bool{
		"sad": true, "bad": true, "terrible": true, "awful": true, "hate": true,
		"dislike": true, "angry": true, "frustrated": true, "anxious": true, "worried": true,
		"stressed": true, "depressed": true, "upset": true, "disappointed": true, "hurt": true,
		"lonely": true, "overwhelmed": true, "struggling": true, "tired": true, "exhausted": true,
	}
)

// ClassifyKeywords is the offline classifier: it counts whole-word matches
// against the positive and negative lists.
func ClassifyKeywords(text string) Sentiment {
	pos, neg := 0, 0
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if positiveWords[w] {
			pos++
		}
		if negativeWords[w] {
			neg++
		}
	}
	switch {
	case pos > neg:
		return Positive
	case neg > pos:
		return Negative
	}
	return Neutral
}

// FallbackReply picks a canned supportive reply by keyword.
func FallbackReply(message string) string {
	m := strings.ToLower(message)
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(m, s) {
				return true
			}
		}
		return false
	}
	switch {
	case has("stressed", "stress", "overwhelm"):
		return "I can sense you're feeling stressed. It's completely normal to feel this way. Have you tried taking a few deep breaths or going for a short walk? Sometimes stepping away for a moment can help."
	case has("sad", "depress", "unhappy", "down"):
		return "I'm sorry you're feeling down. Remember that difficult emotions are temporary. Have you considered talking to someone you trust about how you're feeling?"
	case has("anxious", "worry", "anxiety"):
		return "Anxiety can be overwhelming, but you're not alone in this. Try to focus on your breathing and take things one step at a time. Would it help to talk about what's making you anxious?"
	case has("happy", "excited", "great"):
		return "I'm glad to hear something positive! It's wonderful that you're feeling good. Try to hold onto this feeling and maybe do something nice for yourself today."
	}
	return "I'm here to listen. Could you tell me more about what you're feeling? Sometimes expressing our thoughts can be the first step toward feeling better."
}

// ChatTurn is one earlier message of a companion conversation.
type ChatTurn struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// SentimentService classifies text and writes companion replies through the
// LLM, falling back to keyword rules when the LLM is unconfigured or has
// failed. After one failure it stays on the fallback until ResetFailure.
type SentimentService struct {
	llm    *LLMClient
	cache  *utils.TTLCache[Sentiment]
	failed atomic.Bool
	log    logrus.FieldLogger
}

func NewSentimentService(llm *LLMClient, cacheSize int, log logrus.FieldLogger) (*SentimentService, error) {
	cache, err := utils.NewTTLCache[Sentiment](cacheSize)
	if err != nil {
		return nil, err
	}
	if !llm.Configured() {
		log.Warn("llm is not configured, sentiment and chat use keyword fallback")
	}
	return &SentimentService{llm: llm, cache: cache, log: log}, nil
}

func (s *SentimentService) useLLM() bool {
	return s.llm.Configured() && !s.failed.Load()
}

func (s *SentimentService) markFailed(err error) {
	if s.failed.CompareAndSwap(false, true) {
		s.log.WithError(err).Warn("llm call failed, switching to keyword fallback")
	}
}

// ResetFailure lets the next call try the LLM again.
func (s *SentimentService) ResetFailure() {
	s.failed.Store(false)
}

func (s *SentimentService) Failed() bool {
	return s.failed.Load()
}

func cacheKey(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Analyze returns the sentiment of text. It never fails.
func (s *SentimentService) Analyze(ctx context.Context, text string) Sentiment {
	text = strings.TrimSpace(text)
	if text == "" {
		return Neutral
	}
	key := cacheKey(text)
	if v, ok := s.cache.Get(key); ok {
		return v
	}

	if !s.useLLM() {
		return ClassifyKeywords(text)
	}

	prompt := "Analyze the sentiment of the following text and respond with only one word: positive, negative, or neutral.\n\nText: \"" +
		text + "\"\n\nSentiment:"
	answer, err := s.llm.Complete(ctx, []ChatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		s.markFailed(err)
		return ClassifyKeywords(text)
	}

	result := Neutral
	switch Sentiment(strings.Trim(strings.ToLower(answer), " .\n")) {
	case Positive:
		result = Positive
	case Negative:
		result = Negative
	}
	s.cache.Set(key, result, sentimentCacheTTL)
	return result
}

// Respond writes a supportive reply to message given the earlier turns.
func (s *SentimentService) Respond(ctx context.Context, message string, history []ChatTurn) string {
	if !s.useLLM() {
		return FallbackReply(message)
	}

	messages := []ChatMessage{{Role: "system", Content: companionPrompt}}
	for _, turn := range history {
		role := "user"
		if turn.Sender == "ai" || turn.Sender == "assistant" {
			role = "assistant"
		}
		messages = append(messages, ChatMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: message})

	reply, err := s.llm.Complete(ctx, messages)
	if err != nil || reply == "" {
		if err == nil {
			err = ErrLLMNotConfigured
		}
		s.markFailed(err)
		return FallbackReply(message)
	}
	return reply
}

type SentimentSummary struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// Aggregate counts each sentiment; unknown values are ignored.
func Aggregate(list []Sentiment) SentimentSummary {
	var out SentimentSummary
	for _, s := range list {
		switch s {
		case Positive:
			out.Positive++
		case Negative:
			out.Negative++
		case Neutral:
			out.Neutral++
		}
	}
	return out
}

// Trend compares the average of the last 7 entries with the 7 before them.
// history is oldest first. Fewer than two entries yield "neutral".
func Trend(history []Sentiment) string {
	if len(history) < 2 {
		return "neutral"
	}
	recentStart := len(history) - 7
	if recentStart < 0 {
		recentStart = 0
	}
	prevStart := len(history) - 14
	if prevStart < 0 {
		prevStart = 0
	}
	recent := average(history[recentStart:])
	prev := average(history[prevStart:recentStart])
	switch {
	case recent > prev:
		return "improving"
	case recent < prev:
		return "declining"
	}
	return "stable"
}

func average(list []Sentiment) float64 {
	if len(list) == 0 {
		return 0
	}
	total := 0
	for _, s := range list {
		switch s {
		case Positive:
			total++
		case Negative:
			total--
		}
	}
	return float64(total) / float64(len(list))
}
