package wallpaperlib

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

const maxQuoteResponse = 64 * 1024

type Quote struct {
	Text   string
	Author string
}

var fallbackQuotes = []Quote{
	{"The only way to do great work is to love what you do.", "Steve Jobs"},
	{"Life is what happens when you're busy making other plans.", "John Lennon"},
	{"The future belongs to those who believe in the beauty of their dreams.", "Eleanor Roosevelt"},
	{"It is during our darkest moments that we must focus to see the light.", "Aristotle"},
	{"The way to get started is to quit talking and begin doing.", "Walt Disney"},
	{"Don't watch the clock; do what it does. Keep going.", "Sam Levenson"},
	{"The pessimist sees difficulty in every opportunity. The optimist sees opportunity in every difficulty.", "Winston Churchill"},
	{"You learn more from failure than from success. Don't let it stop you. Failure builds character.", "Unknown"},
	{"It's not whether you get knocked down, it's whether you get up.", "Vince Lombardi"},
	{"We may encounter many defeats but we must not be defeated.", "Maya Angelou"},
}

type quotesFile struct {
	Quotes []Quote
}

// QuoteSource fetches quotes from the configured services in order and
// falls back to a local list. It never comes back empty handed.
type QuoteSource struct {
	log      *zap.Logger
	client   *http.Client
	urls     []string
	fallback []Quote
	rng      *rand.Rand
}

func NewQuoteSource(c *Config, log *zap.Logger) (*QuoteSource, error) {
	fallback := append([]Quote(nil), fallbackQuotes...)

	if c.QuotesFile != "" {
		qf := quotesFile{}
		if _, err := toml.DecodeFile(c.QuotesFile, &qf); err != nil {
			return nil, fmt.Errorf("error decoding QuotesFile [%s]: %w", c.QuotesFile, err)
		}
		for _, q := range qf.Quotes {
			if q.Text == "" {
				continue
			}
			if q.Author == "" {
				q.Author = "Unknown"
			}
			fallback = append(fallback, q)
		}
	}

	return &QuoteSource{
		log:      log,
		client:   &http.Client{Timeout: c.QuoteTimeoutDuration()},
		urls:     c.QuoteURLs,
		fallback: fallback,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func (s *QuoteSource) Get(ctx context.Context) Quote {
	for _, url := range s.urls {
		q, err := s.fetch(ctx, url)
		if err == nil {
			return q
		}
		s.log.Debug("Quote service failed", zap.String("url", url), zap.Error(err))
	}
	return s.Fallback()
}

// Fallback picks one of the local quotes
func (s *QuoteSource) Fallback() Quote {
	return s.fallback[s.rng.Intn(len(s.fallback))]
}

func (s *QuoteSource) fetch(ctx context.Context, url string) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "multi-monitor-wallpaper/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxQuoteResponse))
	if err != nil {
		return Quote{}, fmt.Errorf("failed to read body: %w", err)
	}

	return parseQuote(body)
}

// Covers quotable, zenquotes and the many services shaped like them
type apiQuote struct {
	Content string `json:"content"`
	Quote   string `json:"quote"`
	Q       string `json:"q"`
	Author  string `json:"author"`
	A       string `json:"a"`
}

var errEmptyQuote = errors.New("response contained no quote")

func parseQuote(body []byte) (Quote, error) {
	body = bytes.TrimSpace(body)

	var aq apiQuote
	if bytes.HasPrefix(body, []byte("[")) {
		var list []apiQuote
		if err := json.Unmarshal(body, &list); err != nil {
			return Quote{}, err
		}
		if len(list) == 0 {
			return Quote{}, errEmptyQuote
		}
		aq = list[0]
	} else if err := json.Unmarshal(body, &aq); err != nil {
		return Quote{}, err
	}

	q := Quote{
		Text:   firstNonEmpty(aq.Content, aq.Quote, aq.Q),
		Author: firstNonEmpty(aq.Author, aq.A),
	}
	q.Text = strings.TrimSpace(html.UnescapeString(q.Text))
	q.Author = strings.TrimSpace(html.UnescapeString(q.Author))

	if q.Text == "" {
		return Quote{}, errEmptyQuote
	}
	if q.Author == "" {
		q.Author = "Unknown"
	}
	return q, nil
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
