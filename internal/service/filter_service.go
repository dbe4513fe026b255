package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"tg-warden/internal/models"
	"tg-warden/internal/storage"
)

const filterCacheSize = 512

type compiledFilter struct {
	keyword string
	reply   string
	re      *regexp.Regexp
}

// FilterService scans inbound messages against a chat's warn filters
// and auto-warns on match. Compiled per-chat filter sets are cached;
// the cache is invalidated whenever a chat's filters change.
type FilterService struct {
	filters *storage.FilterRepository
	warns   *WarnService
	cache   *lru.Cache[int64, []compiledFilter]
}

// NewFilterService creates a new FilterService
func NewFilterService(filters *storage.FilterRepository, warns *WarnService) (*FilterService, error) {
	cache, err := lru.New[int64, []compiledFilter](filterCacheSize)
	if err != nil {
		return nil, err
	}
	return &FilterService{filters: filters, warns: warns, cache: cache}, nil
}

// keywordPattern matches the keyword delimited by word boundaries:
// start/end of text or a non-word character on either side, case
// insensitive. "spam" matches "this is spam!" but not "spammer".
func keywordPattern(keyword string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)(^|\W)` + regexp.QuoteMeta(keyword) + `($|\W)`)
}

func (s *FilterService) chatFilters(chatID int64) ([]compiledFilter, error) {
	if cached, ok := s.cache.Get(chatID); ok {
		return cached, nil
	}

	rows, err := s.filters.ChatFilters(chatID)
	if err != nil {
		return nil, err
	}

	compiled := make([]compiledFilter, 0, len(rows))
	for _, row := range rows {
		re, err := keywordPattern(row.Keyword)
		if err != nil {
			return nil, fmt.Errorf("compiling filter %q for chat %d: %w", row.Keyword, chatID, err)
		}
		compiled = append(compiled, compiledFilter{keyword: row.Keyword, reply: row.Reply, re: re})
	}

	s.cache.Add(chatID, compiled)
	return compiled, nil
}

// MatchAndWarn tests the message text against the chat's filters in
// insertion order. The first matching filter wins and its reply text
// becomes the warning reason; matching stops there. Returns nil when
// nothing matched. Admin authors still pass through the warn engine's
// own immunity check.
func (s *FilterService) MatchAndWarn(ctx context.Context, text string, chatID int64, author *ChatUser) (*WarnResult, error) {
	if text == "" {
		return nil, nil
	}

	filters, err := s.chatFilters(chatID)
	if err != nil {
		return nil, err
	}

	for _, f := range filters {
		if f.re.MatchString(text) {
			return s.warns.ApplyWarning(ctx, author, chatID, f.reply)
		}
	}
	return nil, nil
}

// AddFilter registers a keyword filter for a chat, replacing any
// existing filter with the same keyword.
func (s *FilterService) AddFilter(chatID int64, keyword, reply string) error {
	keyword = strings.TrimSpace(strings.ToLower(keyword))
	if keyword == "" {
		return fmt.Errorf("filter keyword must not be empty")
	}
	if reply == "" {
		return fmt.Errorf("filter reply must not be empty")
	}
	if err := s.filters.AddFilter(chatID, keyword, reply); err != nil {
		return err
	}
	s.cache.Remove(chatID)
	return nil
}

// RemoveFilter deletes a keyword filter. Returns false when no such
// filter existed.
func (s *FilterService) RemoveFilter(chatID int64, keyword string) (bool, error) {
	removed, err := s.filters.RemoveFilter(chatID, keyword)
	if err != nil {
		return false, err
	}
	if removed {
		s.cache.Remove(chatID)
	}
	return removed, nil
}

// ChatFilters lists a chat's filters in insertion order.
func (s *FilterService) ChatFilters(chatID int64) ([]models.WarnFilter, error) {
	return s.filters.ChatFilters(chatID)
}
