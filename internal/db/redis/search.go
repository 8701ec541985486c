package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/wikiquery/internal/db"
)

// SearchText runs a scored full-text search via FT.SEARCH. Only keys and scores are returned.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Field == "" {
		return nil, fmt.Errorf("field is required")
	}
	if q.TopK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	queryStr := buildTextQuery(q)
	if queryStr == "" {
		return nil, fmt.Errorf("query is required")
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(
		q.IndexName, queryStr,
		"WITHSCORES", "NOCONTENT",
		"LIMIT", "0", strconv.Itoa(q.TopK),
		"DIALECT", "2",
	).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseScoredKeys(raw)
}

// SearchTag lists the keys whose TAG field holds any of the values via FT.SEARCH.
func (s *Store) SearchTag(ctx context.Context, q *db.TagQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Field == "" || len(q.Values) == 0 {
		return nil, fmt.Errorf("field and values are required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(
		q.IndexName, buildTagQuery(q.Field, q.Values),
		"NOCONTENT",
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseKeys(raw)
}

// --- Result parsing ---

func parseTotal(raw []rueidis.RedisMessage) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse total: %w", err)
	}
	return int(total), nil
}

// parseScoredKeys reads a WITHSCORES NOCONTENT reply: [total, key1, score1, key2, score2, ...].
func parseScoredKeys(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	total, err := parseTotal(raw)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}
		entries = append(entries, db.SearchEntry{Key: key, Score: score})
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

// parseKeys reads a NOCONTENT reply: [total, key1, key2, ...].
func parseKeys(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	total, err := parseTotal(raw)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		entries = append(entries, db.SearchEntry{Key: key})
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

// --- Query building ---

// buildTextQuery renders @field:(t1 t2) for AND and @field:(t1 | t2) for OR.
// Phrases are quoted; fuzzy terms become %word% per word.
func buildTextQuery(q *db.TextQuery) string {
	parts := make([]string, 0, len(q.Terms))
	for _, t := range q.Terms {
		if p := buildTerm(t); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	sep := " | "
	if q.MatchAll {
		sep = " "
	}
	return fmt.Sprintf("@%s:(%s)", q.Field, strings.Join(parts, sep))
}

func buildTerm(t db.TextTerm) string {
	words := strings.Fields(t.Text)
	if len(words) == 0 {
		return ""
	}
	for i, w := range words {
		words[i] = escapeQuery(w)
	}
	if t.Fuzzy {
		for i, w := range words {
			words[i] = "%" + w + "%"
		}
		if len(words) == 1 {
			return words[0]
		}
		return "(" + strings.Join(words, " ") + ")"
	}
	if len(words) == 1 {
		return words[0]
	}
	return `"` + strings.Join(words, " ") + `"`
}

func buildTagQuery(field string, values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return fmt.Sprintf("@%s:{%s}", field, strings.Join(escaped, " | "))
}

// --- Query helpers ---

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
	`.`, `\.`,
	`,`, `\,`,
)
