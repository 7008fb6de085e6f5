package store

import (
	"strings"
	"unicode/utf8"

	"github.com/matheus3301/crmchat/internal/chat"
)

const snippetRadius = 32

// SearchMessages finds archived messages whose body contains query
// (case-insensitive), newest first. A non-zero k restricts the search to
// that conversation.
func (db *DB) SearchMessages(query string, k chat.Key, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}

	q := `
		SELECT msg_id, sender_id, sender_name, recipient, group_id, body, file, file_name, created_at, conv_key
		FROM messages
		WHERE body LIKE ? ESCAPE '\'`
	args := []any{"%" + escapeLike(query) + "%"}
	if !k.IsZero() {
		q += " AND conv_key = ?"
		args = append(args, k.String())
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	results := []SearchResult{}
	for rows.Next() {
		var convKey string
		m, err := scanMessage(rows, &convKey)
		if err != nil {
			return nil, err
		}
		key, err := chat.ParseKey(convKey)
		if err != nil {
			continue
		}
		results = append(results, SearchResult{Key: key, Message: m, Snippet: snippet(m.Body, query)})
	}
	return results, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// snippet cuts body around the first case-insensitive match of query and
// marks the match with << >>.
func snippet(body, query string) string {
	i := strings.Index(strings.ToLower(body), strings.ToLower(query))
	if i < 0 || len(strings.ToLower(body)) != len(body) {
		return body
	}
	start := max(0, i-snippetRadius)
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}
	end := min(len(body), i+len(query)+snippetRadius)
	for end < len(body) && !utf8.RuneStart(body[end]) {
		end++
	}
	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(body[start:i])
	b.WriteString("<<")
	b.WriteString(body[i : i+len(query)])
	b.WriteString(">>")
	b.WriteString(body[i+len(query) : end])
	if end < len(body) {
		b.WriteString("...")
	}
	return b.String()
}
