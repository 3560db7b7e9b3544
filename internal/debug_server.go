package internal

import (
	"chat-hub/domain"
	"chat-hub/repositories"
	"chat-hub/storage"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

var inspectTemplate = template.Must(template.New("inspect").Parse(`<!DOCTYPE html>
<html>
<head><title>chat hub inspect</title></head>
<body>
<form method="get"><input name="prefix" value="{{.Prefix}}"><button>Scan</button></form>
<ul>{{range $k, $v := .Stats}}<li>{{$k}}: {{$v}}</li>{{end}}</ul>
<table>
<tr><th>Key</th><th>Scope</th><th>ID</th><th>Kind</th><th>Author</th><th>Created</th><th>Edited</th><th>Lang</th><th>Detail</th></tr>
{{range .Items}}<tr><td>{{.Key}}</td><td>{{.Scope}}</td><td>{{.ID}}</td><td>{{.Kind}}</td><td>{{.Author}}</td><td>{{.Created}}</td><td>{{.Edited}}</td><td>{{.Lang}}</td><td>{{.Detail}}</td></tr>
{{end}}</table>
</body>
</html>`))

type InspectRow struct {
	Key     string
	Scope   string
	ID      string
	Kind    string
	Author  string
	Created string
	Edited  string
	Lang    string
	Detail  string
}

// RowMapper turns one stored value into display rows, a message log giving one row per message.
type RowMapper func(key string, val []byte) []InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// NewInspectHandler serves a read-only HTML view of the keys under the prefix query parameter.
func NewInspectHandler(db *badger.DB, mapper RowMapper, statsProvider StatsProvider) http.Handler {
	if mapper == nil {
		mapper = DefaultMapper
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = repositories.MessagePrefix
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		err := db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				key := string(item.Key())
				if err := item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(key, val)...)
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = inspectTemplate.Execute(w, data)
	})
}

func DefaultMapper(key string, val []byte) []InspectRow {
	return []InspectRow{{Key: key, Detail: "Size: " + strconv.Itoa(len(val)) + " bytes"}}
}

// StoredEntryMapper decodes message logs and name lists, falling back to DefaultMapper
// for anything it cannot read.
func StoredEntryMapper(key string, val []byte) []InspectRow {
	if key == repositories.RoomsKey || key == repositories.UsersKey {
		names, err := storage.DecodeNames(val)
		if err != nil {
			return DefaultMapper(key, val)
		}
		return []InspectRow{{Key: key, Detail: strings.Join(names, ", ")}}
	}

	scope, err := domain.ParseScope(strings.TrimPrefix(key, repositories.MessagePrefix))
	if err != nil {
		return DefaultMapper(key, val)
	}
	messages, err := storage.DecodeMessageLog(scope, val)
	if err != nil {
		return DefaultMapper(key, val)
	}
	rows := make([]InspectRow, 0, len(messages))
	for _, m := range messages {
		row := InspectRow{
			Key:     key,
			Scope:   scope.Key(),
			ID:      strconv.Itoa(m.ID),
			Kind:    m.Kind.String(),
			Author:  m.Author,
			Created: m.CreatedAt.Format("2006-01-02 15:04:05"),
			Lang:    m.Lang,
			Detail:  m.Body,
		}
		if m.EditedAt != nil {
			row.Edited = m.EditedAt.Format("15:04:05")
		}
		rows = append(rows, row)
	}
	return rows
}
