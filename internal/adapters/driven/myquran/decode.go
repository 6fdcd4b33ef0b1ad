package myquran

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
)

// envelope is the response wrapper used by every endpoint
type envelope struct {
	Status  *bool           `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Field aliases seen across endpoints and API revisions, in order of preference.
var (
	primaryKeys   = []string{"arab", "ar", "arabic", "arabic_text"}
	secondaryKeys = []string{"indo", "terjemah", "translation", "arti"}
	categoryKeys  = []string{"kategori", "category", "grup"}

	// perawi items carry the translation under "id", next to the narrator slug
	perawiSecondaryKeys = append(append([]string(nil), secondaryKeys...), "id")
	numberKeys    = []string{"ayah", "ayat", "nomor", "number", "no", "id"}
)

// titleKeys lists title aliases per content type. Quran verses have no title.
var titleKeys = map[domain.ContentType][]string{
	domain.ContentTypeAsmaulHusna: {"latin", "nama", "name"},
	domain.ContentTypeDoa:         {"judul", "title", "nama", "doa"},
	domain.ContentTypeHadith:      {"judul", "title"},
}

// decodeEnvelope unwraps {status, data}. data may be an object, an array of
// objects, or an object nesting the item (perawi); every shape becomes a list.
func decodeEnvelope(path string, body []byte) ([]map[string]any, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("GET %s: decode envelope: %v: %w", path, err, domain.ErrUpstream)
	}
	if env.Status != nil && !*env.Status {
		return nil, fmt.Errorf("GET %s: %s: %w", path, env.Message, domain.ErrNotFound)
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("GET %s: missing data: %w", path, domain.ErrUpstream)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	switch data[0] {
	case '[':
		var items []map[string]any
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("GET %s: decode data: %v: %w", path, err, domain.ErrUpstream)
		}
		for i, item := range items {
			items[i] = flatten(item)
		}
		return items, nil
	case '{':
		var item map[string]any
		if err := dec.Decode(&item); err != nil {
			return nil, fmt.Errorf("GET %s: decode data: %v: %w", path, err, domain.ErrUpstream)
		}
		return []map[string]any{flatten(item)}, nil
	}
	return nil, fmt.Errorf("GET %s: unexpected data shape: %w", path, domain.ErrUpstream)
}

// flatten lifts the fields of nested objects into the top level. Nested
// fields win over outer ones, so {"id":"bukhari","hadits":{"id":"..."}}
// keeps the hadith translation.
func flatten(item map[string]any) map[string]any {
	out := make(map[string]any, len(item))
	var nested []map[string]any
	for k, v := range item {
		if obj, ok := v.(map[string]any); ok {
			nested = append(nested, obj)
			continue
		}
		out[k] = v
	}
	for _, obj := range nested {
		for k, v := range flatten(obj) {
			out[k] = v
		}
	}
	return out
}

// pickItem returns the item numbered id, or the first one when none carries a number
func pickItem(items []map[string]any, id int) map[string]any {
	for _, item := range items {
		if itemNumber(item, 0) == id {
			return item
		}
	}
	if len(items) > 0 {
		return items[0]
	}
	return nil
}

// itemNumber reads the item's own number, or returns fallback
func itemNumber(item map[string]any, fallback int) int {
	for _, k := range numberKeys {
		n, ok := item[k].(json.Number)
		if !ok {
			continue
		}
		if v, err := strconv.Atoi(n.String()); err == nil {
			return v
		}
	}
	return fallback
}

// toRecord maps one upstream item onto a Record. Fields that are not
// mapped travel in Extra as strings.
func (c *Client) toRecord(col domain.Collection, id int, item map[string]any) (*domain.Record, error) {
	used := make(map[string]bool)
	take := func(keys []string) string {
		for _, k := range keys {
			if s, ok := item[k].(string); ok && strings.TrimSpace(s) != "" {
				used[k] = true
				return s
			}
		}
		return ""
	}

	secondary := secondaryKeys
	if col.Name == domain.CollectionPerawi {
		secondary = perawiSecondaryKeys
	}

	record := &domain.Record{
		ID:            id,
		ContentType:   col.Type,
		Collection:    col.Name,
		SubCollection: col.SubCollection,
		Title:         take(titleKeys[col.Type]),
		PrimaryText:   take(primaryKeys),
		SecondaryText: take(secondary),
	}
	if col.Type == domain.ContentTypeDoa {
		record.Category = doaCategory(item, id, used)
	} else {
		record.Category = strings.ToLower(take(categoryKeys))
	}
	if col.Type == domain.ContentTypeQuran && record.SecondaryText == "" {
		// ayat endpoints carry the translation as "text"
		record.SecondaryText = take([]string{"text"})
	}
	if record.PrimaryText == "" && record.SecondaryText == "" {
		return nil, fmt.Errorf("%s %d: payload has no text: %w", col.Type, id, domain.ErrUpstream)
	}

	for k, v := range item {
		if used[k] {
			continue
		}
		s, ok := extraValue(v)
		if !ok {
			continue
		}
		if record.Extra == nil {
			record.Extra = make(map[string]string)
		}
		record.Extra[k] = s
	}

	c.normalise(record)
	return record, nil
}

// doaCategory accepts an upstream category only when it is one of the known
// tags. Free-text groupings stay in Extra and the category follows the id.
func doaCategory(item map[string]any, id int, used map[string]bool) string {
	for _, k := range categoryKeys {
		s, ok := item[k].(string)
		if !ok {
			continue
		}
		tag := strings.ToLower(strings.TrimSpace(s))
		if _, known := domain.DoaCategoryRange(tag); known {
			used[k] = true
			return tag
		}
	}
	return domain.DoaCategoryFor(id)
}

func extraValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		if val == "" {
			return "", false
		}
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

func (c *Client) normalise(record *domain.Record) {
	if c.normalisers == nil {
		return
	}
	n := c.normalisers.Get(record.ContentType)
	if n == nil {
		return
	}
	record.Title = n.Normalise(record.Title)
	record.PrimaryText = n.Normalise(record.PrimaryText)
	record.SecondaryText = n.Normalise(record.SecondaryText)
}
