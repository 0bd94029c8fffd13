package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/lazypower/thoughtgraph/internal/graph"
)

var ErrInvalidItem = errors.New("invalid item")

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	defaultSearch   = 50
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Item is one stored topic, thought, quote or passage.
type Item struct {
	ID           string     `json:"id" yaml:"id,omitempty"`
	Kind         graph.Kind `json:"type" yaml:"type" validate:"required,oneof=Topic Thought Quote Passage"`
	Title        string     `json:"title" yaml:"title,omitempty" validate:"max=500"`
	Content      string     `json:"content,omitempty" yaml:"content,omitempty"`
	Author       string     `json:"author,omitempty" yaml:"author,omitempty" validate:"max=200"`
	Level        int        `json:"level" yaml:"level,omitempty" validate:"gte=0"`
	ParentID     string     `json:"parent,omitempty" yaml:"parent,omitempty"`
	Size         *float64   `json:"size,omitempty" yaml:"size,omitempty" validate:"omitempty,gt=0"`
	Tags         []string   `json:"tags" yaml:"tags,omitempty" validate:"dive,required,max=64"`
	CreatedAt    time.Time  `json:"created_at" yaml:"-"`
	LastModified time.Time  `json:"last_modified" yaml:"-"`
}

// Validate checks the item's fields before it is written.
func (it *Item) Validate() error {
	if err := validate.Struct(it); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	if it.ParentID != "" && it.ParentID == it.ID {
		return fmt.Errorf("%w: item %q is its own parent", ErrInvalidItem, it.ID)
	}
	return nil
}

// Page is one page of a listing.
type Page struct {
	Results  []Item `json:"results"`
	Count    int    `json:"count"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	HasNext  bool   `json:"has_next"`
}

// TagCount is a tag with the number of items carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

const itemColumns = `id, kind, title, content, author, level, parent_id, size, created_at, last_modified`

// CreateItem inserts an item and its tags. An empty ID is filled with a
// fresh UUID; timestamps are set to now.
func (db *DB) CreateItem(it *Item) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := insertItem(tx, it); err != nil {
		tx.Rollback()
		return err
	}
	if it.ParentID != "" {
		if err := setParent(tx, it.ID, it.ParentID); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// insertItem writes the row without its parent link, so callers loading
// many items can set parents once every row exists.
func insertItem(q querier, it *Item) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.Tags = normalizeTags(it.Tags)
	if err := it.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.LastModified = now

	var size sql.NullFloat64
	if it.Size != nil {
		size = sql.NullFloat64{Float64: *it.Size, Valid: true}
	}
	_, err := q.Exec(`
		INSERT INTO items (id, kind, title, content, author, level, size, created_at, last_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, string(it.Kind), it.Title, it.Content, it.Author, it.Level, size,
		it.CreatedAt.UnixMilli(), it.LastModified.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert item %s: %w", it.ID, err)
	}
	for _, tag := range it.Tags {
		if _, err := q.Exec("INSERT INTO item_tags (item_id, tag) VALUES (?, ?)", it.ID, tag); err != nil {
			return fmt.Errorf("insert tag %q: %w", tag, err)
		}
	}
	return nil
}

func setParent(q querier, id, parentID string) error {
	if err := checkAncestry(q, id, parentID); err != nil {
		return err
	}
	if _, err := q.Exec("UPDATE items SET parent_id = ? WHERE id = ?", parentID, id); err != nil {
		return fmt.Errorf("set parent of %s: %w", id, err)
	}
	return nil
}

// checkAncestry walks up from parentID and rejects the assignment if it
// reaches id, which would close a parent cycle.
func checkAncestry(q querier, id, parentID string) error {
	seen := make(map[string]bool)
	for cur := parentID; cur != "" && !seen[cur]; {
		if cur == id {
			return fmt.Errorf("%w: parent %q of %q would form a cycle", ErrInvalidItem, parentID, id)
		}
		seen[cur] = true

		var next sql.NullString
		err := q.QueryRow("SELECT parent_id FROM items WHERE id = ?", cur).Scan(&next)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("check ancestry of %s: %w", id, err)
		}
		cur = next.String
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// GetItem returns an item by id, or nil if it does not exist.
func (db *DB) GetItem(id string) (*Item, error) {
	items, err := db.queryItems("SELECT "+itemColumns+" FROM items WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// ListItems returns one page of items of the given kind, oldest first.
// An empty kind lists every item.
func (db *DB) ListItems(kind graph.Kind, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	where, args := "", []any{}
	if kind != "" {
		where, args = " WHERE kind = ?", append(args, string(kind))
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM items"+where, args...).Scan(&count); err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	offset := (page - 1) * pageSize
	items, err := db.queryItems(
		"SELECT "+itemColumns+" FROM items"+where+" ORDER BY created_at, id LIMIT ? OFFSET ?",
		append(args, pageSize, offset)...,
	)
	if err != nil {
		return nil, err
	}
	return &Page{
		Results:  items,
		Count:    count,
		Page:     page,
		PageSize: pageSize,
		HasNext:  offset+len(items) < count,
	}, nil
}

// Search matches the query against title, content, author and tags.
func (db *DB) Search(query string, limit int) ([]Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Item{}, nil
	}
	if limit <= 0 {
		limit = defaultSearch
	}
	pattern := "%" + escapeLike(query) + "%"
	return db.queryItems(`
		SELECT `+itemColumns+` FROM items
		WHERE title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\' OR author LIKE ? ESCAPE '\'
		   OR id IN (SELECT item_id FROM item_tags WHERE tag LIKE ? ESCAPE '\')
		ORDER BY title, id
		LIMIT ?`,
		pattern, pattern, pattern, pattern, limit,
	)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ListTags returns every tag with its item count, most used first.
func (db *DB) ListTags() ([]TagCount, error) {
	rows, err := db.Query("SELECT tag, COUNT(*) AS n FROM item_tags GROUP BY tag ORDER BY n DESC, tag")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []TagCount{}
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tc)
	}
	return tags, rows.Err()
}

// ItemsByTag returns every item carrying the tag.
func (db *DB) ItemsByTag(tag string) ([]Item, error) {
	return db.queryItems(`
		SELECT `+itemColumns+` FROM items
		WHERE id IN (SELECT item_id FROM item_tags WHERE tag = ?)
		ORDER BY created_at, id`, tag)
}

// queryItems runs an item query and attaches tags. Rows are drained before
// the tag query so it works on a single-connection pool.
func (db *DB) queryItems(query string, args ...any) ([]Item, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	items, err := scanItems(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if err := db.attachTags(items); err != nil {
		return nil, err
	}
	return items, nil
}

func (db *DB) attachTags(items []Item) error {
	if len(items) == 0 {
		return nil
	}
	pos := make(map[string]int, len(items))
	ids := make([]any, len(items))
	for i := range items {
		pos[items[i].ID] = i
		ids[i] = items[i].ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := db.Query(
		"SELECT item_id, tag FROM item_tags WHERE item_id IN ("+placeholders+") ORDER BY rowid", ids...)
	if err != nil {
		return fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		i := pos[id]
		items[i].Tags = append(items[i].Tags, tag)
	}
	return rows.Err()
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	items := []Item{}
	for rows.Next() {
		var it Item
		var kind string
		var parent sql.NullString
		var size sql.NullFloat64
		var created, modified int64
		if err := rows.Scan(&it.ID, &kind, &it.Title, &it.Content, &it.Author, &it.Level,
			&parent, &size, &created, &modified); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.Kind = graph.Kind(kind)
		it.ParentID = parent.String
		if size.Valid {
			it.Size = &size.Float64
		}
		it.CreatedAt = time.UnixMilli(created).UTC()
		it.LastModified = time.UnixMilli(modified).UTC()
		it.Tags = []string{}
		items = append(items, it)
	}
	return items, rows.Err()
}
