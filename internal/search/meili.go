package search

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const (
	idxQuestions = "stackit_questions"
	idxAnswers   = "stackit_answers"
	idxUsers     = "stackit_users"
	idxTags      = "stackit_tags"

	snippetLength = 160
)

// Meili implements Engine on Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

var _ Engine = (*Meili)(nil)

// NewMeili creates the client and configures indexes when the server is up.
// An unreachable server is retried by a background health loop.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))
	m := &Meili{client: client, done: make(chan struct{})}

	if _, err := client.Health(); err != nil {
		slog.Warn("search: meilisearch unavailable", "url", url, "error", err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		searchable []string
		filterable []string
	}{
		{idxQuestions, []string{"title", "description", "tags"}, []string{"tags", "authorId"}},
		{idxAnswers, []string{"content"}, []string{"questionId", "authorId", "isAccepted"}},
		{idxUsers, []string{"username"}, nil},
		{idxTags, []string{"name", "description"}, nil},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: idx.uid, PrimaryKey: "id"}); err != nil {
			slog.Debug("search: create index (may already exist)", "index", idx.uid, "error", err)
		}
		index := m.client.Index(idx.uid)
		if _, err := index.UpdateSearchableAttributes(&idx.searchable); err != nil {
			slog.Warn("search: update searchable attributes", "index", idx.uid, "error", err)
		}
		if len(idx.filterable) > 0 {
			filterable := make([]interface{}, len(idx.filterable))
			for i, v := range idx.filterable {
				filterable[i] = v
			}
			if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
				slog.Warn("search: update filterable attributes", "index", idx.uid, "error", err)
			}
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				slog.Info("search: meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the health loop.
func (m *Meili) Close() {
	close(m.done)
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

var searchIndexes = []struct {
	uid  string
	rtyp ResultType
}{
	{idxQuestions, ResultQuestion},
	{idxAnswers, ResultAnswer},
	{idxUsers, ResultUser},
	{idxTags, ResultTag},
}

func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	var queries []*meili.SearchRequest
	for _, ti := range searchIndexes {
		if q.Type != "" && q.Type != ti.rtyp {
			continue
		}
		queries = append(queries, &meili.SearchRequest{
			IndexUID:              ti.uid,
			Query:                 q.Text,
			Limit:                 limit,
			Offset:                int64(q.Offset),
			AttributesToHighlight: []string{"*"},
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
		})
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{Queries: queries})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		rtyp := indexToResultType(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, rtyp))
		}
	}
	return results, total, nil
}

func indexToResultType(uid string) ResultType {
	for _, ti := range searchIndexes {
		if ti.uid == uid {
			return ti.rtyp
		}
	}
	return ""
}

func hitToResult(hit meili.Hit, rtyp ResultType) Result {
	r := Result{Type: rtyp, ID: decodeUint(hit, "id")}
	switch rtyp {
	case ResultQuestion:
		r.Title = firstNonBlank(decodeFormattedString(hit, "title"), decodeString(hit, "title"))
		r.Snippet = snippet(firstNonBlank(decodeFormattedString(hit, "description"), decodeString(hit, "description")), snippetLength)
		r.QuestionID = r.ID
	case ResultAnswer:
		r.Snippet = snippet(firstNonBlank(decodeFormattedString(hit, "content"), decodeString(hit, "content")), snippetLength)
		r.QuestionID = decodeUint(hit, "questionId")
	case ResultUser:
		r.Title = firstNonBlank(decodeFormattedString(hit, "username"), decodeString(hit, "username"))
	case ResultTag:
		r.Title = firstNonBlank(decodeFormattedString(hit, "name"), decodeString(hit, "name"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "description"), decodeString(hit, "description"))
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeUint(hit meili.Hit, key string) uint {
	raw, ok := hit[key]
	if !ok {
		return 0
	}
	var n uint
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	// primary keys may come back as strings
	if id, err := strconv.ParseUint(decodeString(hit, key), 10, 64); err == nil {
		return uint(id)
	}
	return 0
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]any
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	s, _ := formatted[key].(string)
	return strings.TrimSpace(s)
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func (m *Meili) IndexQuestion(r QuestionRecord) error {
	_, err := m.client.Index(idxQuestions).AddDocuments([]QuestionRecord{r}, nil)
	return err
}

func (m *Meili) IndexAnswer(r AnswerRecord) error {
	_, err := m.client.Index(idxAnswers).AddDocuments([]AnswerRecord{r}, nil)
	return err
}

func (m *Meili) IndexUser(r UserRecord) error {
	_, err := m.client.Index(idxUsers).AddDocuments([]UserRecord{r}, nil)
	return err
}

func (m *Meili) IndexTag(r TagRecord) error {
	_, err := m.client.Index(idxTags).AddDocuments([]TagRecord{r}, nil)
	return err
}

func (m *Meili) DeleteQuestion(id uint) error {
	_, err := m.client.Index(idxQuestions).DeleteDocument(strconv.FormatUint(uint64(id), 10), nil)
	return err
}

func (m *Meili) DeleteAnswer(id uint) error {
	_, err := m.client.Index(idxAnswers).DeleteDocument(strconv.FormatUint(uint64(id), 10), nil)
	return err
}
