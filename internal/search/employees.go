package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/employee_registry/internal/models"
)

const DefaultIndex = "employees"

// MaxResultWindow is Elasticsearch's default index.max_result_window.
const MaxResultWindow = 10000

var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"employee_id":  map[string]any{"type": "keyword"},
			"name":         map[string]any{"type": "text"},
			"department":   map[string]any{"type": "text", "fields": map[string]any{"raw": map[string]any{"type": "keyword"}}},
			"salary":       map[string]any{"type": "double"},
			"joining_date": map[string]any{"type": "date", "format": "yyyy-MM-dd"},
			"skills":       map[string]any{"type": "text", "fields": map[string]any{"raw": map[string]any{"type": "keyword"}}},
		},
	},
}

// EmployeeIndex mirrors employee records into an Elasticsearch index for
// free-text lookup. The database stays the source of truth.
type EmployeeIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewEmployeeIndex(es *elasticsearch.Client, index string) *EmployeeIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &EmployeeIndex{ES: es, Index: index}
}

// EnsureIndex creates the index with its mapping unless it already exists.
func (x *EmployeeIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.ES.Indices.Exists([]string{x.Index}, x.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("index exists: %s", res.Status())
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(indexMapping); err != nil {
		return fmt.Errorf("index create: %w", err)
	}
	res, err = x.ES.Indices.Create(x.Index,
		x.ES.Indices.Create.WithContext(ctx),
		x.ES.Indices.Create.WithBody(&buf),
	)
	if err != nil {
		return fmt.Errorf("index create: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index create", res.Status(), res.Body)
	}
	return nil
}

func (x *EmployeeIndex) IndexEmployee(ctx context.Context, emp *models.Employee) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(emp); err != nil {
		return fmt.Errorf("index employee: %w", err)
	}

	res, err := x.ES.Index(x.Index, &buf,
		x.ES.Index.WithContext(ctx),
		x.ES.Index.WithDocumentID(emp.EmployeeID),
	)
	if err != nil {
		return fmt.Errorf("index employee: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index employee", res.Status(), res.Body)
	}
	return nil
}

// DeleteEmployee removes a document; a document that is already gone is not an error.
func (x *EmployeeIndex) DeleteEmployee(ctx context.Context, employeeID string) error {
	res, err := x.ES.Delete(x.Index, employeeID, x.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError("delete employee", res.Status(), res.Body)
	}
	return nil
}

// Search returns the total hit count and one page of matches. Pages beyond
// MaxResultWindow come back empty with the total still reported.
func (x *EmployeeIndex) Search(ctx context.Context, query string, from, size int) (int64, []models.Employee, error) {
	from, size = clampWindow(from, size)

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "department", "skills"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}

	res, err := x.ES.Search(
		x.ES.Search.WithContext(ctx),
		x.ES.Search.WithIndex(x.Index),
		x.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res.Status(), res.Body)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Employee `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode: %w", err)
	}

	emps := make([]models.Employee, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		emps[i] = hit.Source
		if emps[i].Skills == nil {
			emps[i].Skills = []string{}
		}
	}
	return r.Hits.Total.Value, emps, nil
}

func clampWindow(from, size int) (int, int) {
	if from < 0 {
		from = 0
	}
	if size < 0 {
		size = 0
	}
	if from >= MaxResultWindow {
		return 0, 0
	}
	if size > MaxResultWindow-from {
		size = MaxResultWindow - from
	}
	return from, size
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(body, 4<<10))
	return fmt.Errorf("%s: elasticsearch returned %s: %s", op, status, bytes.TrimSpace(b))
}
