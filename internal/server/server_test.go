package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/graph"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/store"
)

const treeJSON = `{
	"name": "Smith",
	"document": {
		"version": 1,
		"nodes": [
			{"id": "john", "display_name": "John"},
			{"id": "mary", "display_name": "Mary"},
			{"id": "ann", "display_name": "Ann"}
		],
		"edges": [
			{"source": "john", "target": "ann", "kind": "parent_child"},
			{"source": "mary", "target": "john", "kind": "spouse"}
		]
	}
}`

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st := store.NewMemory()
	return newTestServerWith(t, st), st
}

func newTestServerWith(t *testing.T, st store.Store) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
	srv := httptest.NewServer(New(runner, st, logger, Config{MaxBodyBytes: 4096}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/healthz", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestImport(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name        string
		query       string
		contentType string
		body        string
		wantStatus  int
		wantCode    string
		wantMembers int
	}{
		{
			name:        "json tabular",
			body:        `[{"id":"1","name":"Alice"},{"id":"2","name":"Bob","parentId":"1"}]`,
			wantStatus:  http.StatusOK,
			wantMembers: 2,
		},
		{
			name:        "csv by content type",
			contentType: "text/csv",
			body:        "id,name,parentId\n1,Alice,\n2,Bob,1\n",
			wantStatus:  http.StatusOK,
			wantMembers: 2,
		},
		{
			name:        "yaml by query",
			query:       "?format=yaml",
			body:        "- name: Alice\n- name: Bob\n",
			wantStatus:  http.StatusOK,
			wantMembers: 2,
		},
		{"empty dataset", "", "", `[]`, http.StatusBadRequest, "EMPTY_DATASET", 0},
		{"unsupported shape", "", "", `42`, http.StatusBadRequest, "UNSUPPORTED_FORMAT", 0},
		{"invalid json", "", "", `{`, http.StatusBadRequest, "INVALID_FORMAT", 0},
		{"unknown format", "?format=xml", "", `<a/>`, http.StatusBadRequest, "UNSUPPORTED_FORMAT", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+"/v1/import"+tt.query, tt.contentType, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if got := decode[errorResponse](t, resp); got.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
				}
				return
			}
			got := decode[importResponse](t, resp)
			if len(got.Document.Nodes) != tt.wantMembers {
				t.Errorf("members = %d, want %d", len(got.Document.Nodes), tt.wantMembers)
			}
		})
	}
}

func TestImportBodyTooLarge(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `[{"name":"` + strings.Repeat("x", 8192) + `"}]`
	resp := do(t, http.MethodPost, srv.URL+"/v1/import", "", body)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestLayout(t *testing.T) {
	srv, _ := newTestServer(t)
	var req treeRequest
	if err := json.Unmarshal([]byte(treeJSON), &req); err != nil {
		t.Fatal(err)
	}
	doc, _ := json.Marshal(req.Document)

	resp := do(t, http.MethodPost, srv.URL+"/v1/layout?kind=vertical", "application/json", string(doc))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	lay := decode[graph.LayoutDocument](t, resp)
	if lay.Kind != "vertical" || len(lay.Nodes) != 3 {
		t.Fatalf("layout = %+v", lay)
	}
	for _, n := range lay.Nodes {
		if n.ID == "mary" && (n.IsInDirectLineage || n.Anchor != "john") {
			t.Errorf("mary should be married in beside john: %+v", n)
		}
	}
}

func TestLayoutErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		name       string
		query      string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"bad kind", "?kind=spiral", `{"nodes":[]}`, http.StatusBadRequest, "INVALID_LAYOUT"},
		{"bad spacing", "?horizontal_spacing=-1", `{"nodes":[]}`, http.StatusBadRequest, "INVALID_INPUT"},
		{
			"self reference", "",
			`{"nodes":[{"id":"a","display_name":"A"}],"edges":[{"source":"a","target":"a","kind":"spouse"}]}`,
			http.StatusUnprocessableEntity, "SELF_REFERENCE",
		},
		{
			"unknown member", "",
			`{"nodes":[{"id":"a","display_name":"A"}],"edges":[{"source":"a","target":"b","kind":"parent_child"}]}`,
			http.StatusUnprocessableEntity, "UNKNOWN_MEMBER",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+"/v1/layout"+tt.query, "application/json", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if got := decode[errorResponse](t, resp); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestTreesCRUD(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/v1/trees"

	if resp := do(t, http.MethodPut, base+"/smith", "application/json", treeJSON); resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}

	resp := do(t, http.MethodGet, base+"/smith", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d", resp.StatusCode)
	}
	tree := decode[store.Tree](t, resp)
	if tree.Name != "Smith" || len(tree.Document.Edges) != 2 {
		t.Errorf("tree = %+v", tree)
	}

	resp = do(t, http.MethodPost, base, "application/json", treeJSON)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d", resp.StatusCode)
	}
	created := decode[store.Tree](t, resp)
	if created.ID == "" || created.ID == "smith" {
		t.Errorf("created id = %q", created.ID)
	}

	resp = do(t, http.MethodGet, base, "", "")
	if list := decode[[]store.Summary](t, resp); len(list) != 2 {
		t.Errorf("list = %+v", list)
	}

	if resp := do(t, http.MethodDelete, base+"/smith", "", ""); resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, base+"/smith", "", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete status = %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodDelete, base+"/smith", "", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("second DELETE status = %d", resp.StatusCode)
	}
}

func TestPutTreeRejectsInvalid(t *testing.T) {
	srv, st := newTestServer(t)
	body := `{"document":{"nodes":[{"id":"a","display_name":"  "}]}}`
	resp := do(t, http.MethodPut, srv.URL+"/v1/trees/bad", "application/json", body)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if list, _ := st.List(t.Context()); len(list) != 0 {
		t.Errorf("invalid tree was stored: %+v", list)
	}
}

func TestTreeLayoutStoredAndReused(t *testing.T) {
	srv, st := newTestServer(t)
	base := srv.URL + "/v1/trees/smith"
	do(t, http.MethodPut, base, "application/json", treeJSON)

	resp := do(t, http.MethodGet, base+"/layout?kind=radial", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Cache") != "miss" {
		t.Errorf("first layout X-Cache = %q", resp.Header.Get("X-Cache"))
	}

	tree, err := st.Load(t.Context(), "smith")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tree.Layouts["radial"]; !ok {
		t.Fatal("layout should be saved with the tree")
	}

	resp = do(t, http.MethodGet, base+"/layout?kind=radial", "", "")
	if resp.Header.Get("X-Cache") != "hit" {
		t.Errorf("second layout X-Cache = %q", resp.Header.Get("X-Cache"))
	}

	// Replacing the tree drops stale layouts.
	do(t, http.MethodPut, base, "application/json", treeJSON)
	tree, _ = st.Load(t.Context(), "smith")
	if len(tree.Layouts) != 0 {
		t.Errorf("layouts survived replace: %v", tree.Layouts)
	}
}

func TestRenderDOT(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/v1/trees/smith"
	do(t, http.MethodPut, base, "application/json", treeJSON)

	resp := do(t, http.MethodGet, base+"/render?format=dot", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q", ct)
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `"john" -- "ann"`) {
		t.Errorf("unexpected DOT:\n%s", buf.String())
	}

	if resp := do(t, http.MethodGet, base+"/render?format=png", "", ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("png status = %d, want 400", resp.StatusCode)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/nope", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{io.EOF, http.StatusInternalServerError},
		{errors.New(errors.ErrCodeNotFound, "tree"), http.StatusNotFound},
		{errors.New(errors.ErrCodeConflict, "tree"), http.StatusConflict},
		{errors.New(errors.ErrCodeInvalidLayout, "kind"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeSelfReference, "loop"), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// interleavedStore runs afterLoad once, right after the first Load returns,
// to simulate a write landing while a request works on its snapshot.
type interleavedStore struct {
	store.Store
	once      sync.Once
	afterLoad func(ctx context.Context, st store.Store)
}

func (s *interleavedStore) Load(ctx context.Context, id string) (*store.Tree, error) {
	t, err := s.Store.Load(ctx, id)
	s.once.Do(func() { s.afterLoad(ctx, s.Store) })
	return t, err
}

func smithTree() *store.Tree {
	return &store.Tree{
		ID:   "smith",
		Name: "Smith",
		Document: graph.Document{
			Version: graph.Version,
			Nodes: []graph.Node{
				{ID: "john", DisplayName: "John"},
				{ID: "mary", DisplayName: "Mary"},
				{ID: "ann", DisplayName: "Ann"},
			},
			Edges: []graph.Edge{{ID: "parent_child:john:ann", Source: "john", Target: "ann", Kind: "parent_child"}},
		},
	}
}

func TestTreeLayoutConcurrentWrite(t *testing.T) {
	tests := []struct {
		name      string
		afterLoad func(ctx context.Context, st store.Store)
		check     func(t *testing.T, st store.Store)
	}{
		{
			name: "delete",
			afterLoad: func(ctx context.Context, st store.Store) {
				_ = st.Delete(ctx, "smith")
			},
			check: func(t *testing.T, st store.Store) {
				if _, err := st.Load(t.Context(), "smith"); !errors.Is(err, errors.ErrCodeNotFound) {
					t.Errorf("deleted tree was stored again: err = %v", err)
				}
			},
		},
		{
			name: "replace",
			afterLoad: func(ctx context.Context, st store.Store) {
				time.Sleep(2 * time.Millisecond)
				_ = st.Save(ctx, &store.Tree{
					ID:       "smith",
					Name:     "Jones",
					Document: graph.Document{Version: graph.Version, Nodes: []graph.Node{{ID: "bob", DisplayName: "Bob"}}},
				})
			},
			check: func(t *testing.T, st store.Store) {
				got, err := st.Load(t.Context(), "smith")
				if err != nil {
					t.Fatal(err)
				}
				if got.Name != "Jones" || len(got.Document.Nodes) != 1 {
					t.Errorf("replacement lost: name=%q nodes=%d, want Jones/1", got.Name, len(got.Document.Nodes))
				}
				if len(got.Layouts) != 0 {
					t.Errorf("stale layout stored on replacement: %v", got.Layouts)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemory()
			if err := mem.Save(t.Context(), smithTree()); err != nil {
				t.Fatal(err)
			}
			st := &interleavedStore{Store: mem, afterLoad: tt.afterLoad}
			srv := newTestServerWith(t, st)

			resp := do(t, http.MethodGet, srv.URL+"/v1/trees/smith/layout", "", "")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			tt.check(t, mem)
		})
	}
}
