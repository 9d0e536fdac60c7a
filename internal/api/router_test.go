package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookshelf/book-api/internal/core/domain"
	"github.com/bookshelf/book-api/internal/core/ports"
	"github.com/bookshelf/book-api/internal/core/service"
	"github.com/bookshelf/book-api/internal/infrastructure/credentials"
)

// memBookRepo is an in-memory ports.BookRepository.
type memBookRepo struct {
	mu     sync.Mutex
	nextID int64
	books  map[int64]domain.Book
}

func newMemBookRepo() *memBookRepo {
	return &memBookRepo{books: map[int64]domain.Book{}}
}

func (r *memBookRepo) sorted() []domain.Book {
	out := make([]domain.Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memBookRepo) FindAll(context.Context) ([]domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(), nil
}

func (r *memBookRepo) FindPage(_ context.Context, req ports.PageRequest) ([]domain.Book, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted()
	total := int64(len(all))
	if req.Offset() >= len(all) {
		return nil, total, nil
	}
	end := min(req.Offset()+req.Size, len(all))
	return all[req.Offset():end], total, nil
}

func (r *memBookRepo) FindByID(_ context.Context, id int64) (*domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	return &b, nil
}

func (r *memBookRepo) filter(match func(domain.Book) bool) []domain.Book {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Book
	for _, b := range r.sorted() {
		if match(b) {
			out = append(out, b)
		}
	}
	return out
}

func (r *memBookRepo) FindByName(_ context.Context, name string) ([]domain.Book, error) {
	return r.filter(func(b domain.Book) bool { return b.Name == name }), nil
}

func (r *memBookRepo) FindByAuthor(_ context.Context, author string) ([]domain.Book, error) {
	return r.filter(func(b domain.Book) bool { return b.Author == author }), nil
}

func (r *memBookRepo) Create(_ context.Context, b *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	b.ID = r.nextID
	r.books[b.ID] = *b
	return nil
}

func (r *memBookRepo) Update(_ context.Context, b *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[b.ID]; !ok {
		return domain.ErrBookNotFound
	}
	r.books[b.ID] = *b
	return nil
}

func (r *memBookRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return domain.ErrBookNotFound
	}
	delete(r.books, id)
	return nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.SystemUser
}

func (r *memUserRepo) Name() string { return "memory" }

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*domain.SystemUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *memUserRepo) Create(_ context.Context, u *domain.SystemUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Username]; ok {
		return domain.ErrUserExists
	}
	u.ID = int64(len(r.users) + 1)
	r.users[u.Username] = *u
	return nil
}

func mustDigest(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return "{bcrypt}" + string(h)
}

type testServer struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()

	bootstrap := credentials.NewStatic(
		domain.SystemUser{Username: "janainamai", Password: mustDigest(t, "admin"), Authorities: []string{domain.RoleUser, domain.RoleAdmin}},
		domain.SystemUser{Username: "heloisatheiss", Password: mustDigest(t, "admin"), Authorities: []string{domain.RoleUser}},
	)
	users := &memUserRepo{users: map[string]domain.SystemUser{}}

	e := NewRouter(Deps{
		Books:                service.NewBookService(newMemBookRepo(), log),
		Users:                service.NewUserService(users, nil, log),
		Authenticator:        service.NewAuthService(log, bootstrap, users),
		Logger:               log,
		Realm:                "bookapi",
		NotFoundAsBadRequest: true,
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv}
}

func (s *testServer) do(method, path, user, password, body string) (*http.Response, []byte) {
	s.t.Helper()
	req, err := http.NewRequest(method, s.srv.URL+path, strings.NewReader(body))
	if err != nil {
		s.t.Fatalf("request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.SetBasicAuth(user, password)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.t.Fatalf("do %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (s *testServer) admin(method, path, body string) (*http.Response, []byte) {
	return s.do(method, path, "janainamai", "admin", body)
}

func TestRouter_BookLifecycle(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.admin(http.MethodPost, "/books/admin", `{"name":"Book","autor":"Neil"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %s", resp.StatusCode, body)
	}
	var created domain.Book
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if created.ID == 0 || created.Name != "Book" || created.Author != "Neil" {
		t.Fatalf("unexpected book %+v", created)
	}
	path := "/books/" + strconv.FormatInt(created.ID, 10)

	resp, body = s.admin(http.MethodGet, path, "")
	var fetched domain.Book
	_ = json.Unmarshal(body, &fetched)
	if resp.StatusCode != http.StatusOK || fetched != created {
		t.Fatalf("get: %d %+v", resp.StatusCode, fetched)
	}

	replace := `{"id":` + strconv.FormatInt(created.ID, 10) + `,"name":"Another","autor":"Neil"}`
	if resp, body = s.admin(http.MethodPut, "/books/admin", replace); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("replace: expected 204, got %d %s", resp.StatusCode, body)
	}

	_, body = s.admin(http.MethodGet, path, "")
	if !strings.Contains(string(body), `"name":"Another"`) {
		t.Fatalf("replace not visible: %s", body)
	}

	if resp, _ = s.admin(http.MethodDelete, "/books/admin/"+strconv.FormatInt(created.ID, 10), ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}

	if resp, body = s.admin(http.MethodGet, path, ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("get after delete: expected 400, got %d %s", resp.StatusCode, body)
	}

	if resp, _ = s.admin(http.MethodDelete, "/books/admin/"+strconv.FormatInt(created.ID, 10), ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("second delete: expected 400, got %d", resp.StatusCode)
	}
}

func TestRouter_NonAdminForbidden(t *testing.T) {
	s := newTestServer(t)

	cases := []struct{ method, path, body string }{
		{http.MethodPost, "/books/admin", `{"name":"Book","autor":"Neil"}`},
		{http.MethodPost, "/books/admin", `{}`},
		{http.MethodPut, "/books/admin", `{"id":1,"name":"x","autor":"y"}`},
		{http.MethodDelete, "/books/admin/1", ""},
		{http.MethodPost, "/users/admin", `{"username":"x","password":"y"}`},
	}
	for _, tc := range cases {
		resp, body := s.do(tc.method, tc.path, "heloisatheiss", "admin", tc.body)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d %s", tc.method, tc.path, resp.StatusCode, body)
		}
	}

	if resp, _ := s.do(http.MethodGet, "/books", "heloisatheiss", "admin", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("list as user: expected 200, got %d", resp.StatusCode)
	}
}

func TestRouter_Unauthenticated(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(http.MethodGet, "/books", "", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("WWW-Authenticate"); got != `Basic realm="bookapi"` {
		t.Fatalf("unexpected challenge %q", got)
	}
	if !strings.Contains(string(body), "missing_credentials") {
		t.Fatalf("expected reason in body: %s", body)
	}

	if resp, _ = s.do(http.MethodGet, "/books", "janainamai", "wrong", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", resp.StatusCode)
	}

	if resp, _ = s.do(http.MethodGet, "/health", "", "", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("health must stay open, got %d", resp.StatusCode)
	}
}

func TestRouter_ValidationPayload(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.admin(http.MethodPost, "/books/admin", `{"name":"","autor":"Neil"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"field":"name"`) {
		t.Fatalf("expected field error, got %s", body)
	}
}

func TestRouter_CreatedUserCanAuthenticate(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.admin(http.MethodPost, "/users/admin", `{"name":"Bob","username":"bob","password":"s3cret","authorities":["user"]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d %s", resp.StatusCode, body)
	}

	if resp, _ = s.admin(http.MethodPost, "/users/admin", `{"username":"bob","password":"other"}`); resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", resp.StatusCode)
	}

	resp, body = s.do(http.MethodGet, "/users/me", "bob", "s3cret", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}
	var p domain.Principal
	_ = json.Unmarshal(body, &p)
	if p.Username != "bob" || p.Source != "memory" || !p.HasAuthority(domain.RoleUser) {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestRouter_PagingAndSearch(t *testing.T) {
	s := newTestServer(t)

	for _, b := range []string{`{"name":"A","autor":"Neil"}`, `{"name":"B","autor":"Terry"}`, `{"name":"C","autor":"Neil"}`} {
		if resp, body := s.admin(http.MethodPost, "/books/admin", b); resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed: %d %s", resp.StatusCode, body)
		}
	}

	resp, body := s.admin(http.MethodGet, "/books/listPageable?page=1&size=2", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("page: %d", resp.StatusCode)
	}
	var page map[string]any
	_ = json.Unmarshal(body, &page)
	if page["totalElements"] != float64(3) || page["numberOfElements"] != float64(1) || page["last"] != true {
		t.Fatalf("unexpected page %s", body)
	}

	_, body = s.admin(http.MethodGet, "/books/listPageable?page=4611686018427387904&size=20", "")
	page = nil
	_ = json.Unmarshal(body, &page)
	if page["totalElements"] != float64(3) || page["numberOfElements"] != float64(0) || page["empty"] != true {
		t.Fatalf("huge page must be empty, got %s", body)
	}

	_, body = s.admin(http.MethodGet, "/books/find?autor=Neil", "")
	var byAuthor []domain.Book
	_ = json.Unmarshal(body, &byAuthor)
	if len(byAuthor) != 2 {
		t.Fatalf("expected 2 books by Neil, got %s", body)
	}

	_, body = s.admin(http.MethodGet, "/books/find/Nope", "")
	if strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("expected empty list, got %s", body)
	}

	// "admin" as a path parameter value is not an admin route.
	if resp, _ = s.do(http.MethodGet, "/books/find/admin", "heloisatheiss", "admin", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("find/admin as user: expected 200, got %d", resp.StatusCode)
	}
}

func TestRouter_CreateUserPasswordTooLong(t *testing.T) {
	s := newTestServer(t)

	body := `{"username":"bob","password":"` + strings.Repeat("x", service.MaxPasswordBytes+1) + `"}`
	resp, data := s.admin(http.MethodPost, "/users/admin", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", resp.StatusCode, data)
	}
	if !strings.Contains(string(data), `"field":"password"`) {
		t.Fatalf("expected password field error, got %s", data)
	}
}
