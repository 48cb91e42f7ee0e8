package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/dmitrijs2005/bookkeeper/internal/netx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Book struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	Categories []string `json:"categories"`
	Status     string   `json:"status"`
	BorrowedBy *string  `json:"borrowed_by,omitempty"`
}

type Metadata struct {
	CurrentPage  int `json:"current_page"`
	PageSize     int `json:"page_size"`
	FirstPage    int `json:"first_page"`
	LastPage     int `json:"last_page"`
	TotalRecords int `json:"total_records"`
}

type BookPage struct {
	Books    []Book   `json:"books"`
	Metadata Metadata `json:"metadata"`
}

// HTTPClient is a thin JSON client for the BookKeeper API.
type HTTPClient struct {
	baseURL     string
	http        *http.Client
	accessToken string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SetAccessToken(token string) {
	c.accessToken = token
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*Token, error) {
	in := map[string]string{"email": email, "password": password}

	var tok Token
	if err := c.do(ctx, http.MethodPost, "/users/login", in, &tok); err != nil {
		return nil, err
	}
	c.accessToken = tok.AccessToken
	return &tok, nil
}

func (c *HTTPClient) ListBooks(ctx context.Context, page, limit int, title string) (*BookPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if title != "" {
		q.Set("title", title)
	}

	path := "/books"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out BookPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Borrow lends bookID to userID; an empty userID borrows for the caller.
func (c *HTTPClient) Borrow(ctx context.Context, bookID, userID string) (*Book, error) {
	var in any
	if userID != "" {
		in = map[string]string{"user_id": userID}
	}

	var out struct {
		Book Book `json:"book"`
	}
	if err := c.do(ctx, http.MethodPost, "/books/"+url.PathEscape(bookID)+"/borrow", in, &out); err != nil {
		return nil, err
	}
	return &out.Book, nil
}

func (c *HTTPClient) Return(ctx context.Context, bookID string) (*Book, error) {
	var out struct {
		Book Book `json:"book"`
	}
	if err := c.do(ctx, http.MethodPost, "/books/"+url.PathEscape(bookID)+"/return", nil, &out); err != nil {
		return nil, err
	}
	return &out.Book, nil
}

// UploadCover asks the server for a presigned upload URL for bookID and PUTs
// data to it.
func (c *HTTPClient) UploadCover(ctx context.Context, bookID, contentType string, data []byte) error {
	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.do(ctx, http.MethodPut, "/books/"+url.PathEscape(bookID)+"/cover", nil, &out); err != nil {
		return err
	}

	if err := netx.UploadToPresignedURL(ctx, c.http, out.UploadURL, contentType, data); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		js, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(js)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode >= 300 {
		return &APIError{StatusCode: res.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage flattens the {"error": ...} envelope, which holds either a
// string or a map of field errors.
func errorMessage(raw []byte) string {
	var env struct {
		Error jsoniter.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Error) == 0 {
		return strings.TrimSpace(string(raw))
	}

	var s string
	if err := json.Unmarshal(env.Error, &s); err == nil {
		return s
	}

	var fields map[string]string
	if err := json.Unmarshal(env.Error, &fields); err == nil {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+fields[k])
		}
		return strings.Join(parts, "; ")
	}

	return string(env.Error)
}
