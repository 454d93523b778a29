package scan

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/scan-history/internal/auth"
)

// memoryUserDB is an in-memory auth.UserDB for server tests
type memoryUserDB struct {
	users map[string]*auth.User
}

func (m *memoryUserDB) SaveUser(user *auth.User) error {
	m.users[user.Email] = user
	return nil
}

func (m *memoryUserDB) GetUserByEmail(email string) (*auth.User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return user, nil
}

var _ = Describe("Server", func() {
	var (
		db     *mockDB
		tokens *auth.Service
		server *Server
		ts     *httptest.Server
	)

	BeforeEach(func() {
		db = newMockDB()
		tokens = auth.NewService(&memoryUserDB{users: make(map[string]*auth.User)}, "test-secret", time.Hour)
		service := NewServiceWithDeps(db, &mockIDGenerator{id: "scan-1"}, &mockTimeSource{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)})
		server = NewServer(service, tokens)
		ts = httptest.NewServer(server)
	})

	AfterEach(func() {
		ts.Close()
	})

	postJSON := func(path, token string, body any) *http.Response {
		data, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	get := func(path, token string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
		Expect(err).NotTo(HaveOccurred())
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	signUp := func(email string) string {
		resp := postJSON("/api/auth/register", "", map[string]string{"email": email, "password": "hunter22"})
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		resp = postJSON("/api/auth/login", "", map[string]string{"email": email, "password": "hunter22"})
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var body struct {
			Token string `json:"token"`
		}
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		Expect(body.Token).NotTo(BeEmpty())
		return body.Token
	}

	Describe("auth endpoints", func() {
		It("rejects login with wrong credentials", func() {
			signUp("jane@example.com")
			resp := postJSON("/api/auth/login", "", map[string]string{"email": "jane@example.com", "password": "wrong"})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("rejects registration with a bad email", func() {
			resp := postJSON("/api/auth/register", "", map[string]string{"email": "nope", "password": "hunter22"})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("scan endpoints", func() {
		It("requires a bearer token", func() {
			resp := get("/api/scans", "")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("rejects a garbage token", func() {
			resp := get("/api/scans", "garbage")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("creates and lists scans for the authenticated owner", func() {
			token := signUp("jane@example.com")

			resp := postJSON("/api/scans", token, map[string]string{"data": "https://a.example", "type": "qr"})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var created Record
			Expect(json.NewDecoder(resp.Body).Decode(&created)).To(Succeed())
			resp.Body.Close()
			Expect(created.ID).To(Equal("scan-1"))
			Expect(created.OwnerEmail).To(Equal("jane@example.com"))

			resp = get("/api/scans", token)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var records []*Record
			Expect(json.NewDecoder(resp.Body).Decode(&records)).To(Succeed())
			Expect(records).To(HaveLen(1))
		})

		It("returns a validation fault body for an empty payload", func() {
			token := signUp("jane@example.com")
			resp := postJSON("/api/scans", token, map[string]string{"data": "", "type": "qr"})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			var body map[string]string
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body["category"]).To(Equal("validation"))
		})

		It("keeps owners isolated from each other", func() {
			janeToken := signUp("jane@example.com")
			bobToken := signUp("bob@example.com")

			resp := postJSON("/api/scans", janeToken, map[string]string{"data": "https://a.example", "type": "qr"})
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			resp = get("/api/scans", bobToken)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var records []*Record
			Expect(json.NewDecoder(resp.Body).Decode(&records)).To(Succeed())
			resp.Body.Close()
			Expect(records).To(BeEmpty())

			resp = get("/api/scans/scan-1", bobToken)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
		})

		It("distinguishes not-found from permission", func() {
			token := signUp("jane@example.com")
			resp := get("/api/scans/missing", token)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})
