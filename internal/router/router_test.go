package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/shareride/internal/ipchecker"
	"github.com/patric-chuzhbe/shareride/internal/metrics"
	"github.com/patric-chuzhbe/shareride/internal/session"
	"github.com/patric-chuzhbe/shareride/internal/session/sessionmock"
)

const (
	testCookieName = "shareride_session"
	testLoginPath  = "/login"
)

var testSigningKey = []byte("router-test-signing-key")

type fakeDB struct {
	err error
}

func (f *fakeDB) Ping(context.Context) error {
	return f.err
}

type initOption func(*initOptions)

type initOptions struct {
	db            pinger
	store         session.Store
	trustedSubnet string
}

func withStore(store session.Store) initOption {
	return func(options *initOptions) {
		options.store = store
	}
}

func withDB(db pinger) initOption {
	return func(options *initOptions) {
		options.db = db
	}
}

func withTrustedSubnet(subnet string) initOption {
	return func(options *initOptions) {
		options.trustedSubnet = subnet
	}
}

func setupTestRouter(t *testing.T, optionsProto ...initOption) (*httptest.Server, *session.Manager) {
	t.Helper()

	options := &initOptions{
		db:    &fakeDB{},
		store: session.NewMemoryStore(),
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	gate, err := ipchecker.New(options.trustedSubnet)
	require.NoError(t, err)

	manager := session.NewManager(options.store, testCookieName, testSigningKey, time.Hour)
	server := httptest.NewServer(New(options.db, manager, testLoginPath, metrics.NewManager("shareride", "test", metrics.NewRegistry()), gate))
	t.Cleanup(server.Close)

	return server, manager
}

func signIn(t *testing.T, manager *session.Manager, values session.Values) *http.Cookie {
	t.Helper()

	recorder := httptest.NewRecorder()
	_, err := manager.Issue(context.Background(), recorder, values)
	require.NoError(t, err)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)

	return cookies[0]
}

func newClient() *resty.Client {
	return resty.New().SetRedirectPolicy(
		resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}),
	)
}

func TestGetDashboard(t *testing.T) {
	server, manager := setupTestRouter(t)

	type tExpectedResponse struct {
		code        int
		location    string
		contains    []string
		notContains []string
		contentType string
	}
	testCases := []struct {
		name     string
		cookie   *http.Cookie
		expected tExpectedResponse
	}{
		{
			name:   "no_session",
			cookie: nil,
			expected: tExpectedResponse{
				code:        http.StatusFound,
				location:    testLoginPath,
				notContains: []string{"Welcome", "Find a Ride", "Offer a Ride"},
			},
		},
		{
			name:   "session_without_user_id",
			cookie: signIn(t, manager, session.Values{session.KeyUserFirstName: "Alice"}),
			expected: tExpectedResponse{
				code:        http.StatusFound,
				location:    testLoginPath,
				notContains: []string{"Welcome", "Find a Ride", "Offer a Ride"},
			},
		},
		{
			name:   "forged_cookie",
			cookie: &http.Cookie{Name: testCookieName, Value: "eyJhbGciOiJub25lIn0.e30."},
			expected: tExpectedResponse{
				code:     http.StatusFound,
				location: testLoginPath,
			},
		},
		{
			name: "signed_in",
			cookie: signIn(t, manager, session.Values{
				session.KeyUserID:        "17",
				session.KeyUserFirstName: "Alice",
			}),
			expected: tExpectedResponse{
				code:        http.StatusOK,
				contains:    []string{"Welcome, Alice", "Find a Ride", "Offer a Ride"},
				contentType: "text/html; charset=utf-8",
			},
		},
		{
			name:   "signed_in_without_first_name",
			cookie: signIn(t, manager, session.Values{session.KeyUserID: "18"}),
			expected: tExpectedResponse{
				code:     http.StatusOK,
				contains: []string{"Welcome, ", "Find a Ride", "Offer a Ride"},
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			req := newClient().R()
			if testCase.cookie != nil {
				req.SetCookie(testCase.cookie)
			}

			resp, err := req.Get(server.URL + DashboardPath)
			require.NoError(t, err, "error making HTTP request")

			assert.Equal(t, testCase.expected.code, resp.StatusCode(), "Response code didn't match expected value")
			if testCase.expected.location != "" {
				assert.Equal(t, testCase.expected.location, resp.Header().Get("Location"))
			}
			if testCase.expected.contentType != "" {
				assert.Equal(t, testCase.expected.contentType, resp.Header().Get("Content-Type"))
			}
			for _, fragment := range testCase.expected.contains {
				assert.Contains(t, resp.String(), fragment)
			}
			for _, fragment := range testCase.expected.notContains {
				assert.NotContains(t, resp.String(), fragment)
			}
		})
	}
}

func TestGetDashboardIsIdempotent(t *testing.T) {
	server, manager := setupTestRouter(t)
	cookie := signIn(t, manager, session.Values{
		session.KeyUserID:        "17",
		session.KeyUserFirstName: "Alice",
	})

	var pages []string
	var locations []string
	for i := 0; i < 3; i++ {
		resp, err := newClient().R().SetCookie(cookie).Get(server.URL + DashboardPath)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode())
		pages = append(pages, resp.String())

		resp, err = newClient().R().Get(server.URL + DashboardPath)
		require.NoError(t, err)
		require.Equal(t, http.StatusFound, resp.StatusCode())
		locations = append(locations, resp.Header().Get("Location"))
	}

	for i := 1; i < len(pages); i++ {
		assert.Equal(t, pages[0], pages[i])
		assert.Equal(t, locations[0], locations[i])
	}
}

func TestGetLogout(t *testing.T) {
	server, manager := setupTestRouter(t)
	cookie := signIn(t, manager, session.Values{
		session.KeyUserID:        "17",
		session.KeyUserFirstName: "Alice",
	})

	resp, err := newClient().R().SetCookie(cookie).Get(server.URL + LogoutPath)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode())
	assert.Equal(t, testLoginPath, resp.Header().Get("Location"))

	var cleared *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == testCookieName {
			cleared = c
		}
	}
	require.NotNil(t, cleared, "the session cookie must be cleared")
	assert.Empty(t, cleared.Value)

	// The old cookie no longer opens the dashboard.
	resp, err = newClient().R().SetCookie(cookie).Get(server.URL + DashboardPath)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode())
}

func TestGetLogoutStoreFailure(t *testing.T) {
	store := &sessionmock.StoreMock{}
	store.On("Save", mock.Anything, mock.Anything, mock.Anything, time.Hour).Return(nil).Once()
	store.On("Load", mock.Anything, mock.Anything).
		Return(session.Values{session.KeyUserID: "17"}, nil).Once()
	store.On("Delete", mock.Anything, mock.Anything).Return(errors.New("redis: connection pool timeout")).Once()

	server, manager := setupTestRouter(t, withStore(store))
	cookie := signIn(t, manager, session.Values{session.KeyUserID: "17"})

	resp, err := newClient().R().SetCookie(cookie).Get(server.URL + LogoutPath)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())

	store.AssertExpectations(t)
}

func TestGetPing(t *testing.T) {
	testCases := []struct {
		name     string
		db       pinger
		wantCode int
	}{
		{name: "alive", db: &fakeDB{}, wantCode: http.StatusOK},
		{name: "down", db: &fakeDB{err: errors.New("driver: bad connection")}, wantCode: http.StatusInternalServerError},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server, _ := setupTestRouter(t, withDB(testCase.db))

			resp, err := newClient().R().Get(server.URL + PingPath)
			require.NoError(t, err)
			assert.Equal(t, testCase.wantCode, resp.StatusCode())
		})
	}
}

func TestGetMetrics(t *testing.T) {
	testCases := []struct {
		name     string
		subnet   string
		wantCode int
	}{
		{name: "trusted_loopback", subnet: "127.0.0.0/8", wantCode: http.StatusOK},
		{name: "no_trusted_subnet", subnet: "", wantCode: http.StatusForbidden},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server, _ := setupTestRouter(t, withTrustedSubnet(testCase.subnet))

			_, err := newClient().R().Get(server.URL + DashboardPath)
			require.NoError(t, err)

			resp, err := newClient().R().Get(fmt.Sprintf("%s%s", server.URL, MetricsPath))
			require.NoError(t, err)
			assert.Equal(t, testCase.wantCode, resp.StatusCode())
			if testCase.wantCode == http.StatusOK {
				assert.Contains(t, resp.String(), `status="302"`)
			}
		})
	}
}
