package handlers

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wontivero/infotechLibros/internal/catalog"
	"github.com/wontivero/infotechLibros/internal/feed"
	"github.com/wontivero/infotechLibros/internal/media"
	"github.com/wontivero/infotechLibros/internal/models"
	"github.com/wontivero/infotechLibros/internal/orders"
	"github.com/wontivero/infotechLibros/internal/store"
	"github.com/wontivero/infotechLibros/migrations"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	// the genai import starts an opencensus worker that never exits
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

var cordoba = time.FixedZone("ART", -3*60*60)

type testEnv struct {
	t      *testing.T
	app    *App
	broker *feed.Broker
	client *testClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	broker := feed.NewBroker()
	db, err := store.NewStore(":memory:", broker)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.MigrateFS(ctx, migrations.FS))

	books := catalog.NewCache(db)
	require.NoError(t, books.Start(ctx))
	t.Cleanup(books.Close)

	board := orders.NewCache(db)
	require.NoError(t, board.Start(ctx))
	t.Cleanup(board.Close)

	covers, err := media.NewStore(t.TempDir(), "/uploads/")
	require.NoError(t, err)

	tc := NewTemplateCache()
	RegisterFuncs(tc, cordoba)
	require.NoError(t, tc.Load("../../templates"))

	sessionStore := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	sessionStore.Options.Secure = false
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	app := &App{
		Store:        db,
		Catalog:      books,
		Orders:       board,
		Intake:       orders.NewService(db),
		Media:        covers,
		SessionStore: sessionStore,
		Templates:    tc,
		Location:     cordoba,
		Now:          time.Now,
	}

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testEnv{
		t:      t,
		app:    app,
		broker: broker,
		client: &testClient{t: t, h: app.Routes(), jar: jar},
	}
}

// login creates a staff user and signs the client in.
func (e *testEnv) login() {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(e.t, err)
	require.NoError(e.t, e.app.Store.CreateUser(context.Background(), "staff", string(hash)))

	rec := e.client.postForm("/login", url.Values{"username": {"staff"}, "password": {"secret"}})
	require.Equal(e.t, http.StatusSeeOther, rec.Code)
	require.Equal(e.t, "/", rec.Header().Get("Location"))
}

func (e *testEnv) addBook(title string, waitlist bool) models.Book {
	e.t.Helper()
	mono, color := catalog.PagePrices(100)
	b := &models.Book{Title: title, Publisher: "Kapelusz", Pages: 100, PriceMono: mono, PriceColor: color, Waitlist: waitlist}
	require.NoError(e.t, e.app.Store.CreateBook(context.Background(), b))
	require.Eventually(e.t, func() bool {
		_, ok := e.app.Catalog.Get(b.ID)
		return ok
	}, time.Second, 5*time.Millisecond)
	return *b
}

func (e *testEnv) addOrder(recipient string) *models.Order {
	e.t.Helper()
	res, err := e.app.Intake.Create(context.Background(), orders.IntakeForm{
		CustomerName:  "Laura",
		CustomerPhone: "351 555 1234",
		Recipient:     recipient,
		Institution:   "Escuela Normal",
		Grade:         "3B",
		BookTitle:     "Matemática 3",
		Deposit:       "5000",
		Total:         "10000",
	})
	require.NoError(e.t, err)
	o := res.Orders[0]
	e.waitOrders(func(list []models.Order) bool {
		for _, c := range list {
			if c.ID == o.ID {
				return true
			}
		}
		return false
	})
	return o
}

func (e *testEnv) waitOrders(cond func([]models.Order) bool) {
	e.t.Helper()
	require.Eventually(e.t, func() bool { return cond(e.app.Orders.Orders()) }, time.Second, 5*time.Millisecond)
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var baseURL = &url.URL{Scheme: "http", Host: "desk.test"}

// testClient drives the mux in-process and keeps cookies between requests.
type testClient struct {
	t   *testing.T
	h   http.Handler
	jar *cookiejar.Jar
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.jar.Cookies(baseURL) {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	c.jar.SetCookies(baseURL, rec.Result().Cookies())
	return rec
}

func (c *testClient) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, baseURL.String()+path, nil))
}

func (c *testClient) postForm(path string, v url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, baseURL.String()+path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// follow requires a redirect and returns the page it points at.
func (c *testClient) follow(rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	c.t.Helper()
	require.Equal(c.t, http.StatusSeeOther, rec.Code, rec.Body.String())
	return c.get(rec.Header().Get("Location"))
}

func TestRequireLogin(t *testing.T) {
	e := newTestEnv(t)

	rec := e.client.get("/board")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
	require.Contains(t, e.client.follow(rec).Body.String(), "You must be logged in")

	req := httptest.NewRequest(http.MethodPost, baseURL.String()+"/assist/extract", nil)
	req.Header.Set("Accept", "application/json")
	rec = e.client.do(req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "UNAUTHENTICATED")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	e.client.get("/logout")

	rec := e.client.postForm("/login", url.Values{"username": {"staff"}, "password": {"nope"}})
	require.Equal(t, "/login", rec.Header().Get("Location"))
	require.Contains(t, e.client.follow(rec).Body.String(), "Invalid username or password")

	rec = e.client.get("/")
	require.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestLoginThenLogout(t *testing.T) {
	e := newTestEnv(t)
	e.login()

	rec := e.client.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Welcome, staff!")
	require.Contains(t, body, "Log out")

	rec = e.client.get("/logout")
	require.Equal(t, "/login", rec.Header().Get("Location"))
	require.Equal(t, http.StatusSeeOther, e.client.get("/").Code)
}
