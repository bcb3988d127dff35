package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/nxtwiseedu/nxtwise-lms/apps/api/echo"
	"github.com/nxtwiseedu/nxtwise-lms/core"
	"github.com/nxtwiseedu/nxtwise-lms/core/auth"
	"github.com/nxtwiseedu/nxtwise-lms/core/course"
	"github.com/nxtwiseedu/nxtwise-lms/core/progress"
	inmemdb "github.com/nxtwiseedu/nxtwise-lms/storage/database/inmem"
	"github.com/nxtwiseedu/nxtwise-lms/tests/testutil"
)

const courseID = "go-101"

type env struct {
	app      Server
	conf     *core.Config
	sessions *progress.Sessions
	store    progress.Store
	courses  course.Writer

	shutdowns *int32 // SignalShutdown calls
}

func setup(t *testing.T) env {
	conf := core.NewTestConfig()

	// set up DB & repos
	db := inmemdb.Open()
	courses := inmemdb.NewCourseRepository(db)
	store := inmemdb.NewProgressRepository(db)
	testutil.CreateCourse(t, courses, testutil.TwoByTwoCourse(courseID))

	// set up services
	validate, translator := core.NewValidator()
	course.InitValidators(validate, translator)
	courseSvc := course.NewService(courses, store)
	sessions := progress.NewSessions(courseSvc, store, auth.ContextProvider{}, testutil.NopLogger{})

	// set up server
	shutdowns := new(int32)
	app := NewServer(&Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         testutil.NopLogger{},
		Validate:       validate,
		Translator:     translator,
		Sessions:       sessions,
		Courses:        courseSvc,
		SignalShutdown: func() { atomic.AddInt32(shutdowns, 1) },
	})
	return env{app: app, conf: conf, sessions: sessions, store: store, courses: courses, shutdowns: shutdowns}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, conf *core.Config, userID string) string {
	token, err := GenerateToken(conf, NewClaims(conf, userID, ""))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// stateBody is the subset of the state response the tests look at.
type stateBody struct {
	CourseID          string   `json:"courseId"`
	UserID            string   `json:"userId"`
	CurrentModule     string   `json:"currentModule"`
	CurrentSection    string   `json:"currentSection"`
	OverallProgress   float64  `json:"overallProgress"`
	CompletedSections []string `json:"completedSections"`
	Changed           *bool    `json:"changed"`
	Course            struct {
		Modules []struct {
			ID       string `json:"id"`
			Expanded bool   `json:"expanded"`
			Sections []struct {
				ID         string `json:"id"`
				Completed  bool   `json:"completed"`
				Accessible bool   `json:"accessible"`
			} `json:"sections"`
		} `json:"modules"`
	} `json:"course"`
	Current *struct {
		ID             string `json:"id"`
		TotalDuration  int    `json:"totalDuration"`
		PrimaryVideoID string `json:"primaryVideoId"`
	} `json:"current"`
}

func (b stateBody) accessible() map[string]bool {
	acc := make(map[string]bool)
	for _, m := range b.Course.Modules {
		for _, s := range m.Sections {
			acc[s.ID] = s.Accessible
		}
	}
	return acc
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) stateBody {
	t.Helper()
	var body stateBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

// client replays cookies the way a browser would.
type client struct {
	app     Server
	token   string
	cookies []*http.Cookie
}

func (c *client) do(method, path string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, c.token, data...)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	c.app.ServeHTTP(rec, req)
	if cks := rec.Result().Cookies(); len(cks) > 0 {
		c.cookies = cks
	}
	return rec
}
