package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/kairosync/internal/adapters/http/api"
	"github.com/okian/kairosync/internal/adapters/ical"
	service "github.com/okian/kairosync/internal/app"
	"github.com/okian/kairosync/internal/domain/model"
	"github.com/okian/kairosync/internal/domain/types"
)

var _ api.Dependencies = (*service.Service)(nil)

var noon = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func newRouter() http.Handler {
	clock := func() time.Time { return noon }
	svc := service.New(service.WithClock(clock))
	r := chi.NewRouter()
	api.NewServer(svc, api.WithClock(clock)).Register(context.Background(), r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

func TestStateEndpoints(t *testing.T) {
	Convey("Given the API on a service frozen at noon UTC", t, func() {
		h := newRouter()

		Convey("GET /state returns the snapshot with a request id", func() {
			w := do(h, http.MethodGet, "/state", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)

			var snap types.Snapshot
			decode(w, &snap)
			So(snap.SelectedUTC, ShouldEqual, 720)
			So(snap.Live, ShouldBeTrue)
			So(snap.Local.LocalTime, ShouldEqual, "20:00")
			So(snap.Remote.LocalTime, ShouldEqual, "12:00")
		})

		Convey("A caller's request id is echoed back", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
		})

		Convey("GET /healthz serves metrics", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("PUT /time accepts minutes", func() {
			w := do(h, http.MethodPut, "/time", `{"utcMinutes":600}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"selectedUtc":600`)

			var stats types.Stats
			decode(do(h, http.MethodGet, "/stats", ""), &stats)
			So(stats.Live, ShouldBeFalse)
			So(stats.SelectedUTC, ShouldEqual, 600)
		})

		Convey("PUT /time accepts text in a user's local time", func() {
			w := do(h, http.MethodPut, "/time", `{"text":"07:15","role":"remote"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"selectedUtc":435`)
		})

		Convey("PUT /time rejects bad input", func() {
			So(do(h, http.MethodPut, "/time", `{"text":"25:99"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPut, "/time", `{}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPut, "/time", `{"minutes":3}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPut, "/time", `not json`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("PUT /day clamps to the navigable range", func() {
			w := do(h, http.MethodPut, "/day", `{"dayOffset":9}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"dayOffset":3`)
		})

		Convey("POST /time/reset returns to the host time", func() {
			do(h, http.MethodPut, "/time", `{"utcMinutes":100}`)
			w := do(h, http.MethodPost, "/time/reset", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"selectedUtc":720`)
		})

		Convey("The modal can be opened and closed", func() {
			So(do(h, http.MethodPut, "/modal", `{"modal":"timejump"}`).Code, ShouldEqual, http.StatusOK)
			var snap types.Snapshot
			decode(do(h, http.MethodGet, "/state", ""), &snap)
			So(snap.Modal, ShouldEqual, types.ModalTimeJump)
			So(snap.Live, ShouldBeFalse)

			So(do(h, http.MethodDelete, "/modal", "").Code, ShouldEqual, http.StatusNoContent)
			So(do(h, http.MethodPut, "/modal", `{"modal":"nope"}`).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestUserEndpoints(t *testing.T) {
	Convey("Given the API", t, func() {
		h := newRouter()

		Convey("GET /users/{role} returns the profile", func() {
			w := do(h, http.MethodGet, "/users/local", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var p model.UserProfile
			decode(w, &p)
			So(p.Name, ShouldEqual, "Alex")
			So(p.TimezoneOffset, ShouldEqual, 8)
		})

		Convey("An unknown role is a bad request", func() {
			So(do(h, http.MethodGet, "/users/mars", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("PUT /users/{role} replaces the profile and keeps the id", func() {
			w := do(h, http.MethodPut, "/users/remote", `{"name":"Sam","location":"Berlin","timezoneOffset":1,"avatarColor":"","busySlots":[9],"sleepSlots":[0]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			var p model.UserProfile
			decode(w, &p)
			So(p.ID, ShouldEqual, "u2")
			So(p.Name, ShouldEqual, "Sam")
		})

		Convey("PUT /users/{role} rejects an out of range offset", func() {
			w := do(h, http.MethodPut, "/users/remote", `{"name":"Sam","timezoneOffset":20}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("PUT /users/{role}/location moves the user to a city", func() {
			w := do(h, http.MethodPut, "/users/remote/location", `{"city":"tokyo, japan"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			var p model.UserProfile
			decode(w, &p)
			So(p.Location, ShouldEqual, "Tokyo, Japan")
			So(p.TimezoneOffset, ShouldEqual, 9)

			So(do(h, http.MethodPut, "/users/remote/location", `{"city":"Atlantis"}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("PUT /users/{role}/sleep wraps past midnight", func() {
			w := do(h, http.MethodPut, "/users/local/sleep", `{"start":22,"end":6}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `[22,23,0,1,2,3,4,5]`)

			So(do(h, http.MethodPut, "/users/local/sleep", `{"start":22,"end":24}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("GET /cities searches the table", func() {
			w := do(h, http.MethodGet, "/cities?q=lon", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "London")

			So(do(h, http.MethodGet, "/cities?q=l", "").Body.String(), ShouldStartWith, "[]")
		})
	})
}

func TestGoldenEndpoints(t *testing.T) {
	Convey("Given the seeded pair at noon UTC", t, func() {
		h := newRouter()

		Convey("Noon is not golden because London is busy", func() {
			var res types.GoldenResult
			decode(do(h, http.MethodGet, "/golden", ""), &res)
			So(res.UTCMinutes, ShouldEqual, 720)
			So(res.Golden, ShouldBeFalse)
		})

		Convey("13:00 UTC is golden", func() {
			var res types.GoldenResult
			decode(do(h, http.MethodGet, "/golden?at=780", ""), &res)
			So(res.Golden, ShouldBeTrue)
			So(res.LocalTime, ShouldEqual, "21:00")
			So(res.RemoteTime, ShouldEqual, "13:00")
		})

		Convey("The next window from noon is 13:00 UTC", func() {
			var res types.GoldenResult
			decode(do(h, http.MethodGet, "/golden/next?from=720", ""), &res)
			So(res.Found, ShouldBeTrue)
			So(res.UTCMinutes, ShouldEqual, 780)
		})

		Convey("A malformed minute is a bad request", func() {
			So(do(h, http.MethodGet, "/golden?at=abc", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestEventEndpoints(t *testing.T) {
	Convey("Given the API", t, func() {
		h := newRouter()

		Convey("A draft can be created, saved, listed, exported and deleted", func() {
			w := do(h, http.MethodPost, "/drafts", `{"type":"call"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			var draft model.CalendarEvent
			decode(w, &draft)
			So(draft.IsDraft(), ShouldBeTrue)
			So(draft.UTCMinutes, ShouldEqual, 720)

			draft.Title = "Evening call"
			body, _ := json.Marshal(draft)
			So(do(h, http.MethodPut, "/drafts", string(body)).Code, ShouldEqual, http.StatusOK)

			w = do(h, http.MethodPost, "/drafts/save", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var saved model.CalendarEvent
			decode(w, &saved)
			So(saved.IsDraft(), ShouldBeFalse)
			So(saved.Title, ShouldEqual, "Evening call")

			So(do(h, http.MethodGet, "/drafts", "").Code, ShouldEqual, http.StatusNotFound)

			var events []model.CalendarEvent
			decode(do(h, http.MethodGet, "/events", ""), &events)
			So(len(events), ShouldEqual, 1)

			decode(do(h, http.MethodGet, "/events?day=1", ""), &events)
			So(len(events), ShouldEqual, 0)

			So(do(h, http.MethodGet, "/events/"+saved.ID, "").Code, ShouldEqual, http.StatusOK)

			w = do(h, http.MethodGet, "/events.ics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "text/calendar")
			So(w.Body.String(), ShouldContainSubstring, "BEGIN:VCALENDAR")
			So(w.Body.String(), ShouldContainSubstring, saved.ID+"@kairosync")

			So(do(h, http.MethodDelete, "/events/"+saved.ID, "").Code, ShouldEqual, http.StatusNoContent)
			So(do(h, http.MethodDelete, "/events/"+saved.ID, "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Saving the same draft twice returns the same event", func() {
			w := do(h, http.MethodPost, "/events", `{"id":"draft-1","type":"date","utcMinutes":60,"duration":90,"title":"Dinner","isConfirmed":true,"dayOffset":1}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			var first, second model.CalendarEvent
			decode(w, &first)
			decode(do(h, http.MethodPost, "/events", `{"id":"draft-1","type":"date","utcMinutes":60,"duration":90,"title":"Dinner","isConfirmed":true,"dayOffset":1}`), &second)
			So(second.ID, ShouldEqual, first.ID)

			var events []model.CalendarEvent
			decode(do(h, http.MethodGet, "/events", ""), &events)
			So(len(events), ShouldEqual, 1)
		})

		Convey("An event can be loaded into the editor", func() {
			var saved model.CalendarEvent
			decode(do(h, http.MethodPost, "/events", `{"id":"draft-2","type":"sleep","utcMinutes":1380,"duration":480,"title":"Sleep"}`), &saved)
			w := do(h, http.MethodPost, "/events/"+saved.ID+"/edit", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var draft model.CalendarEvent
			decode(do(h, http.MethodGet, "/drafts", ""), &draft)
			So(draft.ID, ShouldEqual, saved.ID)

			So(do(h, http.MethodPost, "/events/missing/edit", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Bad drafts are rejected", func() {
			So(do(h, http.MethodPost, "/drafts", `{"type":"party"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/drafts/save", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(h, http.MethodPut, "/drafts", `{"id":"draft-x","type":"call"}`).Code, ShouldEqual, http.StatusNotFound)
			So(do(h, http.MethodDelete, "/drafts", "").Code, ShouldEqual, http.StatusNoContent)
		})

		Convey("A calendar feed can be imported", func() {
			var buf bytes.Buffer
			err := ical.Encode(&buf, []model.CalendarEvent{
				{ID: "42", Type: model.EventCall, UTCMinutes: 780, Duration: 30, Title: "Check-in", IsConfirmed: true},
			}, noon)
			So(err, ShouldBeNil)

			req := httptest.NewRequest(http.MethodPost, "/events.ics", &buf)
			req.Header.Set("Content-Type", "text/calendar")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"saved":1`)

			var events []model.CalendarEvent
			decode(do(h, http.MethodGet, "/events", ""), &events)
			So(len(events), ShouldEqual, 1)
			So(events[0].UTCMinutes, ShouldEqual, 780)
		})

		Convey("A foreign feed's undated entries count as skipped", func() {
			feed := strings.Join([]string{
				"BEGIN:VCALENDAR",
				"VERSION:2.0",
				"PRODID:-//Google Inc//Google Calendar 70.9054//EN",
				"BEGIN:VEVENT",
				"UID:abc123@google.com",
				"DTSTAMP:20260510T090000Z",
				"DTSTART:20260510T140000Z",
				"SUMMARY:Standup",
				"END:VEVENT",
				"BEGIN:VEVENT",
				"UID:undated@google.com",
				"DTSTAMP:20260510T090000Z",
				"SUMMARY:Someday",
				"END:VEVENT",
				"END:VCALENDAR",
				"",
			}, "\r\n")
			req := httptest.NewRequest(http.MethodPost, "/events.ics", strings.NewReader(feed))
			req.Header.Set("Content-Type", "text/calendar")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"saved":1`)
			So(w.Body.String(), ShouldContainSubstring, `"skipped":1`)

			var events []model.CalendarEvent
			decode(do(h, http.MethodGet, "/events", ""), &events)
			So(len(events), ShouldEqual, 1)
			So(events[0].ID, ShouldEqual, "1778414400000")
			So(events[0].Title, ShouldEqual, "Standup")
		})
	})
}

func TestGestureEndpoints(t *testing.T) {
	Convey("Given the API", t, func() {
		h := newRouter()

		Convey("The helix drag moves and snaps the selected minute", func() {
			w := do(h, http.MethodPost, "/gestures/helix/start", `{"y":500}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"active":true`)

			w = do(h, http.MethodPost, "/gestures/helix/move", `{"y":460}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"active":true`)

			w = do(h, http.MethodPost, "/gestures/helix/end", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"selectedUtc":735`)
		})

		Convey("The dial reports the passive user", func() {
			So(do(h, http.MethodPost, "/gestures/dial/select", `{"role":"remote"}`).Code, ShouldEqual, http.StatusOK)
			w := do(h, http.MethodGet, "/gestures/dial/passive", "")
			So(w.Body.String(), ShouldContainSubstring, `"role":"local"`)
			So(w.Body.String(), ShouldContainSubstring, `"localMinutes":1200`)

			So(do(h, http.MethodPost, "/gestures/dial/select", `{"role":"moon"}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Dial text is read in the active user's local time", func() {
			w := do(h, http.MethodPost, "/gestures/dial/text", `{"text":"07:15"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"selectedUtc":1395`)
			So(do(h, http.MethodPost, "/gestures/dial/text", `{"text":"7"}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A dial gesture starts and ends", func() {
			So(do(h, http.MethodPost, "/gestures/dial/start", "").Body.String(), ShouldContainSubstring, `"active":true`)
			So(do(h, http.MethodPost, "/gestures/dial/move", `{"px":200,"py":100,"cx":100,"cy":100}`).Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodPost, "/gestures/dial/end", "").Body.String(), ShouldContainSubstring, `"active":true`)
		})
	})
}
