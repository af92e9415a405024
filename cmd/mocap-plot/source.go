package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/banshee-data/mocap.stream/internal/db"
	"github.com/banshee-data/mocap.stream/internal/httputil"
)

var errNoSessions = errors.New("no recorded sessions")

// trackSource reads recorded tracks either from a database file or from a
// running daemon's HTTP API. Positions are in meters.
type trackSource interface {
	LatestSession(ctx context.Context) (string, error)
	SubjectNames(ctx context.Context, session string) ([]string, error)
	SubjectTrack(ctx context.Context, session, subject string) ([]db.Pose, error)
}

type dbSource struct {
	db *db.DB
}

func (s dbSource) LatestSession(context.Context) (string, error) {
	sessions, err := s.db.Sessions()
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", errNoSessions
	}
	return sessions[0].ID, nil
}

func (s dbSource) SubjectNames(_ context.Context, session string) ([]string, error) {
	return s.db.SubjectNames(session)
}

func (s dbSource) SubjectTrack(_ context.Context, session, subject string) ([]db.Pose, error) {
	return s.db.SubjectTrack(session, subject, 0)
}

type apiSource struct {
	client httputil.HTTPClient
	base   string
}

func newAPISource(client httputil.HTTPClient, base string) apiSource {
	return apiSource{client: client, base: strings.TrimRight(base, "/")}
}

func (s apiSource) LatestSession(ctx context.Context) (string, error) {
	var sessions []db.Session
	if err := httputil.GetJSON(ctx, s.client, s.base+"/api/sessions", &sessions); err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", errNoSessions
	}
	return sessions[0].ID, nil
}

func (s apiSource) SubjectNames(ctx context.Context, session string) ([]string, error) {
	var resp struct {
		Subjects []string `json:"subjects"`
	}
	u := fmt.Sprintf("%s/api/tracks?session=%s", s.base, url.QueryEscape(session))
	if err := httputil.GetJSON(ctx, s.client, u, &resp); err != nil {
		return nil, err
	}
	return resp.Subjects, nil
}

func (s apiSource) SubjectTrack(ctx context.Context, session, subject string) ([]db.Pose, error) {
	var resp struct {
		Poses []db.Pose `json:"poses"`
	}
	q := url.Values{"session": {session}, "subject": {subject}, "units": {"m"}}
	if err := httputil.GetJSON(ctx, s.client, s.base+"/api/tracks?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Poses, nil
}
