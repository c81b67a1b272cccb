package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/infrastructure/storage"
)

func TestInspectionService_InspectPhoto(t *testing.T) {
	photo := encodePNG(t, uniformImage(leafBrown, 32, 32))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(photo)
	}))
	defer srv.Close()

	repo := storage.NewMemorySessionRepository()
	sessions := NewSessionService(repo)
	history := storage.NewMemoryReportRepository(10)
	svc := NewInspectionService(sessions, newDiagnosis(unavailableModel(), defaultPredictionConfig(), nil, history))
	ctx := context.Background()

	_, err := sessions.BeginCheck(ctx, 1, 10)
	require.NoError(t, err)

	out, err := svc.InspectPhoto(ctx, 1, 10, srv.URL+"/photo.png")
	require.NoError(t, err)
	require.Equal(t, "Karpa (Anthracnose)", out.Report.Disease)
	require.Equal(t, entity.StateMainMenu, out.Session.State)

	recent, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}

func TestInspectionService_DownloadFailureResetsSession(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	repo := storage.NewMemorySessionRepository()
	sessions := NewSessionService(repo)
	svc := NewInspectionService(sessions, newDiagnosis(unavailableModel(), defaultPredictionConfig(), nil, nil))
	ctx := context.Background()

	_, err := svc.InspectPhoto(ctx, 2, 20, srv.URL+"/missing.jpg")
	require.ErrorIs(t, err, entity.ErrInvalidImage)

	session, err := sessions.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, session.State)
}

func TestInspectionService_NotConfigured(t *testing.T) {
	svc := NewInspectionService(NewSessionService(storage.NewMemorySessionRepository()), nil)

	_, err := svc.InspectPhoto(context.Background(), 1, 1, "http://example.com/x.jpg")
	require.Error(t, err)
}
