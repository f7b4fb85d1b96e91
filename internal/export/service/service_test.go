package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	guestModels "guestlist/internal/guest/models"
	guestService "guestlist/internal/guest/service"
	guestStore "guestlist/internal/guest/store/guest"
	dErrors "guestlist/pkg/domain-errors"
)

type recordingRenderer struct {
	html string
	err  error
}

func (r *recordingRenderer) RenderPDF(_ context.Context, html string) ([]byte, error) {
	r.html = html
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.7 fake"), nil
}

func seededRegistry(t *testing.T) *guestService.Service {
	t.Helper()
	ctx := context.Background()
	svc := guestService.New(guestStore.NewInMemory())
	ana, err := svc.Register(ctx, guestModels.RegisterRequest{Name: "Ana", Lastname: "Zapata", Role: "leader", Email: "ana@x.com", Menu: "vegano"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, guestModels.RegisterRequest{Name: "Bob", Lastname: "Alvarez", Role: "companion", Leader: guestModels.LeaderRef(fmt.Sprint(ana.ID))})
	require.NoError(t, err)
	_, err = svc.Register(ctx, guestModels.RegisterRequest{Name: "Eva <b>", Lastname: "Mora", Role: "leader", Email: "eva@x.com"})
	require.Error(t, err, "markup in names is rejected before it reaches the template")
	return svc
}

func TestGuestListPDF(t *testing.T) {
	renderer := &recordingRenderer{}
	svc := New(seededRegistry(t), renderer)

	result, err := svc.GuestListPDF(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Filename, result.Filename)
	assert.Equal(t, MimeType, result.MimeType)
	assert.Equal(t, []byte("%PDF-1.7 fake"), result.Data)

	html := renderer.html
	assert.Contains(t, html, "Listado de invitados")
	assert.Contains(t, html, "2 invitados")
	assert.Contains(t, html, "Vegano")
	alvarez := strings.Index(html, "Alvarez")
	zapata := strings.Index(html, "Zapata")
	require.True(t, alvarez > 0 && zapata > 0)
	assert.Less(t, alvarez, zapata, "guests are ordered by lastname")
}

func TestGuestListPDFEmptyRegistry(t *testing.T) {
	renderer := &recordingRenderer{}
	result, err := New(guestService.New(guestStore.NewInMemory()), renderer).GuestListPDF(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, result.Data)
	assert.Contains(t, renderer.html, "0 invitados")
}

func TestGuestListPDFFailures(t *testing.T) {
	registry := seededRegistry(t)

	t.Run("missing chrome is unavailable", func(t *testing.T) {
		renderer := &recordingRenderer{err: fmt.Errorf("%w: chromium not installed", ErrPDFDependencyMissing)}
		_, err := New(registry, renderer).GuestListPDF(context.Background())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("render timeout is unavailable", func(t *testing.T) {
		renderer := &recordingRenderer{err: context.DeadlineExceeded}
		_, err := New(registry, renderer, WithTimeout(time.Second)).GuestListPDF(context.Background())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("chrome crash is internal", func(t *testing.T) {
		renderer := &recordingRenderer{err: errors.New("chrome pdf generation failed: target closed")}
		_, err := New(registry, renderer).GuestListPDF(context.Background())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func TestChromeRendererMissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := NewChromeRenderer("").RenderPDF(context.Background(), "<p>hola</p>")
	assert.ErrorIs(t, err, ErrPDFDependencyMissing)
}
