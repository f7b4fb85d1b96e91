package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"guestlist/internal/export/service"
	dErrors "guestlist/pkg/domain-errors"
	"guestlist/pkg/testutil"
)

type stubExport struct {
	result *service.Result
	err    error
}

func (s stubExport) GuestListPDF(context.Context) (*service.Result, error) {
	return s.result, s.err
}

func route(svc Service) chi.Router {
	r := chi.NewRouter()
	New(svc, slog.New(slog.DiscardHandler)).Register(r)
	return r
}

func TestDownloadPDF(t *testing.T) {
	router := route(stubExport{result: &service.Result{
		Data:     []byte("%PDF-1.7"),
		Filename: service.Filename,
		MimeType: service.MimeType,
	}})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/download-pdf"))
	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=listado_de_invitados.pdf", rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.7", rr.Body.String())
}

func TestDownloadPDFUnavailable(t *testing.T) {
	router := route(stubExport{err: dErrors.New(dErrors.CodeUnavailable, service.MsgUnavailable)})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/download-pdf"))
	testutil.AssertStatusAndError(t, rr, http.StatusServiceUnavailable, string(dErrors.CodeUnavailable))
}
