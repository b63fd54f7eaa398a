package echoapi

import (
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/akadahq/akada/core"
	logsvc "github.com/akadahq/akada/services/logger"
)

func Test_appHTTPErrorHandler_shutdown(t *testing.T) {
	e := echo.New()
	logger := logsvc.NewConsoleLogger(log.New(os.Stdout, "TEST : ", 0))
	logger.Enable(false)
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")

	var signalled bool
	handler := newAppHTTPErrorHandler(logger, translator, func() { signalled = true })

	newCtx := func() (echo.Context, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		return e.NewContext(req, rec), rec
	}

	t.Run("a dead store triggers a graceful shutdown", func(t *testing.T) {
		signalled = false
		ctx, rec := newCtx()
		handler(errors.Wrap(core.NewShutdownError("store is gone"), "selecting students"), ctx)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.True(t, signalled)
	})

	t.Run("a plain server error does not", func(t *testing.T) {
		signalled = false
		ctx, rec := newCtx()
		handler(errors.New("boom"), ctx)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.False(t, signalled)
	})

	t.Run("a validation error does not", func(t *testing.T) {
		signalled = false
		ctx, rec := newCtx()
		handler(core.NewValidationError(errors.New("season not found")), ctx)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, signalled)
	})
}
