package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/jwalitptl/booking-api/pkg/httputil"
)

func TestCataloguesHaveSameKeys(t *testing.T) {
	for key := range english {
		_, ok := french[key]
		assert.True(t, ok, "missing french message for %s", key)
	}
	for key := range french {
		_, ok := english[key]
		assert.True(t, ok, "missing english message for %s", key)
	}
}

func TestMatch(t *testing.T) {
	b := NewBundle()

	assert.Equal(t, language.French, b.Match("fr-CA,fr;q=0.9,en;q=0.8"))
	assert.Equal(t, language.English, b.Match("de-DE"))
	assert.Equal(t, language.English, b.Match(""))
	assert.Equal(t, language.French, b.Match("fr", "en-US"))
}

func TestLocalize(t *testing.T) {
	b := NewBundle()
	fr := b.Localizer(language.French)

	assert.Equal(t, "Profil créé avec succès !", fr.Localize("profile.savedSuccess", "x"))
	assert.Equal(t, "raw", fr.Localize("no.such.key", "raw"))
	assert.Equal(t, language.English, b.Localizer(language.German).Language())
}

func TestFormat(t *testing.T) {
	b := NewBundle()
	english["test.greeting"] = "Hello {name}"
	defer delete(english, "test.greeting")

	assert.Equal(t, "Hello Jane", b.Localizer(language.English).Format("test.greeting", map[string]string{"name": "Jane"}))
}

func TestMiddlewareInstallsLocalizer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	b := NewBundle()
	r := gin.New()
	r.Use(Middleware(b))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, httputil.Localize(c, "booking.confirmed", "fallback"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr-FR")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rendez-vous réservé avec succès !", w.Body.String())
	assert.Equal(t, "fr", w.Header().Get("Content-Language"))

	req = httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("Accept-Language", "fr-FR")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "Appointment booked successfully!", w.Body.String())
}
