// Package i18n resolves message keys into the language a request asks for.
package i18n

import (
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/jwalitptl/booking-api/pkg/httputil"
)

// Bundle holds the catalogues of every supported language. The first
// language is the fallback.
type Bundle struct {
	tags     []language.Tag
	matcher  language.Matcher
	messages map[language.Tag]map[string]string
}

func NewBundle() *Bundle {
	tags := []language.Tag{language.English, language.French}
	return &Bundle{
		tags:    tags,
		matcher: language.NewMatcher(tags),
		messages: map[language.Tag]map[string]string{
			language.English: english,
			language.French:  french,
		},
	}
}

// Supported lists the languages with a catalogue, fallback first.
func (b *Bundle) Supported() []language.Tag {
	return append([]language.Tag(nil), b.tags...)
}

// Match picks the best supported language for the given preferences,
// each either a bare tag or an Accept-Language header value.
func (b *Bundle) Match(prefs ...string) language.Tag {
	_, idx := language.MatchStrings(b.matcher, prefs...)
	return b.tags[idx]
}

func (b *Bundle) Localizer(tag language.Tag) *Localizer {
	msgs, ok := b.messages[tag]
	if !ok {
		tag = b.tags[0]
		msgs = b.messages[tag]
	}
	return &Localizer{tag: tag, messages: msgs, fallback: b.messages[b.tags[0]]}
}

// Localizer translates keys for one language.
type Localizer struct {
	tag      language.Tag
	messages map[string]string
	fallback map[string]string
}

func (l *Localizer) Language() language.Tag {
	return l.tag
}

// Localize returns the text for key, then the fallback language's text,
// then fallback itself.
func (l *Localizer) Localize(key, fallback string) string {
	if msg, ok := l.messages[key]; ok {
		return msg
	}
	if msg, ok := l.fallback[key]; ok {
		return msg
	}
	return fallback
}

// Format localizes key and substitutes {name} placeholders from params.
func (l *Localizer) Format(key string, params map[string]string) string {
	msg := l.Localize(key, key)
	if len(params) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Middleware installs the request's localizer. A lang query parameter wins
// over Accept-Language.
func Middleware(b *Bundle) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := b.Localizer(b.Match(c.Query("lang"), c.GetHeader("Accept-Language")))
		c.Set(httputil.LocalizerKey, l)
		c.Header("Content-Language", l.Language().String())
		c.Next()
	}
}

// FromContext returns the request's localizer, or the fallback language's.
func FromContext(c *gin.Context, b *Bundle) *Localizer {
	if v, ok := c.Get(httputil.LocalizerKey); ok {
		if l, ok := v.(*Localizer); ok {
			return l
		}
	}
	return b.Localizer(b.tags[0])
}
