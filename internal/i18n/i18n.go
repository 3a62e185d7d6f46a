package i18n

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator отдаёт тексты бота на одном языке.
type Translator struct {
	lang string
	loc  *i18n.Localizer
	log  zerolog.Logger
}

// New загружает все встроенные локали; lang задаёт язык ответов,
// недостающие сообщения берутся из маратхи.
func New(lang string, log zerolog.Logger) (*Translator, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("parse language %q: %w", lang, err)
	}

	bundle := i18n.NewBundle(language.Marathi)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, e.Name()); err != nil {
			return nil, fmt.Errorf("parse locale file %s: %w", e.Name(), err)
		}
	}

	return &Translator{
		lang: tag.String(),
		loc:  i18n.NewLocalizer(bundle, tag.String(), language.Marathi.String()),
		log:  log.With().Str("component", "i18n").Logger(),
	}, nil
}

func (t *Translator) Lang() string {
	return t.lang
}

// T переводит сообщение по ID; при отсутствии перевода возвращает сам ID.
func (t *Translator) T(id string, data ...map[string]any) string {
	cfg := &i18n.LocalizeConfig{MessageID: id}
	if len(data) > 0 {
		cfg.TemplateData = data[0]
	}
	s, err := t.loc.Localize(cfg)
	if err != nil {
		t.log.Warn().Err(err).Str("id", id).Msg("missing translation")
		if s == "" {
			return id
		}
	}
	return s
}
