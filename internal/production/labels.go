package production

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/comalice/navigatorx/internal/core"
)

// Labeler localises breadcrumb labels. Message ids are "nav." followed by the
// breadcrumb path with slashes replaced by dots, falling back to "nav." plus the
// bare segment. Untranslated crumbs keep their projected label.
type Labeler struct {
	bundle *i18n.Bundle
	langs  []string
}

// NewLabeler creates a labeler whose default language is defaultLang
// (BCP 47, e.g. "en"). Message files are TOML and loaded with LoadFile.
func NewLabeler(defaultLang string) (*Labeler, error) {
	tag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("default language %q: %w", defaultLang, err)
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	return &Labeler{bundle: bundle, langs: []string{tag.String()}}, nil
}

// LoadFile loads a message file named like "active.<lang>.toml".
func (l *Labeler) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if _, err := l.bundle.ParseMessageFileBytes(data, path); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Add registers labels for one language directly, keyed by message id.
func (l *Labeler) Add(lang string, labels map[string]string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("language %q: %w", lang, err)
	}
	msgs := make([]*i18n.Message, 0, len(labels))
	for id, other := range labels {
		msgs = append(msgs, &i18n.Message{ID: id, Other: other})
	}
	return l.bundle.AddMessages(tag, msgs...)
}

// Languages lists the languages with loaded messages.
func (l *Labeler) Languages() []string {
	tags := l.bundle.LanguageTags()
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}
	return out
}

// Label returns crumbs with labels localised for the preferred languages
// (Accept-Language style values are accepted). The input slice is not modified.
func (l *Labeler) Label(crumbs []core.Breadcrumb, prefs ...string) []core.Breadcrumb {
	langs := make([]string, 0, len(prefs)+len(l.langs))
	langs = append(langs, prefs...)
	langs = append(langs, l.langs...)
	loc := i18n.NewLocalizer(l.bundle, langs...)
	out := make([]core.Breadcrumb, len(crumbs))
	for i, c := range crumbs {
		out[i] = c
		for _, id := range MessageIDs(c) {
			// A message found only in the default language comes back with a
			// not-found error for the preferred one; the fallback text is still used.
			if s, _ := loc.Localize(&i18n.LocalizeConfig{MessageID: id}); s != "" {
				out[i].Label = s
				break
			}
		}
	}
	return out
}

// MessageIDs lists the message ids tried for a crumb, most specific first.
func MessageIDs(c core.Breadcrumb) []string {
	full := "nav." + strings.ReplaceAll(c.Path, "/", ".")
	seg := "nav." + c.Segment
	if full == seg {
		return []string{full}
	}
	return []string{full, seg}
}
