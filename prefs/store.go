package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Eakan-Git/Bookworm/pkg/localstate"
)

// Language is a supported UI language.
type Language string

const (
	LangEnglish    Language = "en-US"
	LangVietnamese Language = "vi-VN"
)

// DefaultLanguage is used until the user picks one.
const DefaultLanguage = LangEnglish

// Persisted key names carried over from earlier releases so upgraded
// installs keep their preferences.
const (
	currencyKey = "currency-store"
	languageKey = "i18n-storage"
)

type persistedCurrency struct {
	Currency Currency `json:"currency"`
}

type persistedLanguage struct {
	Language Language `json:"language"`
}

// Store reads and writes display preferences. Reads fall back to defaults
// on anything unexpected; preferences are not worth failing a page load
// over.
type Store struct {
	state  localstate.Store
	logger *slog.Logger
}

// NewStore creates a preferences store.
func NewStore(state localstate.Store, logger *slog.Logger) *Store {
	return &Store{state: state, logger: logger}
}

// Currency returns the persisted display currency, or the default.
func (s *Store) Currency(ctx context.Context) Currency {
	data, err := s.state.Get(ctx, currencyKey)
	if err != nil {
		return DefaultCurrency
	}

	var p persistedCurrency
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable currency preference",
			slog.String("error", err.Error()),
		)
		return DefaultCurrency
	}

	if _, err := ParseCurrency(string(p.Currency)); err != nil {
		return DefaultCurrency
	}
	return p.Currency
}

// SetCurrency persists the display currency.
func (s *Store) SetCurrency(ctx context.Context, c Currency) error {
	if _, err := ParseCurrency(string(c)); err != nil {
		return err
	}

	data, err := json.Marshal(persistedCurrency{Currency: c})
	if err != nil {
		return fmt.Errorf("marshal currency preference: %w", err)
	}
	if err := s.state.Set(ctx, currencyKey, data); err != nil {
		return fmt.Errorf("save currency preference: %w", err)
	}
	return nil
}

// Language returns the persisted UI language, or the default.
func (s *Store) Language(ctx context.Context) Language {
	data, err := s.state.Get(ctx, languageKey)
	if err != nil {
		return DefaultLanguage
	}

	var p persistedLanguage
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable language preference",
			slog.String("error", err.Error()),
		)
		return DefaultLanguage
	}

	switch p.Language {
	case LangEnglish, LangVietnamese:
		return p.Language
	default:
		return DefaultLanguage
	}
}

// SetLanguage persists the UI language.
func (s *Store) SetLanguage(ctx context.Context, l Language) error {
	switch l {
	case LangEnglish, LangVietnamese:
	default:
		return fmt.Errorf("unsupported language %q", l)
	}

	data, err := json.Marshal(persistedLanguage{Language: l})
	if err != nil {
		return fmt.Errorf("marshal language preference: %w", err)
	}
	if err := s.state.Set(ctx, languageKey, data); err != nil {
		return fmt.Errorf("save language preference: %w", err)
	}
	return nil
}
