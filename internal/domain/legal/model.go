package legal

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	TypeTermsClients = "terms_clients"
	TypeTermsLawyers = "terms_lawyers"
	TypeTermsExpats  = "terms_expats"
	TypePrivacy      = "privacy_policy"
	TypeCookies      = "cookies"
	TypeLegalNotice  = "legal_notice"

	FallbackLanguage = "en"

	maxTitle   = 200
	maxContent = 200000
)

var ValidTypes = []string{TypeTermsClients, TypeTermsLawyers, TypeTermsExpats, TypePrivacy, TypeCookies, TypeLegalNotice}

// Document is a legal_documents entry. At most one document per
// type+language is active.
type Document struct {
	ID          string     `firestore:"id" json:"id"`
	Type        string     `firestore:"type" json:"type"`
	Language    string     `firestore:"language" json:"language"`
	Title       string     `firestore:"title" json:"title"`
	Content     string     `firestore:"content" json:"content"`
	Version     string     `firestore:"version" json:"version"`
	IsActive    bool       `firestore:"isActive" json:"isActive"`
	PublishedAt *time.Time `firestore:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	PublishedBy string     `firestore:"publishedBy,omitempty" json:"publishedBy,omitempty"`
	CreatedBy   string     `firestore:"createdBy" json:"createdBy"`
	UpdatedBy   string     `firestore:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt   time.Time  `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `firestore:"updatedAt" json:"updatedAt"`
}

type CreateInput struct {
	Type     string `json:"type"`
	Language string `json:"language"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Version  string `json:"version"`
}

func (in *CreateInput) Trim() {
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.Language = strings.ToLower(strings.TrimSpace(in.Language))
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Version = strings.TrimSpace(in.Version)
}

func (in CreateInput) Validate() error {
	if err := ValidateType(in.Type); err != nil {
		return err
	}
	if err := ValidateLanguage(in.Language); err != nil {
		return err
	}
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrBadRequest)
	}
	return validateText(in.Title, in.Content)
}

// UpdateInput changes the text of a document; nil fields are kept.
type UpdateInput struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Version *string `json:"version,omitempty"`
}

func (in *UpdateInput) Trim() {
	for _, p := range []*string{in.Title, in.Content, in.Version} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}

// Updates returns the fields to write for in.
func (in UpdateInput) Updates() (map[string]interface{}, error) {
	u := map[string]interface{}{}
	if in.Title != nil {
		if *in.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrBadRequest)
		}
		u["title"] = *in.Title
	}
	if in.Content != nil {
		u["content"] = *in.Content
	}
	if in.Version != nil {
		u["version"] = *in.Version
	}
	if len(u) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrBadRequest)
	}
	title, _ := u["title"].(string)
	content, _ := u["content"].(string)
	if err := validateText(title, content); err != nil {
		return nil, err
	}
	return u, nil
}

func validateText(title, content string) error {
	if utf8.RuneCountInString(title) > maxTitle {
		return fmt.Errorf("%w: title is limited to %d characters", ErrBadRequest, maxTitle)
	}
	if len(content) > maxContent {
		return fmt.Errorf("%w: content is too long", ErrBadRequest)
	}
	return nil
}

func ValidateType(t string) error {
	for _, v := range ValidTypes {
		if v == t {
			return nil
		}
	}
	return fmt.Errorf("%w: type must be one of %s", ErrBadRequest, strings.Join(ValidTypes, ", "))
}

// ValidateLanguage accepts a two-letter lowercase code.
func ValidateLanguage(lang string) error {
	if len(lang) != 2 || lang[0] < 'a' || lang[0] > 'z' || lang[1] < 'a' || lang[1] > 'z' {
		return fmt.Errorf("%w: language must be a two-letter code", ErrBadRequest)
	}
	return nil
}

// LanguageCandidates is the lookup order for the active document in lang.
func LanguageCandidates(lang string) []string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if ValidateLanguage(lang) != nil || lang == FallbackLanguage {
		return []string{FallbackLanguage}
	}
	return []string{lang, FallbackLanguage}
}
