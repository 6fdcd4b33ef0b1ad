package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/slug"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driving"
)

// Ensure shareService implements ShareService
var _ driving.ShareService = (*shareService)(nil)

const (
	maxTweetRunes       = 280
	maxDescriptionRunes = 200
	ellipsis            = "…"
)

// typePaths are the public site paths of each content type
var typePaths = map[domain.ContentType]string{
	domain.ContentTypeAsmaulHusna: "asmaul-husna",
	domain.ContentTypeDoa:         "doa",
	domain.ContentTypeHadith:      "hadits",
	domain.ContentTypeQuran:       "quran",
}

// shareService formats records into share messages. It holds no state besides the site URL.
type shareService struct {
	baseURL string
}

// NewShareService creates a new ShareService
func NewShareService(baseURL string) driving.ShareService {
	return &shareService{baseURL: strings.TrimRight(baseURL, "/")}
}

// Compose builds the share texts for a record
func (s *shareService) Compose(record *domain.Record) *domain.ShareMessage {
	title := shareTitle(record)
	url := s.recordURL(record, title)

	return &domain.ShareMessage{
		Title:       title,
		Description: truncateRunes(record.SecondaryText, maxDescriptionRunes),
		URL:         url,
		PerChannel: map[string]string{
			domain.ChannelWhatsApp: paragraphs(emphasize(title, "*"), record.PrimaryText, emphasize(record.SecondaryText, "_"), url),
			domain.ChannelTelegram: paragraphs(title, record.PrimaryText, record.SecondaryText, url),
			domain.ChannelTwitter:  tweet(title, record.SecondaryText, url),
			domain.ChannelFacebook: paragraphs(title, truncateRunes(record.SecondaryText, maxDescriptionRunes), url),
			domain.ChannelEmail:    paragraphs(title, record.PrimaryText, record.SecondaryText, "Sumber: "+url),
			domain.ChannelCopy:     paragraphs(record.PrimaryText, record.SecondaryText, "("+title+")", url),
		},
	}
}

// recordURL returns <base>/<type>/<collection>/<sub>/<id>-<slug>
func (s *shareService) recordURL(record *domain.Record, title string) string {
	parts := []string{s.baseURL, typePaths[record.ContentType]}
	if record.Collection != "" {
		parts = append(parts, record.Collection)
	}
	if record.SubCollection != "" {
		parts = append(parts, record.SubCollection)
	}

	leaf := strconv.Itoa(record.ID)
	if sl := slug.Make(title); sl != "" {
		leaf += "-" + sl
	}
	return strings.Join(append(parts, leaf), "/")
}

// shareTitle falls back to a label built from the record's identity when upstream has no title
func shareTitle(record *domain.Record) string {
	if record.Title != "" {
		return record.Title
	}
	switch record.ContentType {
	case domain.ContentTypeAsmaulHusna:
		return fmt.Sprintf("Asmaul Husna ke-%d", record.ID)
	case domain.ContentTypeDoa:
		return fmt.Sprintf("Doa #%d", record.ID)
	case domain.ContentTypeHadith:
		switch record.Collection {
		case domain.CollectionArbain:
			return fmt.Sprintf("Hadits Arbain No. %d", record.ID)
		case domain.CollectionBulughulMaram:
			return fmt.Sprintf("Bulughul Maram No. %d", record.ID)
		case domain.CollectionPerawi:
			return fmt.Sprintf("HR. %s No. %d", narratorName(record.SubCollection), record.ID)
		}
	case domain.ContentTypeQuran:
		return fmt.Sprintf("QS. %s:%d", record.Collection, record.ID)
	}
	return strconv.Itoa(record.ID)
}

// narratorName turns "ibnu-majah" into "Ibnu Majah"
func narratorName(sub string) string {
	words := strings.Split(sub, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func tweet(title, text, url string) string {
	suffix := "\n" + url
	body := title
	if text != "" {
		body += ": " + text
	}
	budget := maxTweetRunes - len([]rune(suffix))
	if budget <= 0 {
		return url
	}
	return truncateRunes(body, budget) + suffix
}

func emphasize(s, marker string) string {
	if s == "" {
		return ""
	}
	return marker + s + marker
}

// paragraphs joins the non-empty parts with blank lines
func paragraphs(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

// truncateRunes cuts s to at most n runes, ending in an ellipsis when cut
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return strings.TrimSpace(string(r[:n-1])) + ellipsis
}
