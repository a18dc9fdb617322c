package feed

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/lysyi3m/feedsink/app/logsink"
)

const normalizerComponent = "normalizer"

// legacyEncodings are tried in order when text is not valid UTF-8
var legacyEncodings = []encoding.Encoding{
	simplifiedchinese.GBK,
	simplifiedchinese.GB18030,
}

type Normalizer struct {
	policy *bluemonday.Policy
	strict *bluemonday.Policy
	sink   *logsink.Sink
}

func NewNormalizer(sink *logsink.Sink) *Normalizer {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Normalizer{
		policy: policy,
		strict: bluemonday.StrictPolicy(),
		sink:   sink,
	}
}

// Entries normalizes each entry and drops those left with neither title nor link
func (n *Normalizer) Entries(entries []Entry) []Entry {
	normalized := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if e, ok := n.Entry(entry); ok {
			normalized = append(normalized, e)
		}
	}
	return normalized
}

func (n *Normalizer) Entry(entry Entry) (Entry, bool) {
	normalized := Entry{
		Title:       n.Title(entry.Title),
		Link:        n.Link(entry.Link),
		Description: n.Description(entry.Description),
		Published:   entry.Published,
	}

	if normalized.Title == "" && normalized.Link == "" {
		n.sink.Write(normalizerComponent, "dropped entry without title and link")
		return Entry{}, false
	}

	return normalized, true
}

// Title returns the plain text of s with whitespace collapsed
func (n *Normalizer) Title(s string) string {
	s = coerceUTF8(s)
	if strings.TrimSpace(s) == "" {
		return ""
	}

	var text string
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
		text = doc.Text()
	} else {
		text = n.strict.Sanitize(s)
	}

	return strings.Join(strings.Fields(text), " ")
}

// Description keeps a safe subset of HTML
func (n *Normalizer) Description(s string) string {
	return strings.TrimSpace(n.policy.Sanitize(coerceUTF8(s)))
}

func (n *Normalizer) Link(s string) string {
	return strings.TrimSpace(coerceUTF8(s))
}

// coerceUTF8 returns s unchanged when it is valid UTF-8, otherwise the first
// clean decoding among legacyEncodings, or "" when none decodes cleanly.
func coerceUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	for _, enc := range legacyEncodings {
		decoded, _, err := transform.String(enc.NewDecoder(), s)
		if err != nil {
			continue
		}
		if utf8.ValidString(decoded) && !strings.ContainsRune(decoded, utf8.RuneError) {
			return decoded
		}
	}

	return ""
}
