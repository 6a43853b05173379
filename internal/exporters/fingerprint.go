package exporters

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mrlokans/kobo-highlights/internal/entities"
)

const (
	// MinQuotedLength is the shortest quoted line treated as highlight text.
	MinQuotedLength = 10
	// fingerprintPrefixLength is how many normalized characters a fingerprint keeps.
	fingerprintPrefixLength = 50
	// maxContinuationParagraphs and maxPassageLines bound how far a quote extends.
	maxContinuationParagraphs = 5
	maxPassageLines           = 40
)

var whitespaceRun = regexp.MustCompile(`\s+`)

func normalizePassage(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.ToLower(text), " "))
}

// Fingerprint returns a coarse identity for a passage: the first 50 characters
// of its lower-cased, whitespace-collapsed form plus the normalized length.
// Passages that differ only in whitespace or case share a fingerprint.
func Fingerprint(text string) string {
	normalized := normalizePassage(text)
	length := utf8.RuneCountInString(normalized)
	if length == 0 {
		return fmt.Sprintf("empty_%d", length)
	}
	prefix := normalized
	if length > fingerprintPrefixLength {
		prefix = string([]rune(normalized)[:fingerprintPrefixLength])
	}
	return fmt.Sprintf("%s_%d", prefix, length)
}

// QuotedPassages extracts highlight candidates from note text. Every "> " line
// of at least MinQuotedLength characters is a candidate. A quote continued by
// further quote lines or lazy continuation lines, including paragraphs after a
// blank line, also yields the joined text up to each line, so highlights
// spanning several lines or paragraphs are recognised as a whole. A heading, a
// rule, a fence or a new quote after a blank line ends the passage.
func QuotedPassages(text string) []string {
	var passages []string
	var paragraph []string
	afterBlank := false
	breaks := 0

	add := func(line string) {
		paragraph = append(paragraph, line)
		if len(paragraph) > maxPassageLines {
			paragraph = nil
			return
		}
		if len(paragraph) > 1 {
			joined := strings.Join(paragraph, "\n")
			if utf8.RuneCountInString(strings.TrimSpace(joined)) >= MinQuotedLength {
				passages = append(passages, joined)
			}
		}
	}
	reset := func() {
		paragraph = nil
		afterBlank = false
		breaks = 0
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")

		switch {
		case strings.HasPrefix(line, "> "):
			content := line[2:]
			if afterBlank || strings.TrimSpace(content) == "" {
				reset()
			}
			if strings.TrimSpace(content) == "" {
				continue
			}
			if utf8.RuneCountInString(strings.TrimSpace(content)) >= MinQuotedLength {
				passages = append(passages, content)
			}
			add(content)
		case strings.HasPrefix(line, ">"):
			reset()
		case strings.TrimSpace(line) == "":
			if len(paragraph) == 0 || afterBlank {
				continue
			}
			afterBlank = true
			breaks++
			if breaks > maxContinuationParagraphs {
				reset()
			}
		case len(paragraph) == 0:
		case afterBlank && endsPassage(line):
			reset()
		default:
			if afterBlank {
				paragraph = append(paragraph, "")
				afterBlank = false
			}
			add(line)
		}
	}

	return passages
}

func endsPassage(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "---") ||
		strings.HasPrefix(trimmed, "```")
}

// PassageIndex tracks which highlights a note already contains.
type PassageIndex struct {
	fingerprints map[string]struct{}
	normalized   string
}

// NewPassageIndex indexes the quoted passages of an existing note.
func NewPassageIndex(note string) *PassageIndex {
	index := &PassageIndex{
		fingerprints: make(map[string]struct{}),
		normalized:   normalizePassage(note),
	}
	for _, passage := range QuotedPassages(note) {
		index.fingerprints[Fingerprint(passage)] = struct{}{}
	}
	return index
}

// Seen reports whether h is already present. Highlights with text are matched
// by fingerprint. Text shorter than MinQuotedLength is never a quote candidate
// and annotation-only highlights have no quote at all, so for those the
// rendered block is looked up in the note text instead. Annotations of at
// least MinQuotedLength characters also match on their own, so a template
// change does not repeat them.
func (p *PassageIndex) Seen(h entities.ProcessedHighlight, rendered string) bool {
	if h.Text != "" {
		if _, ok := p.fingerprints[Fingerprint(h.Text)]; ok {
			return true
		}
		text := normalizePassage(h.Text)
		return utf8.RuneCountInString(text) < MinQuotedLength && p.containsBlock(text, rendered)
	}
	annotation := normalizePassage(h.Annotation)
	if p.containsBlock(annotation, rendered) {
		return true
	}
	if utf8.RuneCountInString(annotation) < MinQuotedLength {
		return false
	}
	return strings.Contains(p.normalized, annotation)
}

// containsBlock reports whether the rendered block, which must carry content,
// appears in the note.
func (p *PassageIndex) containsBlock(content, rendered string) bool {
	block := normalizePassage(rendered)
	return content != "" && strings.Contains(block, content) && strings.Contains(p.normalized, block)
}

// Add records h as present, so later duplicates in the same batch are skipped.
func (p *PassageIndex) Add(h entities.ProcessedHighlight, rendered string) {
	if h.Text != "" {
		p.fingerprints[Fingerprint(h.Text)] = struct{}{}
	}
	p.normalized += " " + normalizePassage(rendered)
	if h.Text == "" {
		p.normalized += " " + normalizePassage(h.Annotation)
	}
}
