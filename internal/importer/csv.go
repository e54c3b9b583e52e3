// Package importer parses exported chat CSV files into conversation threads.
//
// Expected columns are timestamp, phone number, content and an optional
// from-me flag. A leading header row is detected and skipped.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/talkahistory/chat-archive/internal/domain"
)

var timestampLayouts = []string{
	"02/01/2006, 15:04:05",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
	"02-01-2006 15:04:05",
	"02/01/2006, 15:04",
	"02/01/2006 15:04",
}

var fromMeValues = map[string]bool{
	"true": true,
	"1":    true,
	"sim":  true,
	"você": true,
}

var mediaExtensions = []struct {
	kind domain.MessageType
	exts []string
}{
	{domain.MessageTypeImage, []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}},
	{domain.MessageTypeVideo, []string{".mp4", ".avi", ".mov", ".webm"}},
	{domain.MessageTypeAudio, []string{".mp3", ".wav", ".ogg", ".m4a"}},
	{domain.MessageTypeDocument, []string{".pdf", ".doc", ".docx", ".txt"}},
}

var mediaKeywords = []struct {
	kind  domain.MessageType
	words []string
}{
	{domain.MessageTypeImage, []string{"imagem", "foto", "image"}},
	{domain.MessageTypeVideo, []string{"video", "vídeo"}},
	{domain.MessageTypeAudio, []string{"audio", "áudio"}},
}

var (
	urlPattern      = regexp.MustCompile(`https?://[^\s]+`)
	filenamePattern = regexp.MustCompile(`([^/\\\s]+\.[a-zA-Z0-9]+)(?:\s|$)`)
)

// ErrEmptyFile is returned when the input has no rows at all.
var ErrEmptyFile = errors.New("csv file is empty")

// Thread is the set of messages exchanged with one phone number.
type Thread struct {
	PhoneNumber string
	Messages    []domain.Message
}

// LastActivity returns the newest message timestamp.
func (t Thread) LastActivity() time.Time {
	var latest time.Time
	for _, m := range t.Messages {
		if m.Timestamp.After(latest) {
			latest = m.Timestamp
		}
	}
	return latest
}

// Result is the outcome of parsing one file.
type Result struct {
	Threads     []Thread
	SkippedRows int
}

// MessageCount returns the number of parsed messages across threads.
func (r *Result) MessageCount() int {
	n := 0
	for _, t := range r.Threads {
		n += len(t.Messages)
	}
	return n
}

// Parser turns CSV exports into threads. Timestamps carry no zone and are
// interpreted in Location.
type Parser struct {
	Location *time.Location
}

// NewParser returns a parser interpreting timestamps in loc (UTC if nil).
func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{Location: loc}
}

// Parse reads all rows from r, grouping messages by phone number in order
// of first appearance. Unusable rows are counted and skipped.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &Result{}
	index := map[string]int{}
	first := true
	sawRow := false

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.SkippedRows++
				continue
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		sawRow = true

		if first {
			first = false
			if len(record) > 0 {
				record[0] = strings.TrimPrefix(record[0], "\ufeff")
			}
			if p.isHeader(record) {
				continue
			}
		}

		phone, msg, ok := p.parseRecord(record)
		if !ok {
			result.SkippedRows++
			continue
		}

		i, exists := index[phone]
		if !exists {
			i = len(result.Threads)
			index[phone] = i
			result.Threads = append(result.Threads, Thread{PhoneNumber: phone})
		}
		result.Threads[i].Messages = append(result.Threads[i].Messages, msg)
	}

	if !sawRow {
		return nil, ErrEmptyFile
	}
	return result, nil
}

func (p *Parser) parseRecord(record []string) (string, domain.Message, bool) {
	if len(record) < 3 {
		return "", domain.Message{}, false
	}

	ts, ok := ParseTimestamp(strings.TrimSpace(record[0]), p.Location)
	if !ok {
		return "", domain.Message{}, false
	}
	phone := strings.TrimSpace(record[1])
	if phone == "" {
		return "", domain.Message{}, false
	}

	content := strings.TrimSpace(record[2])
	fromMe := len(record) > 3 && fromMeValues[strings.ToLower(strings.TrimSpace(record[3]))]
	kind, url, filename := DetectMedia(content)

	return phone, domain.Message{
		Content:       content,
		Timestamp:     ts,
		FromMe:        fromMe,
		MessageType:   kind,
		MediaURL:      url,
		MediaFilename: filename,
	}, true
}

// isHeader treats the first row as a header unless it starts with a valid
// timestamp or one of its fields is purely numeric.
func (p *Parser) isHeader(record []string) bool {
	if len(record) > 0 {
		if _, ok := ParseTimestamp(strings.TrimSpace(record[0]), p.Location); ok {
			return false
		}
	}
	for _, field := range record {
		if isDigits(field) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ParseTimestamp tries each supported layout in order.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// DetectMedia classifies content by file extension, then by a link plus a
// media keyword. Text content returns nil url and filename.
func DetectMedia(content string) (domain.MessageType, *string, *string) {
	lower := strings.ToLower(content)

	for _, m := range mediaExtensions {
		for _, ext := range m.exts {
			if strings.Contains(lower, ext) {
				return m.kind, extractURL(content), extractFilename(content)
			}
		}
	}

	if strings.Contains(lower, "http") {
		for _, m := range mediaKeywords {
			for _, w := range m.words {
				if strings.Contains(lower, w) {
					return m.kind, extractURL(content), nil
				}
			}
		}
	}

	return domain.MessageTypeText, nil, nil
}

func extractURL(content string) *string {
	if match := urlPattern.FindString(content); match != "" {
		return &match
	}
	return nil
}

func extractFilename(content string) *string {
	if m := filenamePattern.FindStringSubmatch(content); len(m) > 1 {
		return &m[1]
	}
	return nil
}
