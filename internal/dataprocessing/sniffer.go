package dataprocessing

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Detection is the outcome of sniffing one input
type Detection struct {
	Format    Format
	Strategy  string
	MIME      string
	Encoding  string
	Text      string
	Delimiter rune
}

// DetectionStrategy is one step of the sniffing chain. Detect reports
// whether the strategy recognized the input.
type DetectionStrategy struct {
	Name   string
	Detect func(in *SniffInput) (Format, bool)
}

// SniffInput carries the raw bytes and lazily decoded text through the
// strategy chain.
type SniffInput struct {
	Name string
	Data []byte

	mime     *mimetype.MIME
	decoded  bool
	text     string
	encoding string
	textOK   bool
}

// MIME returns the signature-based content type of the input.
func (in *SniffInput) MIME() *mimetype.MIME {
	if in.mime == nil {
		in.mime = mimetype.Detect(in.Data)
	}
	return in.mime
}

// Text returns the decoded text and whether decoding succeeded.
func (in *SniffInput) Text() (string, bool) {
	if !in.decoded {
		in.text, in.encoding, in.textOK = DecodeText(in.Data)
		in.decoded = true
	}
	return in.text, in.textOK
}

var spreadsheetContainers = []string{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-excel",
	"application/x-ole-storage",
	"application/zip",
}

var markupMarkers = []string{
	"<table", "<tr", "<td",
	"mime-version:", "content-type: multipart/", "content-type: text/html",
}

// DefaultStrategies returns the detection chain in evaluation order:
// container signature, undecodable binary, markup, delimited text.
func DefaultStrategies() []DetectionStrategy {
	return []DetectionStrategy{
		{Name: "container", Detect: detectContainer},
		{Name: "binary", Detect: detectBinary},
		{Name: "markup", Detect: detectMarkup},
		{Name: "delimited", Detect: func(*SniffInput) (Format, bool) { return FormatDelimited, true }},
	}
}

// Sniffer classifies inputs by running strategies in order; the first one
// that recognizes the input wins.
type Sniffer struct {
	strategies  []DetectionStrategy
	sampleLines int
}

// NewSniffer creates a sniffer with the default strategy chain.
func NewSniffer(sampleLines int) *Sniffer {
	return NewSnifferWithStrategies(sampleLines, DefaultStrategies()...)
}

// NewSnifferWithStrategies creates a sniffer with a custom strategy chain.
func NewSnifferWithStrategies(sampleLines int, strategies ...DetectionStrategy) *Sniffer {
	if sampleLines <= 0 {
		sampleLines = 20
	}
	return &Sniffer{strategies: strategies, sampleLines: sampleLines}
}

// Sniff classifies data. The file name is only a hint for delimiter order.
func (s *Sniffer) Sniff(name string, data []byte) (Detection, error) {
	if len(data) == 0 {
		return Detection{}, ErrEmptyInput
	}

	in := &SniffInput{Name: name, Data: data}
	for _, strategy := range s.strategies {
		format, ok := strategy.Detect(in)
		if !ok {
			continue
		}
		det := Detection{
			Format:   format,
			Strategy: strategy.Name,
			MIME:     in.MIME().String(),
		}
		if format != FormatSpreadsheet {
			det.Text, _ = in.Text()
			det.Encoding = in.encoding
		}
		if format == FormatDelimited {
			det.Delimiter = DetectDelimiter(det.Text, name, s.sampleLines)
		}
		return det, nil
	}
	return Detection{Format: FormatDelimited, Strategy: "fallback", Delimiter: DefaultDelimiter}, nil
}

func detectContainer(in *SniffInput) (Format, bool) {
	for m := in.MIME(); m != nil; m = m.Parent() {
		for _, container := range spreadsheetContainers {
			if m.Is(container) {
				return FormatSpreadsheet, true
			}
		}
	}
	return "", false
}

func detectBinary(in *SniffInput) (Format, bool) {
	if _, ok := in.Text(); !ok {
		return FormatSpreadsheet, true
	}
	return "", false
}

func detectMarkup(in *SniffInput) (Format, bool) {
	text, ok := in.Text()
	if !ok {
		return "", false
	}
	head := text
	if len(head) > 64*1024 {
		head = head[:64*1024]
	}
	lower := strings.ToLower(head)
	for _, marker := range markupMarkers {
		if strings.Contains(lower, marker) {
			return FormatHTML, true
		}
	}
	return "", false
}
