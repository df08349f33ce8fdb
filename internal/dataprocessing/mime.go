package dataprocessing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// unwrapMIME returns the HTML body of a MIME envelope (web archive exports
// of spreadsheet tools). Text without MIME headers is returned unchanged.
func unwrapMIME(text string) (string, error) {
	if !looksLikeMIME(text) {
		return text, nil
	}

	msg, err := mail.ReadMessage(strings.NewReader(text))
	if err != nil {
		return text, nil
	}

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		mediaType = "text/html"
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		body, err := decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"), params["charset"])
		if err != nil {
			return "", err
		}
		return body, nil
	}

	mr := multipart.NewReader(msg.Body, params["boundary"])
	var fallback string
	for {
		part, err := mr.NextRawPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read MIME part: %w", err)
		}
		partType, partParams, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		body, err := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"), partParams["charset"])
		if err != nil {
			return "", err
		}
		if partType == "text/html" {
			return body, nil
		}
		if fallback == "" && strings.Contains(strings.ToLower(body), "<tr") {
			fallback = body
		}
	}
	if fallback == "" {
		return "", errors.New("MIME envelope contains no HTML part")
	}
	return fallback, nil
}

func looksLikeMIME(text string) bool {
	head := text
	if len(head) > 4096 {
		head = head[:4096]
	}
	lower := strings.ToLower(head)
	return strings.Contains(lower, "mime-version:") ||
		strings.HasPrefix(strings.TrimSpace(lower), "content-type:")
}

func decodeBody(r io.Reader, transferEncoding, charset string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, newlineStripper{r})
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode MIME body: %w", err)
	}

	if charset != "" && !strings.EqualFold(charset, "utf-8") {
		if enc, err := htmlindex.Get(charset); err == nil {
			if decoded, err := enc.NewDecoder().Bytes(raw); err == nil {
				return string(decoded), nil
			}
		}
	}
	if text, _, ok := DecodeText(raw); ok {
		return text, nil
	}
	return string(raw), nil
}

// newlineStripper drops line breaks so base64 bodies wrapped at 76
// columns decode.
type newlineStripper struct {
	r io.Reader
}

func (n newlineStripper) Read(p []byte) (int, error) {
	count, err := n.r.Read(p)
	kept := bytes.ReplaceAll(bytes.ReplaceAll(p[:count], []byte("\r"), nil), []byte("\n"), nil)
	copy(p, kept)
	return len(kept), err
}
