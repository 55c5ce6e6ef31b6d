package mailsync

import (
	"encoding/base64"
	"strings"

	"nexus_server/core/port/out"
)

const mimeTextPlain = "text/plain"

// PlainTextBody returns the decoded text/plain content of a message.
// Multipart payloads are searched depth-first for a text/plain part with
// inline data; a payload without parts uses its own body.
func PlainTextBody(payload *out.MessagePart) (string, bool) {
	if payload == nil {
		return "", false
	}
	if len(payload.Parts) == 0 {
		return decodeBody(payload.BodyData)
	}
	if data := findPlainPart(payload.Parts); data != "" {
		return decodeBody(data)
	}
	return "", false
}

func findPlainPart(parts []*out.MessagePart) string {
	for _, p := range parts {
		if p == nil {
			continue
		}
		if strings.HasPrefix(strings.ToLower(p.MimeType), mimeTextPlain) && p.BodyData != "" && p.Filename == "" {
			return p.BodyData
		}
		if data := findPlainPart(p.Parts); data != "" {
			return data
		}
	}
	return ""
}

// decodeBody accepts padded and unpadded base64url.
func decodeBody(data string) (string, bool) {
	data = strings.TrimSpace(data)
	if data == "" {
		return "", false
	}
	raw, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return "", false
		}
	}
	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}
