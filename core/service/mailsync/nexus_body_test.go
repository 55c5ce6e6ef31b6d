package mailsync

import (
	"encoding/base64"
	"testing"

	"nexus_server/core/port/out"
)

func TestPlainTextBody(t *testing.T) {
	raw := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name    string
		payload *out.MessagePart
		want    string
		ok      bool
	}{
		{
			name:    "single part",
			payload: &out.MessagePart{MimeType: "text/plain", BodyData: encode("hello")},
			want:    "hello",
			ok:      true,
		},
		{
			name:    "single part unpadded",
			payload: &out.MessagePart{MimeType: "text/plain", BodyData: raw("hi?>")},
			want:    "hi?>",
			ok:      true,
		},
		{
			name: "multipart picks text/plain",
			payload: &out.MessagePart{MimeType: "multipart/alternative", Parts: []*out.MessagePart{
				{MimeType: "text/html", BodyData: encode("<b>x</b>")},
				{MimeType: "text/plain; charset=UTF-8", BodyData: encode("plain")},
			}},
			want: "plain",
			ok:   true,
		},
		{
			name: "nested multipart",
			payload: &out.MessagePart{MimeType: "multipart/mixed", Parts: []*out.MessagePart{
				{MimeType: "multipart/alternative", Parts: []*out.MessagePart{
					{MimeType: "text/plain", BodyData: encode("nested")},
				}},
				{MimeType: "application/pdf", Filename: "cv.pdf", BodyData: encode("%PDF")},
			}},
			want: "nested",
			ok:   true,
		},
		{
			name: "multipart without plain text",
			payload: &out.MessagePart{MimeType: "multipart/alternative", BodyData: encode("ignored"), Parts: []*out.MessagePart{
				{MimeType: "text/html", BodyData: encode("<b>x</b>")},
			}},
			ok: false,
		},
		{
			name: "plain text attachment ignored",
			payload: &out.MessagePart{MimeType: "multipart/mixed", Parts: []*out.MessagePart{
				{MimeType: "text/plain", Filename: "notes.txt", BodyData: encode("attached")},
			}},
			ok: false,
		},
		{
			name:    "empty body",
			payload: &out.MessagePart{MimeType: "text/plain"},
			ok:      false,
		},
		{
			name:    "undecodable",
			payload: &out.MessagePart{MimeType: "text/plain", BodyData: "***"},
			ok:      false,
		},
		{
			name:    "nil payload",
			payload: nil,
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PlainTextBody(tt.payload)
			if ok != tt.ok || got != tt.want {
				t.Errorf("PlainTextBody() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}
