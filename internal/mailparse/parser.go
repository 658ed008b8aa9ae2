// Package mailparse decodes raw RFC 822 messages into structured messages
// with typed attachments.
package mailparse

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/charmap"
)

func init() {
	// Lead providers still send latin-1 mail; register the charsets
	// go-message does not handle out of the box.
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// Attachment is one MIME part carried with a declared content type.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is the parsed form of one raw mail body.
type Message struct {
	From        string
	Subject     string
	Attachments []Attachment
}

// Parse decodes a raw message buffer. Malformed MIME returns an error the
// caller logs; it never aborts sibling messages.
func Parse(raw []byte) (*Message, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("reading MIME message: %w", err)
	}
	defer mr.Close()

	msg := &Message{}
	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		msg.From = addrs[0].Address
	}
	msg.Subject, _ = mr.Header.Subject()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading MIME part: %w", err)
		}

		header, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			// Inline bodies carry no lead data.
			continue
		}

		filename, _ := header.Filename()
		contentType, _, _ := header.ContentType()
		data, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("reading attachment %q: %w", filename, err)
		}

		msg.Attachments = append(msg.Attachments, Attachment{
			Filename:    filename,
			ContentType: contentType,
			Data:        data,
		})
	}

	return msg, nil
}

// XMLAttachments filters the message's attachments to XML-typed entries.
// Images, PDFs and every other type are ignored without error.
func (m *Message) XMLAttachments() []Attachment {
	var out []Attachment
	for _, att := range m.Attachments {
		if IsXMLType(att.ContentType) {
			out = append(out, att)
		}
	}
	return out
}

// IsXMLType reports whether contentType declares an XML payload.
func IsXMLType(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "application/xml", "text/xml":
		return true
	}
	return false
}
