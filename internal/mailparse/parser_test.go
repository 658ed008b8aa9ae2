package mailparse

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAttachment struct {
	filename    string
	contentType string
	data        []byte
}

// buildMessage constructs a raw multipart message the way a lead provider's
// mailer would: an inline text body plus the given attachments.
func buildMessage(t *testing.T, from, subject string, attachments ...testAttachment) []byte {
	t.Helper()

	var buf bytes.Buffer

	var header mail.Header
	header.SetDate(time.Now())
	header.SetAddressList("From", []*mail.Address{{Name: "Lead Provider", Address: from}})
	header.SetAddressList("To", []*mail.Address{{Address: "sales@dealer.example"}})
	header.SetSubject(subject)

	mw, err := mail.CreateWriter(&buf, header)
	require.NoError(t, err)

	var inlineHeader mail.InlineHeader
	inlineHeader.SetContentType("text/plain", nil)
	iw, err := mw.CreateSingleInline(inlineHeader)
	require.NoError(t, err)
	_, err = io.WriteString(iw, "New lead attached.")
	require.NoError(t, err)
	require.NoError(t, iw.Close())

	for _, att := range attachments {
		var ah mail.AttachmentHeader
		ah.SetContentType(att.contentType, nil)
		ah.SetFilename(att.filename)
		aw, err := mw.CreateAttachment(ah)
		require.NoError(t, err)
		_, err = aw.Write(att.data)
		require.NoError(t, err)
		require.NoError(t, aw.Close())
	}

	require.NoError(t, mw.Close())
	return buf.Bytes()
}

func TestParseKeepsXMLAndOtherAttachments(t *testing.T) {
	raw := buildMessage(t, "leads@provider.example", "New Lead",
		testAttachment{filename: "lead.xml", contentType: "application/xml", data: []byte("<adf/>")},
		testAttachment{filename: "brochure.pdf", contentType: "application/pdf", data: []byte("%PDF-")},
	)

	msg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "leads@provider.example", msg.From)
	assert.Equal(t, "New Lead", msg.Subject)
	require.Len(t, msg.Attachments, 2)

	xmls := msg.XMLAttachments()
	require.Len(t, xmls, 1)
	assert.Equal(t, "lead.xml", xmls[0].Filename)
	assert.Equal(t, []byte("<adf/>"), xmls[0].Data)
}

func TestParseTextXMLAttachment(t *testing.T) {
	raw := buildMessage(t, "leads@provider.example", "Lead",
		testAttachment{filename: "lead.xml", contentType: "text/xml", data: []byte("<adf/>")},
	)

	msg, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, msg.XMLAttachments(), 1)
}

func TestParseMessageWithoutAttachments(t *testing.T) {
	raw := buildMessage(t, "leads@provider.example", "Just a note")

	msg, err := Parse(raw)
	require.NoError(t, err)
	assert.Empty(t, msg.Attachments)
	assert.Empty(t, msg.XMLAttachments())
}

func TestParseMalformedMessage(t *testing.T) {
	_, err := Parse([]byte("not a mail message at all\x00\x01"))
	assert.Error(t, err)
}

func TestIsXMLType(t *testing.T) {
	cases := map[string]bool{
		"application/xml":   true,
		"text/xml":          true,
		"TEXT/XML":          true,
		" application/xml ": true,
		"application/pdf":   false,
		"text/plain":        false,
		"image/png":         false,
		"":                  false,
	}
	for ct, want := range cases {
		assert.Equal(t, want, IsXMLType(ct), "content type %q", ct)
	}
}
