// Package adf decodes Auto-lead Data Format payloads into prospect records.
package adf

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/bduble/aiventa-crm-sub000/internal/model"
)

// document mirrors the subset of ADF read by the pipeline. Prospects is a
// slice so a payload with one <prospect> and a payload with many decode
// identically.
type document struct {
	Prospects []prospectElem `xml:"prospect"`
}

type prospectElem struct {
	Customer struct {
		Contact struct {
			Name struct {
				First string `xml:"first"`
				Last  string `xml:"last"`
			} `xml:"name"`
			Email string `xml:"email"`
			Phone string `xml:"phone"`
		} `xml:"contact"`
	} `xml:"customer"`
	Vehicle struct {
		Year  string `xml:"year"`
		Make  string `xml:"make"`
		Model string `xml:"model"`
		Trim  string `xml:"trim"`
		Trade string `xml:"trade"`
	} `xml:"vehicle"`
}

// Decode parses the raw bytes of one XML attachment into prospect records.
// A well-formed document without an <adf> root or without prospect entries
// is a no-op, not an error. Missing leaf fields decode to empty strings.
func Decode(data []byte) ([]model.Prospect, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	// ADF feeds commonly declare ISO-8859-1.
	dec.CharsetReader = charset.NewReaderLabel

	root, err := findRootElement(dec)
	if err != nil {
		return nil, fmt.Errorf("parsing ADF payload: %w", err)
	}
	if !strings.EqualFold(root.Name.Local, "adf") {
		return nil, nil
	}

	var doc document
	if err := dec.DecodeElement(&doc, root); err != nil {
		return nil, fmt.Errorf("parsing ADF payload: %w", err)
	}

	prospects := make([]model.Prospect, 0, len(doc.Prospects))
	for _, p := range doc.Prospects {
		contact := p.Customer.Contact
		prospects = append(prospects, model.Prospect{
			FirstName:       strings.TrimSpace(contact.Name.First),
			LastName:        strings.TrimSpace(contact.Name.Last),
			Email:           strings.TrimSpace(contact.Email),
			Phone:           strings.TrimSpace(contact.Phone),
			VehicleInterest: joinNonEmpty(p.Vehicle.Year, p.Vehicle.Make, p.Vehicle.Model, p.Vehicle.Trim),
			TradeVehicle:    strings.TrimSpace(p.Vehicle.Trade),
		})
	}
	return prospects, nil
}

// findRootElement advances the decoder to the document's root start
// element. An empty or truncated document surfaces as an error here.
func findRootElement(dec *xml.Decoder) (*xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return &start, nil
		}
	}
}

// joinNonEmpty joins the trimmed, non-empty parts with single spaces.
func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
