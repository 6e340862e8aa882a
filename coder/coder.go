// Package coder transcodes short message text for the data_coding values an
// SMSC commonly speaks: GSM 03.38 (0), latin1 (3) and UCS2 (8). The session
// engine itself passes payloads through untouched; applications use this
// package at the edges.
package coder

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Data coding values handled here.
const (
	CodingGSM7   uint8 = 0
	CodingLatin1 uint8 = 3
	CodingUCS2   uint8 = 8
)

var (
	utf8GsmChars = map[rune]string{
		'@':  "\x00",
		'£':  "\x01",
		'$':  "\x02",
		'¥':  "\x03",
		'è':  "\x04",
		'é':  "\x05",
		'ù':  "\x06",
		'ì':  "\x07",
		'ò':  "\x08",
		'Ç':  "\x09",
		'Ø':  "\x0B",
		'ø':  "\x0C",
		'Å':  "\x0E",
		'å':  "\x0F",
		'Δ':  "\x10",
		'_':  "\x11",
		'Φ':  "\x12",
		'Γ':  "\x13",
		'Λ':  "\x14",
		'Ω':  "\x15",
		'Π':  "\x16",
		'Ψ':  "\x17",
		'Σ':  "\x18",
		'Θ':  "\x19",
		'Ξ':  "\x1A",
		'Æ':  "\x1C",
		'æ':  "\x1D",
		'ß':  "\x1E",
		'É':  "\x1F",
		'¤':  "\x24",
		'¡':  "\x40",
		'Ä':  "\x5B",
		'Ö':  "\x5C",
		'Ñ':  "\x5D",
		'Ü':  "\x5E",
		'§':  "\x5F",
		'¿':  "\x60",
		'ä':  "\x7B",
		'ö':  "\x7C",
		'ñ':  "\x7D",
		'ü':  "\x7E",
		'à':  "\x7F",
		'^':  "\x1B\x14",
		'{':  "\x1B\x28",
		'}':  "\x1B\x29",
		'\\': "\x1B\x2F",
		'[':  "\x1B\x3C",
		'~':  "\x1B\x3D",
		']':  "\x1B\x3E",
		'|':  "\x1B\x40",
		'€':  "\x1B\x65",
	}

	gsmUtf8Chars map[rune]string
)

func init() {
	// reverse table, escape sequences resolved on the second byte
	gsmUtf8Chars = make(map[rune]string, len(utf8GsmChars))
	for r, s := range utf8GsmChars {
		if len(s) == 1 {
			gsmUtf8Chars[rune(s[0])] = string(r)
		}
	}
}

// Decode converts received short message bytes to a string according to the
// data_coding value. Unknown codings pass through verbatim.
func Decode(code uint8, text []byte) string {
	switch code {
	case CodingUCS2:
		es, _, _ := transform.Bytes(
			unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder(), text)
		return string(es)
	case CodingLatin1:
		es, _, _ := transform.Bytes(charmap.Windows1252.NewDecoder(), text)
		return string(es)
	case CodingGSM7:
		var result bytes.Buffer
		for i := 0; i < len(text); i++ {
			b := text[i]
			if b == 0x1B && i+1 < len(text) { // escape to extension table
				if nr, ok := gsmEscapes[text[i+1]]; ok {
					result.WriteRune(nr)
					i++
					continue
				}
			}
			if nr, ok := gsmUtf8Chars[rune(b)]; ok {
				result.WriteString(nr)
				continue
			}
			result.WriteByte(b)
		}
		return result.String()
	default:
		return string(text)
	}
}

var gsmEscapes = map[byte]rune{
	0x14: '^', 0x28: '{', 0x29: '}', 0x2F: '\\',
	0x3C: '[', 0x3D: '~', 0x3E: ']', 0x40: '|', 0x65: '€',
}

// Encode converts a string to short message bytes according to the
// data_coding value. Characters GSM 03.38 cannot express become '?'.
func Encode(code uint8, text string) []byte {
	switch code {
	case CodingUCS2:
		enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
		es, _, _ := transform.Bytes(enc, []byte(text))
		return es
	case CodingLatin1:
		es, _, _ := transform.Bytes(charmap.Windows1252.NewEncoder(), []byte(text))
		return es
	case CodingGSM7:
		var result bytes.Buffer
		for _, r := range text {
			if nr, ok := utf8GsmChars[r]; ok {
				result.WriteString(nr)
				continue
			}
			if r > '\u007F' { // no place in the default alphabet
				result.WriteRune('?')
				continue
			}
			result.WriteRune(r)
		}
		return result.Bytes()
	default:
		return []byte(text)
	}
}

// Pick returns the cheapest data_coding able to carry the text: GSM 03.38
// when every rune fits, UCS2 otherwise.
func Pick(text string) uint8 {
	for _, r := range text {
		if r <= '\u007F' {
			continue
		}
		if _, ok := utf8GsmChars[r]; ok {
			continue
		}
		return CodingUCS2
	}
	return CodingGSM7
}
