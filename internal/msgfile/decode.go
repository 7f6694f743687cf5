package msgfile

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// decodeUTF16 decodes a PT_UNICODE value (UTF-16LE, NUL terminated)
func decodeUTF16(data []byte) string {
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(out), "\x00")
}

// decodeCodepage decodes a PT_STRING8 or HTML value using a Windows code page
func decodeCodepage(data []byte, cp uint32) string {
	enc := codepageEncoding(cp)
	if enc == nil && !isUTF8Codepage(cp) && !utf8.Valid(data) {
		enc = charmap.Windows1252
	}
	if enc == nil {
		return strings.TrimRight(strings.ToValidUTF8(string(data), "\uFFFD"), "\x00")
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return strings.TrimRight(string(data), "\x00")
	}
	return strings.TrimRight(string(out), "\x00")
}

func isUTF8Codepage(cp uint32) bool {
	return cp == 65001 || cp == 20127
}

// codepageEncoding maps a Windows code page id to its encoding, nil when unknown
func codepageEncoding(cp uint32) encoding.Encoding {
	switch cp {
	case 949, 51949:
		return korean.EUCKR
	case 932:
		return japanese.ShiftJIS
	case 50220, 50221, 50222:
		return japanese.ISO2022JP
	case 51932:
		return japanese.EUCJP
	case 936, 54936:
		return simplifiedchinese.GB18030
	case 950:
		return traditionalchinese.Big5
	case 1250:
		return charmap.Windows1250
	case 1251:
		return charmap.Windows1251
	case 1253:
		return charmap.Windows1253
	case 1254:
		return charmap.Windows1254
	case 28591:
		return charmap.ISO8859_1
	case 28592:
		return charmap.ISO8859_2
	case 1252:
		return charmap.Windows1252
	}
	return nil
}
