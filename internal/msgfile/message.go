// Package msgfile reads Outlook .msg files. A .msg file is a Compound File
// Binary container whose top-level streams hold MAPI properties of the message.
package msgfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset" // Decoders for encoded-word headers (ks_c_5601-1987, ...)
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
	"github.com/richardlehane/mscfb"
)

// MAPI property ids
const (
	propSubject           = 0x0037
	propClientSubmitTime  = 0x0039
	propTransportHeaders  = 0x007D
	propSenderName        = 0x0C1A
	propSenderEmail       = 0x0C1F
	propDisplayTo         = 0x0E04
	propDeliveryTime      = 0x0E06
	propBody              = 0x1000
	propHTML              = 0x1013
	propInternetCodepage  = 0x3FDE
	propMessageCodepage   = 0x3FFD
	propSenderSMTPAddress = 0x5D01
)

// MAPI property types
const (
	typeInt32   = 0x0003
	typeString8 = 0x001E
	typeUnicode = 0x001F
	typeSysTime = 0x0040
	typeBinary  = 0x0102
)

const (
	substgPrefix     = "__substg1.0_"
	attachPrefix     = "__attach_version1.0_#"
	recipPrefix      = "__recip_version1.0_#"
	propertiesStream = "__properties_version1.0"
	rootEntry        = "Root Entry"

	// The top-level properties stream starts with a 32 byte header,
	// followed by 16 byte fixed-length property entries.
	topLevelHeaderSize = 32
	propertyEntrySize  = 16

	// 100ns intervals between 1601-01-01 and 1970-01-01
	filetimeUnixOffset = 116444736000000000
)

// ErrNotMsgFile is returned when the input is not a compound file
var ErrNotMsgFile = errors.New("not an Outlook .msg file")

type variableProp struct {
	typ  uint16
	data []byte
}

type fixedProp struct {
	typ   uint16
	value [8]byte
}

// Message holds the top-level properties of one .msg file
type Message struct {
	variable    map[uint16]variableProp
	fixed       map[uint16]fixedProp
	attachments int
	recipients  int
	headers     *mail.Header
}

func newMessage() *Message {
	return &Message{
		variable: make(map[uint16]variableProp),
		fixed:    make(map[uint16]fixedProp),
	}
}

// Open parses the .msg file at path. The file is closed before Open returns.
func Open(path string) (*Message, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open msg file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a .msg compound file from r
func Parse(r io.ReaderAt) (*Message, error) {
	doc, err := mscfb.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMsgFile, err)
	}

	m := newMessage()
	for {
		entry, err := doc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read msg entry: %w", err)
		}

		if !isTopLevel(entry.Path) {
			continue
		}

		switch {
		case strings.HasPrefix(entry.Name, attachPrefix):
			m.attachments++
		case strings.HasPrefix(entry.Name, recipPrefix):
			m.recipients++
		case entry.Name == propertiesStream:
			data, err := io.ReadAll(entry)
			if err != nil {
				return nil, fmt.Errorf("failed to read properties stream: %w", err)
			}
			m.parseFixed(data, topLevelHeaderSize)
		default:
			id, typ, ok := parseStreamName(entry.Name)
			if !ok {
				continue
			}
			data, err := io.ReadAll(entry)
			if err != nil {
				return nil, fmt.Errorf("failed to read property %04X: %w", id, err)
			}
			m.variable[id] = variableProp{typ: typ, data: data}
		}
	}

	return m, nil
}

// isTopLevel reports whether an entry sits directly under the root storage
func isTopLevel(path []string) bool {
	for _, p := range path {
		if p != rootEntry && p != "" {
			return false
		}
	}
	return true
}

// parseStreamName splits "__substg1.0_0037001F" into property id and type
func parseStreamName(name string) (id, typ uint16, ok bool) {
	if !strings.HasPrefix(name, substgPrefix) {
		return 0, 0, false
	}
	tag := strings.TrimPrefix(name, substgPrefix)
	if len(tag) < 8 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(tag[:8], 16, 32)
	if err != nil {
		return 0, 0, false
	}
	return uint16(v >> 16), uint16(v), true
}

// parseFixed reads fixed-length entries of a properties stream
func (m *Message) parseFixed(data []byte, headerSize int) {
	if len(data) < headerSize {
		return
	}
	for off := headerSize; off+propertyEntrySize <= len(data); off += propertyEntrySize {
		tag := binary.LittleEndian.Uint32(data[off:])
		var p fixedProp
		p.typ = uint16(tag)
		copy(p.value[:], data[off+8:off+16])
		m.fixed[uint16(tag>>16)] = p
	}
}

func (m *Message) int32Prop(id uint16) (uint32, bool) {
	p, ok := m.fixed[id]
	if !ok || p.typ != typeInt32 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(p.value[:4]), true
}

func (m *Message) timeProp(id uint16) (time.Time, bool) {
	p, ok := m.fixed[id]
	if !ok || p.typ != typeSysTime {
		return time.Time{}, false
	}
	ft := binary.LittleEndian.Uint64(p.value[:])
	if ft <= filetimeUnixOffset {
		return time.Time{}, false
	}
	return filetimeToTime(ft), true
}

func filetimeToTime(ft uint64) time.Time {
	return time.Unix(0, int64(ft-filetimeUnixOffset)*100).UTC()
}

// codepage returns the code page used for 8-bit string properties
func (m *Message) codepage() uint32 {
	if cp, ok := m.int32Prop(propMessageCodepage); ok && cp != 0 {
		return cp
	}
	if cp, ok := m.int32Prop(propInternetCodepage); ok && cp != 0 {
		return cp
	}
	return 0
}

// stringProp decodes a string property, empty when missing
func (m *Message) stringProp(id uint16) string {
	p, ok := m.variable[id]
	if !ok {
		return ""
	}
	switch p.typ {
	case typeUnicode:
		return decodeUTF16(p.data)
	case typeString8:
		return decodeCodepage(p.data, m.codepage())
	default:
		return ""
	}
}

// Subject returns the message subject
func (m *Message) Subject() string {
	return m.stringProp(propSubject)
}

// Sender returns "Name <address>" when both parts are known
func (m *Message) Sender() string {
	name := strings.TrimSpace(m.stringProp(propSenderName))
	addr := strings.TrimSpace(m.stringProp(propSenderSMTPAddress))
	if addr == "" {
		// Exchange senders carry an X.500 DN here, not an address
		if a := strings.TrimSpace(m.stringProp(propSenderEmail)); strings.Contains(a, "@") {
			addr = a
		}
	}

	if addr == "" {
		if h := m.transportHeaders(); h != nil {
			if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
				if name == "" {
					name = from[0].Name
				}
				addr = from[0].Address
			}
		}
	}

	return formatAddress(name, addr)
}

// To returns the primary recipients, comma-joined
func (m *Message) To() string {
	if h := m.transportHeaders(); h != nil {
		if to, err := h.AddressList("To"); err == nil && len(to) > 0 {
			out := make([]string, 0, len(to))
			for _, a := range to {
				out = append(out, formatAddress(a.Name, a.Address))
			}
			return strings.Join(out, ", ")
		}
	}

	display := m.stringProp(propDisplayTo)
	var out []string
	for _, r := range strings.Split(display, ";") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return strings.Join(out, ", ")
}

// Date returns the submit time, falling back to delivery time and the Date header
func (m *Message) Date() *time.Time {
	for _, id := range []uint16{propClientSubmitTime, propDeliveryTime} {
		if t, ok := m.timeProp(id); ok {
			return &t
		}
	}

	if h := m.transportHeaders(); h != nil && h.Has("Date") {
		if t, err := h.Date(); err == nil && !t.IsZero() {
			return &t
		}
	}

	return nil
}

// Body returns the plain text body
func (m *Message) Body() string {
	return m.stringProp(propBody)
}

// HTMLBody returns the HTML body, empty when the message has none
func (m *Message) HTMLBody() string {
	p, ok := m.variable[propHTML]
	if !ok {
		return ""
	}
	switch p.typ {
	case typeUnicode:
		return decodeUTF16(p.data)
	case typeBinary, typeString8:
		cp := m.codepage()
		if ic, ok := m.int32Prop(propInternetCodepage); ok && ic != 0 {
			cp = ic
		}
		return decodeCodepage(p.data, cp)
	default:
		return ""
	}
}

// AttachmentCount returns the number of attachment storages
func (m *Message) AttachmentCount() int {
	return m.attachments
}

// RecipientCount returns the number of recipient storages
func (m *Message) RecipientCount() int {
	return m.recipients
}

// transportHeaders parses PR_TRANSPORT_MESSAGE_HEADERS once, nil when absent
func (m *Message) transportHeaders() *mail.Header {
	if m.headers != nil {
		return m.headers
	}
	raw := m.stringProp(propTransportHeaders)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	h, err := textproto.ReadHeader(bufio.NewReader(strings.NewReader(raw + "\r\n\r\n")))
	if err != nil {
		return nil
	}
	m.headers = &mail.Header{}
	m.headers.Header.Header = h
	return m.headers
}

func formatAddress(name, addr string) string {
	name = strings.Trim(strings.TrimSpace(name), `"'`)
	switch {
	case addr == "":
		return name
	case name == "" || strings.EqualFold(name, addr):
		return addr
	default:
		return name + " <" + addr + ">"
	}
}
